package wgpubackend

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

func (s *shaderModule) release() {
	if s.module != nil {
		s.module.Release()
		s.module = nil
	}
}

func (p *program) release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.uniformBuffer != nil {
		p.uniformBuffer.Release()
		p.uniformBuffer = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	if p.bindGroupLay != nil {
		p.bindGroupLay.Release()
		p.bindGroupLay = nil
	}
}

func (t *texture) release() {
	t.releaseImage()
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
}

func (t *texture) releaseImage() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

func (b *wgpuBackendImpl) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stage != gpu.ShaderStageVertex && stage != gpu.ShaderStageFragment {
		return gpu.InvalidShader, fmt.Errorf("unsupported shader stage %s", stage)
	}
	h := gpu.ShaderHandle(b.newHandle())
	b.shaders[h] = &shaderModule{stage: stage}
	return h, nil
}

// CompileShader creates the shader module and reflects its entry points and resources. A module
// without an entry point for its stage is reported as a compile failure.
func (b *wgpuBackendImpl) CompileShader(h gpu.ShaderHandle, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.shaders[h]
	if !ok {
		return fmt.Errorf("%w: shader %d", gpu.ErrInvalidHandle, h)
	}
	s.release()

	reflection := wgsl.Reflect(source)
	entry := reflection.VertexEntry
	if s.stage == gpu.ShaderStageFragment {
		entry = reflection.FragmentEntry
	}
	if entry == "" {
		return &gpu.CompileError{Stage: s.stage, Log: fmt.Sprintf("no @%s entry point", s.stage)}
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fmt.Sprintf("%s %s shader %d", b.label, s.stage, h),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return &gpu.CompileError{Stage: s.stage, Log: err.Error()}
	}
	s.module = module
	s.reflection = reflection
	return nil
}

func (b *wgpuBackendImpl) DeleteShader(h gpu.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.shaders[h]; ok {
		s.release()
		delete(b.shaders, h)
	}
}

func (b *wgpuBackendImpl) CreateProgram() (gpu.ProgramHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := gpu.ProgramHandle(b.newHandle())
	b.programs[h] = &program{uniformBinding: -1, textureBinding: -1, samplerBinding: -1}
	return h, nil
}

func (b *wgpuBackendImpl) AttachShader(ph gpu.ProgramHandle, sh gpu.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.programs[ph]; ok {
		p.attached = append(p.attached, sh)
	}
}

// LinkProgram builds the render pipeline from the attached vertex and fragment modules.
func (b *wgpuBackendImpl) LinkProgram(ph gpu.ProgramHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.programs[ph]
	if !ok {
		return fmt.Errorf("%w: program %d", gpu.ErrInvalidHandle, ph)
	}

	var vs, fs *shaderModule
	for _, sh := range p.attached {
		s, ok := b.shaders[sh]
		if !ok || s.module == nil {
			return &gpu.LinkError{Log: fmt.Sprintf("shader %d is not compiled", sh)}
		}
		switch s.stage {
		case gpu.ShaderStageVertex:
			vs = s
		case gpu.ShaderStageFragment:
			fs = s
		}
	}
	if vs == nil || fs == nil {
		return &gpu.LinkError{Log: "a vertex and a fragment shader must be attached"}
	}

	p.release()
	p.reflection = wgsl.Merge(vs.reflection, fs.reflection)
	if err := b.buildPipeline(ph, p, vs, fs); err != nil {
		p.release()
		return &gpu.LinkError{Log: err.Error()}
	}
	p.linked = true
	return nil
}

// buildPipeline creates the group 0 layout, the uniform buffer and the render pipeline for p.
// Callers hold b.mu.
func (b *wgpuBackendImpl) buildPipeline(ph gpu.ProgramHandle, p *program, vs, fs *shaderModule) error {
	label := fmt.Sprintf("%s program %d", b.label, ph)

	entries, err := bindGroupLayoutEntries(p.reflection.Bindings)
	if err != nil {
		return err
	}

	p.uniformBinding, p.textureBinding, p.samplerBinding = -1, -1, -1
	var uniformSize uint64
	for _, bnd := range p.reflection.Bindings {
		var slot *int
		switch bnd.Kind {
		case wgsl.BindingUniformBuffer:
			slot = &p.uniformBinding
			uniformSize = bnd.Size
		case wgsl.BindingTexture:
			slot = &p.textureBinding
		case wgsl.BindingSampler:
			slot = &p.samplerBinding
		}
		if slot == nil {
			continue
		}
		if *slot >= 0 {
			return fmt.Errorf("more than one %s binding is not supported", bnd.Type)
		}
		*slot = bnd.Binding
	}
	if uniformSize >= uint64(bindingLocationFlag) {
		return fmt.Errorf("uniform buffer of %d bytes is too large", uniformSize)
	}

	vertexLayouts, err := vertexBufferLayouts(p.reflection.Inputs)
	if err != nil {
		return err
	}

	p.bindGroupLay, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + " Bind Group Layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}

	p.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bindGroupLay},
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	p.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: vs.reflection.VertexEntry,
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: fs.reflection.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create render pipeline: %w", err)
	}

	if p.uniformBinding >= 0 {
		p.uniformBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Uniform Buffer",
			Size:  uniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create uniform buffer: %w", err)
		}
		p.uniformData = make([]byte, uniformSize)
	}
	return nil
}

func (b *wgpuBackendImpl) DeleteProgram(ph gpu.ProgramHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.programs[ph]; ok {
		p.release()
		delete(b.programs, ph)
	}
	if b.currentProgram == ph {
		b.currentProgram = gpu.InvalidProgram
	}
}

// AttribLocation returns the @location of the named vertex input.
func (b *wgpuBackendImpl) AttribLocation(ph gpu.ProgramHandle, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.programs[ph]
	if !ok || !p.linked {
		return gpu.MissingLocation
	}
	in, ok := p.reflection.Input(name)
	if !ok {
		return gpu.MissingLocation
	}
	return int32(in.Location)
}

// UniformLocation returns the byte offset of a uniform struct member, or the encoded binding of a
// texture or sampler variable.
func (b *wgpuBackendImpl) UniformLocation(ph gpu.ProgramHandle, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.programs[ph]
	if !ok || !p.linked {
		return gpu.MissingLocation
	}
	if _, member, ok := p.reflection.UniformMember(name); ok {
		return int32(member.Offset)
	}
	if bnd, ok := p.reflection.Binding(name); ok {
		switch bnd.Kind {
		case wgsl.BindingTexture, wgsl.BindingSampler:
			return encodeBindingLocation(bnd.Binding)
		}
	}
	return gpu.MissingLocation
}

// CreateBuffer uploads data into a new vertex or index buffer. Sizes are padded to the 4 byte
// multiple WriteBuffer requires.
func (b *wgpuBackendImpl) CreateBuffer(target gpu.BufferTarget, data []byte) (gpu.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	usage := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	kind := "Vertex"
	if target == gpu.ElementArrayBuffer {
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
		kind = "Index"
	}

	size := (uint64(len(data)) + 3) &^ 3
	if size == 0 {
		return gpu.InvalidBuffer, fmt.Errorf("cannot create an empty %s buffer", kind)
	}
	padded := data
	if uint64(len(data)) != size {
		padded = make([]byte, size)
		copy(padded, data)
	}

	h := gpu.BufferHandle(b.newHandle())
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            fmt.Sprintf("%s %s Buffer %d", b.label, kind, h),
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return gpu.InvalidBuffer, err
	}
	b.queue.WriteBuffer(buf, 0, padded)
	b.buffers[h] = &buffer{target: target, buf: buf}
	return h, nil
}

func (b *wgpuBackendImpl) DeleteBuffer(h gpu.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if buf, ok := b.buffers[h]; ok {
		buf.buf.Release()
		delete(b.buffers, h)
	}
}

// CreateTexture allocates the handle only; storage is created by the first UploadTexture.
func (b *wgpuBackendImpl) CreateTexture() (gpu.TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := gpu.TextureHandle(b.newHandle())
	b.textures[h] = &texture{levels: 1, state: gpu.DefaultSamplerState()}
	return h, nil
}

// UploadTexture replaces the texture with a single level holding img.
func (b *wgpuBackendImpl) UploadTexture(h gpu.TextureHandle, img *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[h]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	img = gpu.ToRGBA(img)
	return b.allocateTexture(h, t, img, []*image.RGBA{img})
}

// GenerateMipmaps rebuilds the texture with a full chain downsampled on the CPU.
func (b *wgpuBackendImpl) GenerateMipmaps(h gpu.TextureHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[h]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	if t.img == nil {
		return fmt.Errorf("texture %d has no image to build mipmaps from", h)
	}
	return b.allocateTexture(h, t, t.img, gpu.BuildMipChain(t.img))
}

// allocateTexture recreates the wgpu texture sized for chain[0] with one level per chain entry.
// Callers hold b.mu.
func (b *wgpuBackendImpl) allocateTexture(h gpu.TextureHandle, t *texture, base *image.RGBA, chain []*image.RGBA) error {
	w, ht := base.Bounds().Dx(), base.Bounds().Dy()
	if w == 0 || ht == 0 {
		return fmt.Errorf("texture %d: cannot upload an empty image", h)
	}

	tex, err := b.device.CreateTexture(textureDescriptor(fmt.Sprintf("%s Texture %d", b.label, h), w, ht, len(chain)))
	if err != nil {
		return err
	}

	for level, img := range chain {
		lw, lh := uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy())
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			img.Pix,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(img.Stride),
				RowsPerImage: lh,
			},
			&wgpu.Extent3D{
				Width:              lw,
				Height:             lh,
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}

	t.releaseImage()
	t.tex = tex
	t.view = view
	t.img = base
	t.levels = len(chain)
	t.version++
	return nil
}

func (b *wgpuBackendImpl) SetSampler(h gpu.TextureHandle, s gpu.SamplerState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[h]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	samp, err := b.device.CreateSampler(samplerDescriptor(fmt.Sprintf("%s Sampler %d", b.label, h), s))
	if err != nil {
		return err
	}
	if t.sampler != nil {
		t.sampler.Release()
	}
	t.sampler = samp
	t.state = s
	t.version++
	return nil
}

func (b *wgpuBackendImpl) DeleteTexture(h gpu.TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.textures[h]; ok {
		t.release()
		delete(b.textures, h)
	}
	for unit, bound := range b.boundTextures {
		if bound == h {
			delete(b.boundTextures, unit)
		}
	}
}

func (b *wgpuBackendImpl) BindVertexAttribute(slot int32, buf gpu.BufferHandle, components int32) {
	if slot < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vertexBindings[slot] = vertexBinding{buffer: buf, components: components}
}

func (b *wgpuBackendImpl) UseProgram(ph gpu.ProgramHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentProgram = ph
}

func (b *wgpuBackendImpl) SetUniformMatrix4(location int32, m mgl32.Mat4) {
	if location < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeUniform(location, common.SliceToBytes(m[:]))
}

// SetUniformInt writes an integer member. Sampler locations are accepted and ignored since the
// program's single texture binding always reads texture unit 0.
func (b *wgpuBackendImpl) SetUniformInt(location int32, value int32) {
	if location < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], uint32(value))
	b.writeUniform(location, data[:])
}

// writeUniform stages data in the current program's uniform buffer. Callers hold b.mu.
func (b *wgpuBackendImpl) writeUniform(location int32, data []byte) {
	offset, _, isBinding := decodeLocation(location)
	if isBinding {
		return
	}
	p, ok := b.programs[b.currentProgram]
	if !ok {
		b.recordFrameErr(fmt.Errorf("uniform write at %d without a current program", location))
		return
	}
	if offset+uint64(len(data)) > uint64(len(p.uniformData)) {
		b.recordFrameErr(fmt.Errorf("uniform write at %d overruns the %d byte uniform buffer", offset, len(p.uniformData)))
		return
	}
	copy(p.uniformData[offset:], data)
}

func (b *wgpuBackendImpl) BindTexture(unit uint32, h gpu.TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boundTextures[unit] = h
}

// DrawIndexed flushes the staged uniforms, refreshes the bind group if the bound texture changed
// and records the draw into the current pass. Failures are reported by EndFrame.
func (b *wgpuBackendImpl) DrawIndexed(ih gpu.BufferHandle, count int32, indexType gpu.IndexType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.drawIndexed(ih, count, indexType); err != nil {
		b.recordFrameErr(fmt.Errorf("draw skipped: %w", err))
	}
}

func (b *wgpuBackendImpl) drawIndexed(ih gpu.BufferHandle, count int32, indexType gpu.IndexType) error {
	if b.framePass == nil {
		return fmt.Errorf("no frame in progress")
	}
	p, ok := b.programs[b.currentProgram]
	if !ok || !p.linked {
		return fmt.Errorf("%w: program %d is not linked", gpu.ErrInvalidHandle, b.currentProgram)
	}
	idx, ok := b.buffers[ih]
	if !ok || idx.target != gpu.ElementArrayBuffer {
		return fmt.Errorf("%w: index buffer %d", gpu.ErrInvalidHandle, ih)
	}

	vertexBuffers := make([]*wgpu.Buffer, len(p.reflection.Inputs))
	for i, in := range p.reflection.Inputs {
		vb, ok := b.vertexBindings[int32(in.Location)]
		if !ok {
			return fmt.Errorf("no buffer bound for vertex input %s", in.Name)
		}
		if int(vb.components) != in.Components {
			return fmt.Errorf("vertex input %s expects %d components, got %d", in.Name, in.Components, vb.components)
		}
		buf, ok := b.buffers[vb.buffer]
		if !ok {
			return fmt.Errorf("%w: vertex buffer %d", gpu.ErrInvalidHandle, vb.buffer)
		}
		vertexBuffers[i] = buf.buf
	}

	bindGroup, err := b.ensureBindGroup(p)
	if err != nil {
		return err
	}
	if p.uniformBuffer != nil {
		b.queue.WriteBuffer(p.uniformBuffer, 0, p.uniformData)
	}

	b.framePass.SetPipeline(p.pipeline)
	if bindGroup != nil {
		b.framePass.SetBindGroup(0, bindGroup, nil)
	}
	for i, vb := range vertexBuffers {
		b.framePass.SetVertexBuffer(uint32(i), vb, 0, wgpu.WholeSize)
	}
	b.framePass.SetIndexBuffer(idx.buf, indexFormat(indexType), 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(count), 1, 0, 0, 0)
	return nil
}

// ensureBindGroup returns the program's group 0 bind group, rebuilding it when the texture bound
// to unit 0 has been replaced. Callers hold b.mu.
func (b *wgpuBackendImpl) ensureBindGroup(p *program) (*wgpu.BindGroup, error) {
	if p.bindGroupLay == nil || len(p.reflection.Bindings) == 0 {
		return nil, nil
	}

	key := textureKey{}
	var t *texture
	if p.textureBinding >= 0 || p.samplerBinding >= 0 {
		h := b.boundTextures[0]
		var ok bool
		t, ok = b.textures[h]
		if !ok {
			return nil, fmt.Errorf("%w: no texture bound to unit 0", gpu.ErrInvalidHandle)
		}
		if p.textureBinding >= 0 && t.view == nil {
			return nil, fmt.Errorf("texture %d has no image", h)
		}
		if p.samplerBinding >= 0 && t.sampler == nil {
			samp, err := b.device.CreateSampler(samplerDescriptor(fmt.Sprintf("%s Sampler %d", b.label, h), t.state))
			if err != nil {
				return nil, err
			}
			t.sampler = samp
			t.version++
		}
		key = textureKey{handle: h, version: t.version}
	}

	if p.bindGroup != nil && p.bindGroupKey == key {
		return p.bindGroup, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, 3)
	if p.uniformBinding >= 0 {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(p.uniformBinding),
			Buffer:  p.uniformBuffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	if p.textureBinding >= 0 {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(p.textureBinding),
			TextureView: t.view,
		})
	}
	if p.samplerBinding >= 0 {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(p.samplerBinding),
			Sampler: t.sampler,
		})
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   b.label + " Bind Group",
		Layout:  p.bindGroupLay,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bindGroup
	p.bindGroupKey = key
	return bindGroup, nil
}

// recordFrameErr keeps the first error of the frame. Callers hold b.mu.
func (b *wgpuBackendImpl) recordFrameErr(err error) {
	if b.frameErr == nil {
		b.frameErr = err
		return
	}
	common.LogDebug("wgpu: additional frame error: %v", err)
}
