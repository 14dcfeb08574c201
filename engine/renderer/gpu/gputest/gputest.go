// Package gputest provides a recording gpu.Backend for tests that need no GPU or window.
package gputest

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Call is one recorded backend operation.
type Call struct {
	Op   string
	Args []any
}

// TextureState is the observable state of a fake texture.
type TextureState struct {
	Image     *image.RGBA
	Sampler   gpu.SamplerState
	Mipmapped bool
	Uploads   int
	Deleted   bool
}

type shaderState struct {
	stage    gpu.ShaderStage
	compiled bool
	deleted  bool
}

type programState struct {
	shaders []gpu.ShaderHandle
	linked  bool
	deleted bool
}

type bufferState struct {
	target  gpu.BufferTarget
	data    []byte
	deleted bool
}

// Backend records every call and keeps just enough object state to answer queries.
// All exported fields may be set before use; they are read under the backend's lock.
type Backend struct {
	mu sync.Mutex

	// CompileLogs makes CompileShader fail for a stage with the given log.
	CompileLogs map[gpu.ShaderStage]string
	// LinkLog makes LinkProgram fail with the given log when non-empty.
	LinkLog string
	// Attributes maps attribute names to the slots AttribLocation reports.
	Attributes map[string]int32
	// Uniforms maps uniform names to the locations UniformLocation reports.
	Uniforms map[string]int32
	// TextureErr makes CreateTexture fail when set.
	TextureErr error
	// FrameErr makes BeginFrame fail when set.
	FrameErr error

	calls    []Call
	nextID   uint32
	shaders  map[gpu.ShaderHandle]*shaderState
	programs map[gpu.ProgramHandle]*programState
	buffers  map[gpu.BufferHandle]*bufferState
	textures map[gpu.TextureHandle]*TextureState
	released bool
}

var _ gpu.Backend = &Backend{}

// New returns an empty recording backend with no failures configured.
func New() *Backend {
	return &Backend{
		CompileLogs: make(map[gpu.ShaderStage]string),
		Attributes:  make(map[string]int32),
		Uniforms:    make(map[string]int32),
		shaders:     make(map[gpu.ShaderHandle]*shaderState),
		programs:    make(map[gpu.ProgramHandle]*programState),
		buffers:     make(map[gpu.BufferHandle]*bufferState),
		textures:    make(map[gpu.TextureHandle]*TextureState),
	}
}

func (b *Backend) record(op string, args ...any) {
	b.calls = append(b.calls, Call{Op: op, Args: args})
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

func (b *Backend) Name() string {
	return "gputest"
}

func (b *Backend) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := gpu.ShaderHandle(b.id())
	b.shaders[h] = &shaderState{stage: stage}
	b.record("CreateShader", stage, h)
	return h, nil
}

func (b *Backend) CompileShader(shader gpu.ShaderHandle, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CompileShader", shader)
	s, ok := b.shaders[shader]
	if !ok || s.deleted {
		return fmt.Errorf("compile shader %d: %w", shader, gpu.ErrInvalidHandle)
	}
	if msg, fail := b.CompileLogs[s.stage]; fail {
		return &gpu.CompileError{Stage: s.stage, Log: msg}
	}
	s.compiled = true
	return nil
}

func (b *Backend) DeleteShader(shader gpu.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteShader", shader)
	if s, ok := b.shaders[shader]; ok {
		s.deleted = true
	}
}

func (b *Backend) CreateProgram() (gpu.ProgramHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := gpu.ProgramHandle(b.id())
	b.programs[h] = &programState{}
	b.record("CreateProgram", h)
	return h, nil
}

func (b *Backend) AttachShader(program gpu.ProgramHandle, shader gpu.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("AttachShader", program, shader)
	if p, ok := b.programs[program]; ok {
		p.shaders = append(p.shaders, shader)
	}
}

func (b *Backend) LinkProgram(program gpu.ProgramHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("LinkProgram", program)
	p, ok := b.programs[program]
	if !ok || p.deleted {
		return fmt.Errorf("link program %d: %w", program, gpu.ErrInvalidHandle)
	}
	if b.LinkLog != "" {
		return &gpu.LinkError{Log: b.LinkLog}
	}
	p.linked = true
	return nil
}

func (b *Backend) DeleteProgram(program gpu.ProgramHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteProgram", program)
	if p, ok := b.programs[program]; ok {
		p.deleted = true
	}
}

func (b *Backend) AttribLocation(program gpu.ProgramHandle, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if loc, ok := b.Attributes[name]; ok {
		return loc
	}
	return gpu.MissingLocation
}

func (b *Backend) UniformLocation(program gpu.ProgramHandle, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if loc, ok := b.Uniforms[name]; ok {
		return loc
	}
	return gpu.MissingLocation
}

func (b *Backend) CreateBuffer(target gpu.BufferTarget, data []byte) (gpu.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := gpu.BufferHandle(b.id())
	b.buffers[h] = &bufferState{target: target, data: slices.Clone(data)}
	b.record("CreateBuffer", target, len(data), h)
	return h, nil
}

func (b *Backend) DeleteBuffer(buffer gpu.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteBuffer", buffer)
	if s, ok := b.buffers[buffer]; ok {
		s.deleted = true
	}
}

func (b *Backend) CreateTexture() (gpu.TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.TextureErr != nil {
		b.record("CreateTexture", b.TextureErr)
		return gpu.InvalidTexture, b.TextureErr
	}
	h := gpu.TextureHandle(b.id())
	b.textures[h] = &TextureState{Sampler: gpu.DefaultSamplerState()}
	b.record("CreateTexture", h)
	return h, nil
}

func (b *Backend) UploadTexture(texture gpu.TextureHandle, img *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UploadTexture", texture, img.Bounds().Dx(), img.Bounds().Dy())
	t, ok := b.textures[texture]
	if !ok || t.Deleted {
		return fmt.Errorf("upload texture %d: %w", texture, gpu.ErrInvalidHandle)
	}
	t.Image = img
	t.Mipmapped = false
	t.Uploads++
	return nil
}

func (b *Backend) GenerateMipmaps(texture gpu.TextureHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("GenerateMipmaps", texture)
	t, ok := b.textures[texture]
	if !ok || t.Deleted {
		return fmt.Errorf("generate mipmaps %d: %w", texture, gpu.ErrInvalidHandle)
	}
	t.Mipmapped = true
	return nil
}

func (b *Backend) SetSampler(texture gpu.TextureHandle, sampler gpu.SamplerState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("SetSampler", texture, sampler)
	t, ok := b.textures[texture]
	if !ok || t.Deleted {
		return fmt.Errorf("set sampler %d: %w", texture, gpu.ErrInvalidHandle)
	}
	t.Sampler = sampler
	return nil
}

func (b *Backend) DeleteTexture(texture gpu.TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteTexture", texture)
	if t, ok := b.textures[texture]; ok {
		t.Deleted = true
	}
}

func (b *Backend) BeginFrame(width, height int, clear gpu.ClearState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BeginFrame", width, height, clear)
	return b.FrameErr
}

func (b *Backend) BindVertexAttribute(slot int32, buffer gpu.BufferHandle, components int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BindVertexAttribute", slot, buffer, components)
}

func (b *Backend) UseProgram(program gpu.ProgramHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UseProgram", program)
}

func (b *Backend) SetUniformMatrix4(location int32, m mgl32.Mat4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("SetUniformMatrix4", location, m)
}

func (b *Backend) SetUniformInt(location int32, value int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("SetUniformInt", location, value)
}

func (b *Backend) BindTexture(unit uint32, texture gpu.TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BindTexture", unit, texture)
}

func (b *Backend) DrawIndexed(buffer gpu.BufferHandle, count int32, indexType gpu.IndexType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DrawIndexed", buffer, count, indexType)
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("EndFrame")
	return nil
}

func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Release")
	b.released = true
}

// Calls returns a copy of every recorded call in order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// Ops returns the recorded operation names in order.
func (b *Backend) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops := make([]string, len(b.calls))
	for i, c := range b.calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsTo returns the recorded calls to op in order.
func (b *Backend) CallsTo(op string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps object state.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Texture returns a snapshot of the texture's state.
func (b *Backend) Texture(texture gpu.TextureHandle) (TextureState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.textures[texture]
	if !ok {
		return TextureState{}, false
	}
	return *t, true
}

// BufferData returns a copy of the bytes uploaded to buffer and its target.
func (b *Backend) BufferData(buffer gpu.BufferHandle) ([]byte, gpu.BufferTarget, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.buffers[buffer]
	if !ok {
		return nil, 0, false
	}
	return slices.Clone(s.data), s.target, true
}

// ShaderDeleted reports whether DeleteShader was called for shader.
func (b *Backend) ShaderDeleted(shader gpu.ShaderHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.shaders[shader]
	return ok && s.deleted
}

// ProgramDeleted reports whether DeleteProgram was called for program.
func (b *Backend) ProgramDeleted(program gpu.ProgramHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.programs[program]
	return ok && p.deleted
}

// LiveShaders returns the shaders that were created and never deleted.
func (b *Backend) LiveShaders() []gpu.ShaderHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []gpu.ShaderHandle
	for h, s := range b.shaders {
		if !s.deleted {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}

// Released reports whether Release was called.
func (b *Backend) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
