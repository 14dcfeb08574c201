// Package glbackend implements gpu.Backend on an OpenGL 4.1 core context.
//
// Reference: https://pkg.go.dev/github.com/go-gl/gl/v4.1-core/gl
package glbackend

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Context is the GL context a window provides. All methods are called on the render goroutine.
type Context interface {
	// MakeContextCurrent binds the context to the calling thread.
	MakeContextCurrent() error
	// SwapBuffers presents the back buffer.
	SwapBuffers()
	// SwapInterval sets the number of refreshes to wait per swap.
	SwapInterval(interval int)
}

type glBackendImpl struct {
	mu  *sync.Mutex
	ctx Context

	swapInterval int
	vao          uint32

	shaders  map[gpu.ShaderHandle]gpu.ShaderStage
	programs map[gpu.ProgramHandle]struct{}
	buffers  map[gpu.BufferHandle]gpu.BufferTarget
	textures map[gpu.TextureHandle]struct{}
}

var _ gpu.Backend = &glBackendImpl{}

// New makes ctx current on the calling thread, loads the GL entry points and sets up the state
// every frame relies on. The calling goroutine must be locked to its OS thread and must be the
// one that renders.
//
// Parameters:
//   - ctx: the window's GL context
//   - options: functional options
//
// Returns:
//   - gpu.Backend: the ready backend
//   - error: gpu.ErrNoSurface if there is no usable context, or the gl.Init error
func New(ctx Context, options ...BackendBuilderOption) (gpu.Backend, error) {
	if ctx == nil {
		return nil, fmt.Errorf("gl backend: %w", gpu.ErrNoSurface)
	}
	b := &glBackendImpl{
		mu:           &sync.Mutex{},
		ctx:          ctx,
		swapInterval: 1,
		shaders:      make(map[gpu.ShaderHandle]gpu.ShaderStage),
		programs:     make(map[gpu.ProgramHandle]struct{}),
		buffers:      make(map[gpu.BufferHandle]gpu.BufferTarget),
		textures:     make(map[gpu.TextureHandle]struct{}),
	}
	for _, opt := range options {
		opt(b)
	}

	if err := ctx.MakeContextCurrent(); err != nil {
		return nil, fmt.Errorf("gl backend: %w: %v", gpu.ErrNoSurface, err)
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	ctx.SwapInterval(b.swapInterval)

	common.LogInfo("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	// Core profiles draw nothing without a bound vertex array object.
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.DepthFunc(gl.LEQUAL)

	return b, nil
}

func (b *glBackendImpl) Name() string {
	return "gl"
}

func (b *glBackendImpl) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kind, ok := shaderType(stage)
	if !ok {
		return gpu.InvalidShader, fmt.Errorf("unsupported shader stage %s", stage)
	}
	id := gl.CreateShader(kind)
	if id == 0 {
		return gpu.InvalidShader, fmt.Errorf("glCreateShader failed for %s stage", stage)
	}
	h := gpu.ShaderHandle(id)
	b.shaders[h] = stage
	return h, nil
}

func (b *glBackendImpl) CompileShader(h gpu.ShaderHandle, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stage, ok := b.shaders[h]
	if !ok {
		return fmt.Errorf("%w: shader %d", gpu.ErrInvalidHandle, h)
	}
	id := uint32(h)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, csources, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(id, logLength, nil, gl.Str(log))
		return &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return nil
}

func (b *glBackendImpl) DeleteShader(h gpu.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.shaders[h]; ok {
		gl.DeleteShader(uint32(h))
		delete(b.shaders, h)
	}
}

func (b *glBackendImpl) CreateProgram() (gpu.ProgramHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := gl.CreateProgram()
	if id == 0 {
		return gpu.InvalidProgram, fmt.Errorf("glCreateProgram failed")
	}
	h := gpu.ProgramHandle(id)
	b.programs[h] = struct{}{}
	return h, nil
}

func (b *glBackendImpl) AttachShader(ph gpu.ProgramHandle, sh gpu.ShaderHandle) {
	gl.AttachShader(uint32(ph), uint32(sh))
}

func (b *glBackendImpl) LinkProgram(ph gpu.ProgramHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.programs[ph]; !ok {
		return fmt.Errorf("%w: program %d", gpu.ErrInvalidHandle, ph)
	}
	id := uint32(ph)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		return &gpu.LinkError{Log: strings.TrimRight(log, "\x00")}
	}
	return nil
}

func (b *glBackendImpl) DeleteProgram(ph gpu.ProgramHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.programs[ph]; ok {
		gl.DeleteProgram(uint32(ph))
		delete(b.programs, ph)
	}
}

func (b *glBackendImpl) AttribLocation(ph gpu.ProgramHandle, name string) int32 {
	return gl.GetAttribLocation(uint32(ph), gl.Str(name+"\x00"))
}

func (b *glBackendImpl) UniformLocation(ph gpu.ProgramHandle, name string) int32 {
	return gl.GetUniformLocation(uint32(ph), gl.Str(name+"\x00"))
}

func (b *glBackendImpl) CreateBuffer(target gpu.BufferTarget, data []byte) (gpu.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(data) == 0 {
		return gpu.InvalidBuffer, fmt.Errorf("cannot create an empty buffer")
	}
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return gpu.InvalidBuffer, fmt.Errorf("glGenBuffers failed")
	}
	glTarget := bufferTarget(target)
	gl.BindBuffer(glTarget, id)
	gl.BufferData(glTarget, len(data), gl.Ptr(data), gl.STATIC_DRAW)

	h := gpu.BufferHandle(id)
	b.buffers[h] = target
	return h, nil
}

func (b *glBackendImpl) DeleteBuffer(h gpu.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.buffers[h]; ok {
		id := uint32(h)
		gl.DeleteBuffers(1, &id)
		delete(b.buffers, h)
	}
}

func (b *glBackendImpl) CreateTexture() (gpu.TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return gpu.InvalidTexture, fmt.Errorf("glGenTextures failed")
	}
	h := gpu.TextureHandle(id)
	b.textures[h] = struct{}{}
	return h, nil
}

func (b *glBackendImpl) UploadTexture(h gpu.TextureHandle, img *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.textures[h]; !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	img = gpu.ToRGBA(img)
	w, ht := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || ht == 0 {
		return fmt.Errorf("texture %d: cannot upload an empty image", h)
	}

	gl.BindTexture(gl.TEXTURE_2D, uint32(h))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(ht), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	return checkError("upload texture")
}

func (b *glBackendImpl) GenerateMipmaps(h gpu.TextureHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.textures[h]; !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(h))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	return checkError("generate mipmaps")
}

func (b *glBackendImpl) SetSampler(h gpu.TextureHandle, s gpu.SamplerState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.textures[h]; !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrInvalidHandle, h)
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(h))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(s.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(s.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter(s.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter(s.MagFilter))
	return checkError("set sampler")
}

func (b *glBackendImpl) DeleteTexture(h gpu.TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.textures[h]; ok {
		id := uint32(h)
		gl.DeleteTextures(1, &id)
		delete(b.textures, h)
	}
}

func (b *glBackendImpl) BeginFrame(width, height int, clear gpu.ClearState) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(clear.Color[0], clear.Color[1], clear.Color[2], clear.Color[3])
	gl.ClearDepth(float64(clear.Depth))
	if clear.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return nil
}

func (b *glBackendImpl) BindVertexAttribute(slot int32, buf gpu.BufferHandle, components int32) {
	if slot < 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.VertexAttribPointer(uint32(slot), components, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(uint32(slot))
}

func (b *glBackendImpl) UseProgram(ph gpu.ProgramHandle) {
	gl.UseProgram(uint32(ph))
}

func (b *glBackendImpl) SetUniformMatrix4(location int32, m mgl32.Mat4) {
	if location < 0 {
		return
	}
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (b *glBackendImpl) SetUniformInt(location int32, value int32) {
	if location < 0 {
		return
	}
	gl.Uniform1i(location, value)
}

func (b *glBackendImpl) BindTexture(unit uint32, h gpu.TextureHandle) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, uint32(h))
}

func (b *glBackendImpl) DrawIndexed(buf gpu.BufferHandle, count int32, t gpu.IndexType) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(buf))
	gl.DrawElements(gl.TRIANGLES, count, indexType(t), gl.PtrOffset(0))
}

// EndFrame reports any GL error raised during the frame, then swaps buffers.
func (b *glBackendImpl) EndFrame() error {
	err := checkError("frame")
	b.ctx.SwapBuffers()
	return err
}

// Release deletes every object still owned by the backend. The context stays current.
func (b *glBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h := range b.textures {
		id := uint32(h)
		gl.DeleteTextures(1, &id)
	}
	for h := range b.buffers {
		id := uint32(h)
		gl.DeleteBuffers(1, &id)
	}
	for h := range b.programs {
		gl.DeleteProgram(uint32(h))
	}
	for h := range b.shaders {
		gl.DeleteShader(uint32(h))
	}
	clear(b.textures)
	clear(b.buffers)
	clear(b.programs)
	clear(b.shaders)

	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}

// checkError drains the GL error queue and reports the first error.
func checkError(op string) error {
	first := uint32(gl.NO_ERROR)
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == gl.NO_ERROR {
			first = code
		}
	}
	if first != gl.NO_ERROR {
		return fmt.Errorf("%s: %s (0x%04X)", op, errorName(first), first)
	}
	return nil
}
