// Package gpu defines the bind-then-operate capability surface the renderer draws through.
// Concrete implementations live in glbackend (OpenGL 4.1 core) and wgpubackend (WebGPU);
// gputest provides a recording fake for tests.
package gpu

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Backend is the set of GPU operations the renderer needs. Every call must be made from the
// goroutine that owns the backend's context.
type Backend interface {
	// Name returns a short identifier for logging, e.g. "gl" or "wgpu".
	Name() string

	// CreateShader allocates an empty shader object for the given stage.
	//
	// Parameters:
	//   - stage: the pipeline stage the shader will run in
	//
	// Returns:
	//   - ShaderHandle: the new shader handle
	//   - error: an error if the backend could not allocate the shader
	CreateShader(stage ShaderStage) (ShaderHandle, error)

	// CompileShader sets the source of a shader and compiles it.
	// On failure the returned error carries the backend's diagnostic log and the shader is left
	// allocated so the caller decides when to release it.
	//
	// Parameters:
	//   - shader: the shader to compile
	//   - source: the shading language source
	//
	// Returns:
	//   - error: a *CompileError if compilation failed
	CompileShader(shader ShaderHandle, source string) error

	// DeleteShader releases a shader object. Deleting InvalidShader is a no-op.
	DeleteShader(shader ShaderHandle)

	// CreateProgram allocates an empty program object.
	CreateProgram() (ProgramHandle, error)

	// AttachShader attaches a compiled shader to a program prior to linking.
	AttachShader(program ProgramHandle, shader ShaderHandle)

	// LinkProgram links the attached shaders into an executable program.
	//
	// Returns:
	//   - error: a *LinkError carrying the link log if linking failed
	LinkProgram(program ProgramHandle) error

	// DeleteProgram releases a program object. Deleting InvalidProgram is a no-op.
	DeleteProgram(program ProgramHandle)

	// AttribLocation resolves a vertex attribute slot by name, or -1 if the program has none.
	AttribLocation(program ProgramHandle, name string) int32

	// UniformLocation resolves a uniform location by name, or -1 if the program has none.
	UniformLocation(program ProgramHandle, name string) int32

	// CreateBuffer allocates a buffer for target and uploads data with static usage.
	//
	// Parameters:
	//   - target: ArrayBuffer for vertex streams, ElementArrayBuffer for indices
	//   - data: the raw bytes to upload
	//
	// Returns:
	//   - BufferHandle: the new buffer handle
	//   - error: an error if allocation failed
	CreateBuffer(target BufferTarget, data []byte) (BufferHandle, error)

	// DeleteBuffer releases a buffer. Deleting InvalidBuffer is a no-op.
	DeleteBuffer(buffer BufferHandle)

	// CreateTexture allocates an empty 2D texture object.
	CreateTexture() (TextureHandle, error)

	// UploadTexture replaces level 0 of the texture with img, resizing storage as needed.
	UploadTexture(texture TextureHandle, img *image.RGBA) error

	// GenerateMipmaps builds the full mipmap chain from the current level 0 contents.
	GenerateMipmaps(texture TextureHandle) error

	// SetSampler applies wrap and filter parameters to a texture.
	SetSampler(texture TextureHandle, sampler SamplerState) error

	// DeleteTexture releases a texture. Deleting InvalidTexture is a no-op.
	DeleteTexture(texture TextureHandle)

	// BeginFrame prepares the default framebuffer for drawing: viewport, clear and depth state.
	//
	// Parameters:
	//   - width: drawable width in pixels
	//   - height: drawable height in pixels
	//   - clear: the clear color and depth configuration
	//
	// Returns:
	//   - error: an error if the frame target could not be acquired (the frame should be skipped)
	BeginFrame(width, height int, clear ClearState) error

	// BindVertexAttribute binds buffer as a tightly packed float32 stream with components
	// elements per vertex to the attribute slot. A slot of -1 is ignored.
	BindVertexAttribute(slot int32, buffer BufferHandle, components int32)

	// UseProgram makes program current for subsequent uniform uploads and draws.
	UseProgram(program ProgramHandle)

	// SetUniformMatrix4 uploads a column-major 4x4 matrix. A location of -1 is ignored.
	SetUniformMatrix4(location int32, m mgl32.Mat4)

	// SetUniformInt uploads a single integer (sampler unit). A location of -1 is ignored.
	SetUniformInt(location int32, value int32)

	// BindTexture binds texture to the given texture unit.
	BindTexture(unit uint32, texture TextureHandle)

	// DrawIndexed draws count indices of the given type from buffer as a triangle list.
	DrawIndexed(buffer BufferHandle, count int32, indexType IndexType)

	// EndFrame finishes the frame and presents it to the surface.
	EndFrame() error

	// Release frees every object still owned by the backend and its context.
	Release()
}
