package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
)

// Names the cube shaders expose. Every backend resolves these through its own reflection.
const (
	AttribVertexPosition = "aVertexPosition"
	AttribVertexNormal   = "aVertexNormal"
	AttribTextureCoord   = "aTextureCoord"

	UniformProjectionMatrix = "uProjectionMatrix"
	UniformModelViewMatrix  = "uModelViewMatrix"
	UniformNormalMatrix     = "uNormalMatrix"
	UniformSampler          = "uSampler"
)

// Attributes holds the vertex attribute slots of a linked program. A slot of -1 means the
// program does not consume that stream.
type Attributes struct {
	VertexPosition int32
	VertexNormal   int32
	TextureCoord   int32
}

// Uniforms holds the uniform locations of a linked program. A location of -1 means the
// program has no such uniform, usually because the compiler stripped it.
type Uniforms struct {
	ProjectionMatrix int32
	ModelViewMatrix  int32
	NormalMatrix     int32
	Sampler          int32
}

// ShaderProgram is a linked GPU program and the locations resolved from it.
// It is created once by BuildProgram and never mutated afterwards.
type ShaderProgram struct {
	Program    gpu.ProgramHandle
	Attributes Attributes
	Uniforms   Uniforms
}

// BuildProgram compiles vertexSource and fragmentSource, links them into a program and resolves
// every attribute and uniform location by name.
//
// Both shader objects are released before returning whether or not linking succeeds, and a
// failed program is released as well, so no GPU object leaks on any error path.
//
// Parameters:
//   - backend: the GPU backend that owns the program
//   - vertexSource: vertex stage source in the backend's shading language
//   - fragmentSource: fragment stage source in the backend's shading language
//
// Returns:
//   - *ShaderProgram: the linked program with resolved locations
//   - error: an error wrapping gpu.ErrShaderCompile or gpu.ErrProgramLink on failure
func BuildProgram(backend gpu.Backend, vertexSource, fragmentSource string) (*ShaderProgram, error) {
	vs, err := loadShader(backend, gpu.ShaderStageVertex, vertexSource)
	if err != nil {
		return nil, err
	}
	fs, err := loadShader(backend, gpu.ShaderStageFragment, fragmentSource)
	if err != nil {
		backend.DeleteShader(vs)
		return nil, err
	}
	// A linked program keeps its own reference to the compiled code.
	defer backend.DeleteShader(vs)
	defer backend.DeleteShader(fs)

	program, err := backend.CreateProgram()
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	backend.AttachShader(program, vs)
	backend.AttachShader(program, fs)

	if err := backend.LinkProgram(program); err != nil {
		backend.DeleteProgram(program)
		common.LogError("unable to initialize the shader program: %v", err)
		return nil, fmt.Errorf("failed to link program: %w", err)
	}

	sp := &ShaderProgram{
		Program: program,
		Attributes: Attributes{
			VertexPosition: attribLocation(backend, program, AttribVertexPosition),
			VertexNormal:   attribLocation(backend, program, AttribVertexNormal),
			TextureCoord:   attribLocation(backend, program, AttribTextureCoord),
		},
		Uniforms: Uniforms{
			ProjectionMatrix: uniformLocation(backend, program, UniformProjectionMatrix),
			ModelViewMatrix:  uniformLocation(backend, program, UniformModelViewMatrix),
			NormalMatrix:     uniformLocation(backend, program, UniformNormalMatrix),
			Sampler:          uniformLocation(backend, program, UniformSampler),
		},
	}
	return sp, nil
}

// loadShader creates and compiles one stage, releasing it again if compilation fails.
func loadShader(backend gpu.Backend, stage gpu.ShaderStage, source string) (gpu.ShaderHandle, error) {
	s, err := backend.CreateShader(stage)
	if err != nil {
		return gpu.InvalidShader, fmt.Errorf("failed to create %s shader: %w", stage, err)
	}
	if err := backend.CompileShader(s, source); err != nil {
		backend.DeleteShader(s)
		common.LogError("an error occurred compiling the %s shader: %v", stage, err)
		return gpu.InvalidShader, fmt.Errorf("failed to compile %s shader: %w", stage, err)
	}
	return s, nil
}

func attribLocation(backend gpu.Backend, program gpu.ProgramHandle, name string) int32 {
	loc := backend.AttribLocation(program, name)
	if loc < 0 {
		common.LogDebug("program %d has no active attribute %q", program, name)
	}
	return loc
}

func uniformLocation(backend gpu.Backend, program gpu.ProgramHandle, name string) int32 {
	loc := backend.UniformLocation(program, name)
	if loc < 0 {
		common.LogDebug("program %d has no active uniform %q", program, name)
	}
	return loc
}

// Release deletes the linked program.
func (sp *ShaderProgram) Release(backend gpu.Backend) {
	if sp.Program != gpu.InvalidProgram {
		backend.DeleteProgram(sp.Program)
		sp.Program = gpu.InvalidProgram
	}
}
