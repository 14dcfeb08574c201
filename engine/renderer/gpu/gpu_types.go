package gpu

import "fmt"

// ShaderHandle identifies a shader object owned by a Backend. Zero is never a valid shader.
type ShaderHandle uint32

// ProgramHandle identifies a linked program owned by a Backend. Zero is never a valid program.
type ProgramHandle uint32

// BufferHandle identifies a GPU buffer owned by a Backend. Zero is never a valid buffer.
type BufferHandle uint32

// TextureHandle identifies a texture owned by a Backend. Zero is never a valid texture.
type TextureHandle uint32

const (
	InvalidShader  ShaderHandle  = 0
	InvalidProgram ProgramHandle = 0
	InvalidBuffer  BufferHandle  = 0
	InvalidTexture TextureHandle = 0
)

// MissingLocation is returned for attribute and uniform names a program does not expose.
const MissingLocation int32 = -1

// ShaderStage selects the pipeline stage a shader runs in.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

// BufferTarget selects how a buffer is bound.
type BufferTarget int

const (
	// ArrayBuffer holds per-vertex attribute data.
	ArrayBuffer BufferTarget = iota
	// ElementArrayBuffer holds triangle indices.
	ElementArrayBuffer
)

// IndexType is the integer width of an index buffer.
type IndexType int

const (
	IndexUint16 IndexType = iota
	IndexUint32
)

// Size returns the byte width of one index.
func (t IndexType) Size() int {
	if t == IndexUint32 {
		return 4
	}
	return 2
}

// ClearState describes how the default framebuffer is reset at the start of a frame.
type ClearState struct {
	// Color is the RGBA clear color in [0, 1].
	Color [4]float32
	// Depth is the value the depth buffer is cleared to.
	Depth float32
	// DepthTest enables depth testing with a less-or-equal comparison.
	DepthTest bool
}

// DefaultClearState clears to opaque black with depth 1 and depth testing enabled.
func DefaultClearState() ClearState {
	return ClearState{
		Color:     [4]float32{0, 0, 0, 1},
		Depth:     1,
		DepthTest: true,
	}
}
