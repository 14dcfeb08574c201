package glbackend

import (
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
)

func shaderType(stage gpu.ShaderStage) (uint32, bool) {
	switch stage {
	case gpu.ShaderStageVertex:
		return gl.VERTEX_SHADER, true
	case gpu.ShaderStageFragment:
		return gl.FRAGMENT_SHADER, true
	}
	return 0, false
}

func bufferTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func indexType(t gpu.IndexType) uint32 {
	if t == gpu.IndexUint32 {
		return gl.UNSIGNED_INT
	}
	return gl.UNSIGNED_SHORT
}

func wrapMode(w gpu.WrapMode) int32 {
	switch w {
	case gpu.WrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case gpu.WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.REPEAT
	}
}

func minFilter(f gpu.FilterMode) int32 {
	switch f {
	case gpu.FilterNearest:
		return gl.NEAREST
	case gpu.FilterNearestMipmapNearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case gpu.FilterLinearMipmapNearest:
		return gl.LINEAR_MIPMAP_NEAREST
	case gpu.FilterNearestMipmapLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	case gpu.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}

// magFilter drops the mipmap component, which GL rejects for magnification.
func magFilter(f gpu.FilterMode) int32 {
	switch f {
	case gpu.FilterNearest, gpu.FilterNearestMipmapNearest, gpu.FilterNearestMipmapLinear:
		return gl.NEAREST
	default:
		return gl.LINEAR
	}
}

// errorName returns the enum name of a glGetError code.
func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return "GL_UNKNOWN_ERROR"
	}
}
