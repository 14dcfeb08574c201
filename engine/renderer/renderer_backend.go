package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeGL selects the OpenGL 4.1 core backend.
	BackendTypeGL RendererBackendType = iota
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeGL:
		return "gl"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// Language returns the shading language the backend compiles.
func (t RendererBackendType) Language() shader.Language {
	if t == BackendTypeWGPU {
		return shader.LanguageWGSL
	}
	return shader.LanguageGLSL
}

// ParseBackendType maps a case-insensitive backend name ("gl", "opengl", "wgpu", "webgpu").
//
// Parameters:
//   - name: the backend name from config or flags
//
// Returns:
//   - RendererBackendType: the matching backend type
//   - error: an error wrapping gpu.ErrUnknownBackend for any other name
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gl", "opengl":
		return BackendTypeGL, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	}
	return 0, fmt.Errorf("%w: %q", gpu.ErrUnknownBackend, name)
}
