package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed shaders/cube.vert.glsl
var cubeVertexGLSL string

//go:embed shaders/cube.frag.glsl
var cubeFragmentGLSL string

//go:embed shaders/cube.vert.wgsl
var cubeVertexWGSL string

//go:embed shaders/cube.frag.wgsl
var cubeFragmentWGSL string

// Language identifies the shading language a backend consumes.
type Language int

const (
	LanguageGLSL Language = iota
	LanguageWGSL
)

func (l Language) String() string {
	switch l {
	case LanguageGLSL:
		return "glsl"
	case LanguageWGSL:
		return "wgsl"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// ParseLanguage maps a case-insensitive name to a Language.
func ParseLanguage(name string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "glsl":
		return LanguageGLSL, nil
	case "wgsl":
		return LanguageWGSL, nil
	}
	return 0, fmt.Errorf("unknown shading language %q", name)
}

// Source is a vertex and fragment shader pair.
type Source struct {
	Vertex   string
	Fragment string
}

// cubeSources holds the expanded cube shaders per language.
var cubeSources = map[Language]Source{
	LanguageGLSL: mustExpand(LanguageGLSL, Source{Vertex: cubeVertexGLSL, Fragment: cubeFragmentGLSL}),
	LanguageWGSL: mustExpand(LanguageWGSL, Source{Vertex: cubeVertexWGSL, Fragment: cubeFragmentWGSL}),
}

// Expand runs both stages of src through the pre-processor for lang.
//
// Parameters:
//   - lang: the shading language of src
//   - src: the annotated vertex and fragment sources
//
// Returns:
//   - Source: the expanded sources
//   - error: the first annotation error, prefixed with the stage
func Expand(lang Language, src Source) (Source, error) {
	pp := NewPreProcessor(lang)
	vertex, err := pp.Process(src.Vertex)
	if err != nil {
		return Source{}, fmt.Errorf("vertex stage: %w", err)
	}
	fragment, err := pp.Process(src.Fragment)
	if err != nil {
		return Source{}, fmt.Errorf("fragment stage: %w", err)
	}
	return Source{Vertex: vertex, Fragment: fragment}, nil
}

func mustExpand(lang Language, src Source) Source {
	out, err := Expand(lang, src)
	if err != nil {
		panic(fmt.Sprintf("embedded %s cube shader: %v", lang, err))
	}
	return out
}

// CubeSource returns the textured, directionally lit cube shaders for lang: ambient 0.3 plus a
// white light along normalize(0.85, 0.8, 0.75), modulating the sampled texel color.
func CubeSource(lang Language) Source {
	if lang == LanguageWGSL {
		return cubeSources[LanguageWGSL]
	}
	return cubeSources[LanguageGLSL]
}
