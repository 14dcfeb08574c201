// pre_processor.go implements the oxy shader pre-processor. It scans shader source for @oxy:
// annotations, replaces them with registered snippets or generated WGSL declarations and
// collects the generated declarations so callers can check them against a pipeline layout.
package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed shaders/include/lighting.glsl
var lightingGLSL string

//go:embed shaders/include/lighting.wgsl
var lightingWGSL string

//go:embed shaders/include/uniforms.wgsl
var uniformsWGSL string

//go:embed shaders/include/vertex_input.wgsl
var vertexInputWGSL string

// registryEntry pairs a snippet with the type name emitted for it in @oxy:group declarations.
type registryEntry struct {
	// Source is the snippet text injected by @oxy:include. Empty for types that cannot be included.
	Source string

	// Type is the type name emitted in @oxy:group declarations (e.g. "Uniforms", "sampler").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	lang Language

	// registry maps argument keys to their snippet and type name for lang.
	registry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var syntax.
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in shader source.
type PreProcessor interface {
	// Process replaces @oxy:include annotations with the registered snippet and @oxy:group
	// annotations with generated WGSL declarations. The declarations list is reset at the start
	// of each call.
	//
	// Parameters:
	//   - source: shader source containing annotations
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error if an annotation is malformed, unknown for the language or names an
	//     unregistered snippet
	Process(source string) (string, error)

	// Declarations returns the group annotations collected by the most recent Process call, in
	// source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the snippets registered for lang.
//
// Parameters:
//   - lang: the shading language of the sources that will be processed
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(lang Language) PreProcessor {
	p := &preProcessor{
		lang: lang,
		addressSpaceRegistry: map[AnnotationArg]string{
			AnnotationArgSpaceUniform: "var<uniform>",
			AnnotationArgSpaceHandle:  "var",
		},
	}
	switch lang {
	case LanguageWGSL:
		p.registry = map[AnnotationArg]registryEntry{
			AnnotationArgLighting:  {Source: lightingWGSL},
			AnnotationArgUniforms:  {Source: uniformsWGSL, Type: "Uniforms"},
			AnnotationArgVertex:    {Source: vertexInputWGSL, Type: "VertexInput"},
			AnnotationArgTexture2D: {Type: "texture_2d<f32>"},
			AnnotationArgSampler:   {Type: "sampler"},
		}
	default:
		p.registry = map[AnnotationArg]registryEntry{
			AnnotationArgLighting: {Source: lightingGLSL},
		}
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			entry, ok := p.registry[a.Args[0]]
			if !ok || entry.Source == "" {
				return "", fmt.Errorf("line %d: unknown %s snippet %q in @oxy include annotation", a.Line, p.lang, a.Args[0])
			}
			for _, s := range strings.Split(strings.TrimRight(entry.Source, "\n"), "\n") {
				if s == "" {
					out = append(out, s)
					continue
				}
				out = append(out, a.indent+s)
			}
		case AnnotationTypeBindingGroup:
			if p.lang != LanguageWGSL {
				return "", fmt.Errorf("line %d: @oxy group annotations are only valid in wgsl", a.Line)
			}
			entry, ok := p.registry[a.Args[2]]
			if !ok || entry.Type == "" {
				return "", fmt.Errorf("line %d: unknown type %q in @oxy group annotation", a.Line, a.Args[2])
			}
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			out = append(out, fmt.Sprintf("%s@group(%d) @binding(%d) %s %s: %s;", a.indent, *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", a.Line, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
