// annotations.go defines the annotation types, argument constants and parser for the
// oxy shader pre-processor. Annotations are single-line comments prefixed with @oxy: that
// inject shared snippets (the lighting constants, the uniform block, the vertex inputs) and
// generate WGSL resource declarations, so the GLSL and WGSL cube shaders cannot drift apart.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an oxy annotation within a comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "//@oxy:"

// AnnotationType identifies the kind of annotation parsed from a comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects a registered snippet at the annotation site, keeping the
	// annotation's indentation.
	//
	// Syntax: //@oxy:include <snippet>
	//
	// Example: //@oxy:include lighting
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration and is
	// recorded in the pre-processor's declarations list. WGSL only.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 uniform uniforms uniforms
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = snippet key (e.g. "lighting")
	//   - group:   [0] = address space, [1] = var name, [2] = type key
	Args []AnnotationArg

	// Line is the 1-based source line the annotation was found on.
	Line int

	// Group is the @group index for group annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group annotations. Nil for include annotations.
	Binding *int

	// indent is the leading whitespace of the annotation line.
	indent string
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// Snippet and type keys.
const (
	// AnnotationArgLighting is the ambient + directional light constants.
	AnnotationArgLighting AnnotationArg = "lighting"

	// AnnotationArgUniforms is the Uniforms struct holding the three matrices.
	AnnotationArgUniforms AnnotationArg = "uniforms"

	// AnnotationArgVertex is the VertexInput struct with the three attribute locations.
	AnnotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgTexture2D is a filterable 2D float texture.
	AnnotationArgTexture2D AnnotationArg = "texture_2d"

	// AnnotationArgSampler is a filtering sampler.
	AnnotationArgSampler AnnotationArg = "sampler"
)

// Address spaces accepted by @oxy:group.
const (
	// AnnotationArgSpaceUniform maps to var<uniform>.
	AnnotationArgSpaceUniform AnnotationArg = "uniform"

	// AnnotationArgSpaceHandle maps to a plain var, used for textures and samplers.
	AnnotationArgSpaceHandle AnnotationArg = "handle"
)

var validAddressSpaces = []AnnotationArg{
	AnnotationArgSpaceUniform,
	AnnotationArgSpaceHandle,
}

// parseAnnotation attempts to parse a single source line as an @oxy: annotation.
// Returns nil with no error for lines that do not start with the annotation prefix.
//
// Parameters:
//   - line: the raw source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimLeft(line, " \t")
	after, ok := strings.CutPrefix(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}
	indent := line[:len(line)-len(trimmed)]

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{
			Type:   AnnotationTypeInclude,
			Args:   []AnnotationArg{AnnotationArg(args[1])},
			Line:   lineNum,
			indent: indent,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five arguments (group, binding, address space, var name, type)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation: %v", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
			indent:  indent,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
