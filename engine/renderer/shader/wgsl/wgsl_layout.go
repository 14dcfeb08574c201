package wgsl

import (
	"strconv"
	"strings"
)

// primitiveLayoutMap maps WGSL scalar, vector and matrix type names to their byte size and
// alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var primitiveLayoutMap = map[string]typeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	// matCxR<f32>: C columns of vecR<f32>
	"mat2x2<f32>": {16, 8},
	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
	"mat3x3f":     {48, 16},
}

// vertexComponentMap maps vertex attribute types to their float/int component count.
var vertexComponentMap = map[string]int{
	"f32":       1,
	"i32":       1,
	"u32":       1,
	"vec2f":     2,
	"vec2<f32>": 2,
	"vec3f":     3,
	"vec3<f32>": 3,
	"vec4f":     4,
	"vec4<f32>": 4,
	"vec2i":     2,
	"vec2<i32>": 2,
	"vec3i":     3,
	"vec3<i32>": 3,
	"vec4i":     4,
	"vec4<i32>": 4,
	"vec2u":     2,
	"vec2<u32>": 2,
	"vec3u":     3,
	"vec3<u32>": 3,
	"vec4u":     4,
	"vec4<u32>": 4,
}

// roundUpAlign rounds value up to the next multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives
// and previously-computed struct layouts. Handles fixed-size arrays (array<T, N>) and returns
// false for runtime-sized arrays or unknown types.
//
// Parameters:
//   - typeName: the WGSL type name to resolve, e.g. "f32", "Uniforms", "array<vec4f, 6>"
//   - known: already-resolved struct layouts keyed by name
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: true if the type could be resolved
func resolveTypeLayout(typeName string, known map[string]StructLayout) (typeLayout, bool) {
	if layout, ok := primitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if sl, ok := known[typeName]; ok {
		return typeLayout{sl.Size, sl.Align}, true
	}

	if strings.HasPrefix(typeName, "array<") && strings.HasSuffix(typeName, ">") {
		inner := typeName[6 : len(typeName)-1]
		elemType, countStr, fixed := strings.Cut(inner, ",")
		if !fixed {
			return typeLayout{}, false
		}
		elem, ok := resolveTypeLayout(strings.TrimSpace(elemType), known)
		if !ok {
			return typeLayout{}, false
		}
		count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		stride := roundUpAlign(elem.align, elem.size)
		return typeLayout{count * stride, elem.align}, true
	}

	return typeLayout{}, false
}

// computeStructLayout lays out a single struct: each field sits at the next offset aligned to
// the field's alignment, and the total size is rounded up to the largest field alignment.
// Builtin fields are skipped as they are not part of any buffer.
func computeStructLayout(ps parsedStruct, known map[string]StructLayout) (StructLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)
	members := make([]Member, 0, len(ps.fields))

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(field.typeName, known)
		if !ok {
			return StructLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset)
		members = append(members, Member{
			Name:   field.name,
			Type:   field.typeName,
			Offset: offset,
			Size:   fl.size,
		})
		offset += fl.size
		maxAlign = max(maxAlign, fl.align)
	}

	return StructLayout{
		Name:    ps.name,
		Size:    roundUpAlign(maxAlign, offset),
		Align:   maxAlign,
		Members: members,
	}, true
}

// computeStructLayouts resolves every struct, iterating until no more progress is made so
// structs may reference structs declared after them.
func computeStructLayouts(structs []parsedStruct) map[string]StructLayout {
	resolved := make(map[string]StructLayout, len(structs))
	remaining := make([]parsedStruct, len(structs))
	copy(remaining, structs)

	for {
		progress := false
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
				progress = true
			} else {
				next = append(next, ps)
			}
		}
		remaining = next
		if !progress || len(remaining) == 0 {
			break
		}
	}
	return resolved
}
