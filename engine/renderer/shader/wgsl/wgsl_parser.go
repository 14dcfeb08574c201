// Package wgsl extracts the reflection data a WebGPU backend needs to emulate named attribute and
// uniform lookups: vertex input locations, resource bindings and uniform struct member offsets.
// It is a regex-level reader for well-formed shaders, not a validator; the GPU compiler still
// owns error reporting.
package wgsl

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> uniforms: Uniforms;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// Reflection is everything Reflect could read from one WGSL module.
type Reflection struct {
	VertexEntry   string
	FragmentEntry string
	// Inputs are the vertex inputs sorted by location.
	Inputs []VertexInput
	// Bindings are sorted by group then binding.
	Bindings []Binding
	Structs  map[string]StructLayout
}

// Reflect parses source and returns its entry points, vertex inputs, bindings and struct layouts.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - Reflection: the extracted reflection data; fields are empty when not present
func Reflect(source string) Reflection {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	layouts := computeStructLayouts(structs)

	r := Reflection{
		VertexEntry:   parseEntryPoint(cleaned, vertexEntryRegex),
		FragmentEntry: parseEntryPoint(cleaned, fragmentEntryRegex),
		Structs:       layouts,
	}

	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		for _, f := range ps.fields {
			r.Inputs = append(r.Inputs, VertexInput{
				Name:       f.name,
				Location:   f.location,
				Type:       f.typeName,
				Components: vertexComponentMap[f.typeName],
			})
		}
	}
	sort.Slice(r.Inputs, func(i, j int) bool {
		return r.Inputs[i].Location < r.Inputs[j].Location
	})

	r.Bindings = parseBindings(cleaned, layouts)
	return r
}

// Input looks up a vertex input by field name.
func (r Reflection) Input(name string) (VertexInput, bool) {
	for _, in := range r.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return VertexInput{}, false
}

// Binding looks up a resource binding by variable name.
func (r Reflection) Binding(name string) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// UniformMember finds a member called name inside any uniform buffer binding.
//
// Returns:
//   - Binding: the uniform buffer binding that holds the member
//   - Member: the member with its byte offset inside the buffer
//   - bool: false if no uniform struct declares a member with that name
func (r Reflection) UniformMember(name string) (Binding, Member, bool) {
	for _, b := range r.Bindings {
		if b.Kind != BindingUniformBuffer {
			continue
		}
		sl, ok := r.Structs[b.Type]
		if !ok {
			continue
		}
		for _, m := range sl.Members {
			if m.Name == name {
				return b, m, true
			}
		}
	}
	return Binding{}, Member{}, false
}

// Merge combines the reflection of a vertex and a fragment module into one view, keeping the
// vertex module's inputs and entry and de-duplicating bindings shared by both stages.
func Merge(vertex, fragment Reflection) Reflection {
	out := Reflection{
		VertexEntry:   vertex.VertexEntry,
		FragmentEntry: fragment.FragmentEntry,
		Inputs:        vertex.Inputs,
		Structs:       make(map[string]StructLayout, len(vertex.Structs)+len(fragment.Structs)),
	}
	for k, v := range vertex.Structs {
		out.Structs[k] = v
	}
	for k, v := range fragment.Structs {
		out.Structs[k] = v
	}

	seen := make(map[[2]int]bool)
	for _, b := range append(append([]Binding{}, vertex.Bindings...), fragment.Bindings...) {
		key := [2]int{b.Group, b.Binding}
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Bindings = append(out.Bindings, b)
	}
	sortBindings(out.Bindings)
	return out
}

func parseBindings(cleaned string, layouts map[string]StructLayout) []Binding {
	var out []Binding
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		b := Binding{
			Group:   group,
			Binding: binding,
			Name:    strings.TrimSpace(match[4]),
			Type:    strings.TrimSpace(match[5]),
		}
		b.Kind = classifyResource(strings.TrimSpace(match[3]), b.Type)
		if b.Kind == BindingUniformBuffer || b.Kind == BindingStorageBuffer {
			if tl, ok := resolveTypeLayout(b.Type, layouts); ok {
				b.Size = tl.size
			}
		}
		out = append(out, b)
	}
	sortBindings(out)
	return out
}

func sortBindings(bs []Binding) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Group != bs[j].Group {
			return bs[i].Group < bs[j].Group
		}
		return bs[i].Binding < bs[j].Binding
	})
}

// classifyResource determines the resource category from the address space qualifier and
// the declared type.
func classifyResource(addressSpace, typeName string) BindingKind {
	switch {
	case addressSpace == "uniform":
		return BindingUniformBuffer
	case strings.HasPrefix(addressSpace, "storage"):
		return BindingStorageBuffer
	case addressSpace != "":
		return BindingUnknown
	case typeName == "sampler" || typeName == "sampler_comparison":
		return BindingSampler
	case strings.HasPrefix(typeName, "texture_"):
		return BindingTexture
	}
	return BindingUnknown
}

func parseEntryPoint(cleaned string, re *regexp.Regexp) string {
	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields.
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}
	return fields
}

// isVertexInputStruct returns true if the struct has at least one @location field and no
// @builtin fields, which separates vertex inputs from stage outputs carrying @builtin(position).
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets,
// so array<T, N> stays one field.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes both single-line (//) and nested block (/* */) comments.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}
