package wgsl

// BindingKind classifies a @group/@binding resource declaration.
type BindingKind int

const (
	BindingUnknown BindingKind = iota
	BindingUniformBuffer
	BindingStorageBuffer
	BindingTexture
	BindingSampler
)

// VertexInput is one @location field of a vertex input struct.
type VertexInput struct {
	Name       string
	Location   int
	Type       string
	Components int
}

// Binding is one @group(G) @binding(B) var declaration.
type Binding struct {
	Group   int
	Binding int
	Name    string
	Type    string
	Kind    BindingKind
	// Size is the byte size of the bound buffer type, 0 for textures and samplers.
	Size uint64
}

// Member is a laid-out field of a host-shareable struct.
type Member struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// StructLayout is the computed memory layout of a struct per WGSL alignment rules.
type StructLayout struct {
	Name    string
	Size    uint64
	Align   uint64
	Members []Member
}

// typeLayout holds the byte size and alignment for a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing.
type parsedStruct struct {
	name   string
	fields []parsedField
}
