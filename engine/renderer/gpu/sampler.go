package gpu

// WrapMode controls how texture coordinates outside [0, 1] are resolved.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// FilterMode selects texel filtering. The mipmap variants are only meaningful for minification.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapNearest
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear
)

// UsesMipmaps reports whether the filter samples from mip levels other than 0.
func (f FilterMode) UsesMipmaps() bool {
	return f >= FilterNearestMipmapNearest
}

// SamplerState is the full set of sampling parameters applied to a texture.
type SamplerState struct {
	WrapS     WrapMode
	WrapT     WrapMode
	MinFilter FilterMode
	MagFilter FilterMode
}

// DefaultSamplerState mirrors the initial state of a freshly created OpenGL texture:
// repeat wrapping, nearest-mipmap-linear minification and linear magnification.
func DefaultSamplerState() SamplerState {
	return SamplerState{
		WrapS:     WrapRepeat,
		WrapT:     WrapRepeat,
		MinFilter: FilterNearestMipmapLinear,
		MagFilter: FilterLinear,
	}
}

// PlaceholderSamplerState is used for textures without a mip chain, such as the 1x1 placeholder.
func PlaceholderSamplerState() SamplerState {
	return SamplerState{
		WrapS:     WrapRepeat,
		WrapT:     WrapRepeat,
		MinFilter: FilterLinear,
		MagFilter: FilterLinear,
	}
}
