package texture

import "github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"

// IsPowerOf2 reports whether n&(n-1) == 0. This also holds for n == 0, which no decoded
// image produces.
func IsPowerOf2(n int) bool {
	return n&(n-1) == 0
}

// MipLevelCount returns floor(log2(max(w, h))) + 1, the length of a full mipmap chain.
func MipLevelCount(w, h int) int {
	return gpu.MipLevelCount(w, h)
}

// Policy is the one-time filtering decision made when an image finishes loading.
type Policy struct {
	// Mipmaps requests a full mip chain after upload.
	Mipmaps bool
	// Levels is the mip chain length, 1 when Mipmaps is false.
	Levels  int
	Sampler gpu.SamplerState
}

// SamplerFor picks the filtering policy for a w x h image. Power-of-two images get a full mip
// chain and keep the default repeat wrapping and mipmapped minification. Anything else is
// clamped to the edge on both axes and minified linearly without mipmaps, since neither
// mipmaps nor repeat wrapping are guaranteed for such sizes on every backend.
func SamplerFor(w, h int) Policy {
	if IsPowerOf2(w) && IsPowerOf2(h) {
		return Policy{
			Mipmaps: true,
			Levels:  MipLevelCount(w, h),
			Sampler: gpu.DefaultSamplerState(),
		}
	}
	return Policy{
		Mipmaps: false,
		Levels:  1,
		Sampler: gpu.SamplerState{
			WrapS:     gpu.WrapClampToEdge,
			WrapT:     gpu.WrapClampToEdge,
			MinFilter: gpu.FilterLinear,
			MagFilter: gpu.FilterLinear,
		},
	}
}
