package gpu

import (
	"image"
	"math/bits"

	"golang.org/x/image/draw"
)

// MipLevelCount returns the number of levels in a full mipmap chain for a w x h image,
// floor(log2(max(w, h))) + 1. Non-positive sizes yield 1.
func MipLevelCount(w, h int) int {
	m := max(w, h)
	if m <= 0 {
		return 1
	}
	return bits.Len(uint(m))
}

// BuildMipChain returns level 0 followed by every successively halved level down to 1x1.
// Each level is box-filtered from the previous one with bilinear resampling, which is what the
// desktop drivers' glGenerateMipmap does in practice and is what the WebGPU backend uploads since
// WebGPU has no built-in mip generation.
//
// Parameters:
//   - base: the level 0 image
//
// Returns:
//   - []*image.RGBA: MipLevelCount(w, h) images, base first
func BuildMipChain(base *image.RGBA) []*image.RGBA {
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	levels := MipLevelCount(w, h)
	chain := make([]*image.RGBA, 0, levels)
	chain = append(chain, base)

	prev := base
	for i := 1; i < levels; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		chain = append(chain, next)
		prev = next
	}
	return chain
}

// ToRGBA converts any decoded image to a tightly packed RGBA image anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
