package gpu

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMipLevelCount(t *testing.T) {
	cases := []struct {
		w, h int
		want int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{1024, 512, 11},
		{100, 50, 7},
		{3, 1, 2},
		{0, 0, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MipLevelCount(c.w, c.h), "%dx%d", c.w, c.h)
	}
}

func TestBuildMipChain(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			base.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	chain := BuildMipChain(base)
	require.Len(t, chain, 4)
	assert.Same(t, base, chain[0])

	sizes := [][2]int{{8, 4}, {4, 2}, {2, 1}, {1, 1}}
	for i, lvl := range chain {
		assert.Equal(t, sizes[i][0], lvl.Bounds().Dx(), "level %d width", i)
		assert.Equal(t, sizes[i][1], lvl.Bounds().Dy(), "level %d height", i)
	}

	// a uniform image stays uniform all the way down
	px := chain[3].RGBAAt(0, 0)
	assert.InDelta(t, 200, int(px.R), 1)
	assert.InDelta(t, 100, int(px.G), 1)
	assert.InDelta(t, 50, int(px.B), 1)
	assert.InDelta(t, 255, int(px.A), 1)
}

func TestToRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(2, 2, 4, 5))
	gray.SetGray(2, 2, color.Gray{Y: 128})

	rgba := ToRGBA(gray)
	assert.Equal(t, image.Rect(0, 0, 2, 3), rgba.Bounds())
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, rgba.RGBAAt(0, 0))

	packed := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, packed, ToRGBA(packed))
}

func TestFilterUsesMipmaps(t *testing.T) {
	assert.False(t, FilterNearest.UsesMipmaps())
	assert.False(t, FilterLinear.UsesMipmaps())
	assert.True(t, FilterNearestMipmapLinear.UsesMipmaps())
	assert.True(t, DefaultSamplerState().MinFilter.UsesMipmaps())
	assert.False(t, PlaceholderSamplerState().MinFilter.UsesMipmaps())
}

func TestErrorsWrapSentinels(t *testing.T) {
	var err error = &CompileError{Stage: ShaderStageFragment, Log: "0:1: syntax error"}
	assert.True(t, errors.Is(err, ErrShaderCompile))
	assert.Contains(t, err.Error(), "fragment")
	assert.Contains(t, err.Error(), "syntax error")

	err = &LinkError{Log: "varying mismatch"}
	assert.True(t, errors.Is(err, ErrProgramLink))
	assert.False(t, errors.Is(err, ErrShaderCompile))
}

func TestIndexTypeSize(t *testing.T) {
	assert.Equal(t, 2, IndexUint16.Size())
	assert.Equal(t, 4, IndexUint32.Size())
}
