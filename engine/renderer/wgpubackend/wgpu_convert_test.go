package wgpubackend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationEncoding(t *testing.T) {
	offset, _, isBinding := decodeLocation(128)
	assert.False(t, isBinding)
	assert.Equal(t, uint64(128), offset)

	loc := encodeBindingLocation(2)
	assert.Greater(t, loc, int32(0))
	_, binding, isBinding := decodeLocation(loc)
	assert.True(t, isBinding)
	assert.Equal(t, 2, binding)
}

func TestSamplerDescriptor(t *testing.T) {
	d := samplerDescriptor("s", gpu.DefaultSamplerState())
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeU)
	assert.Equal(t, wgpu.FilterModeNearest, d.MinFilter)
	assert.Equal(t, wgpu.FilterModeLinear, d.MagFilter)
	assert.Equal(t, wgpu.MipmapFilterModeLinear, d.MipmapFilter)
	assert.Equal(t, float32(32), d.LodMaxClamp)

	clamp := samplerDescriptor("s", gpu.SamplerState{
		WrapS:     gpu.WrapClampToEdge,
		WrapT:     gpu.WrapMirroredRepeat,
		MinFilter: gpu.FilterLinear,
		MagFilter: gpu.FilterNearest,
	})
	assert.Equal(t, wgpu.AddressModeClampToEdge, clamp.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, clamp.AddressModeV)
	assert.Equal(t, wgpu.FilterModeLinear, clamp.MinFilter)
	assert.Equal(t, wgpu.FilterModeNearest, clamp.MagFilter)
	// no mipmap component: sampling stays on level 0
	assert.Equal(t, float32(0), clamp.LodMaxClamp)
}

func TestTextureDescriptor(t *testing.T) {
	d := textureDescriptor("cube", 256, 128, 9)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, d.Format, "linear like the gl backend's RGBA8")
	assert.Equal(t, wgpu.Extent3D{Width: 256, Height: 128, DepthOrArrayLayers: 1}, d.Size)
	assert.Equal(t, uint32(9), d.MipLevelCount)
	assert.Equal(t, uint32(1), d.SampleCount)
	assert.Equal(t, "cube", d.Label)
	assert.NotZero(t, d.Usage&wgpu.TextureUsageCopyDst)
}

func TestIndexFormat(t *testing.T) {
	assert.Equal(t, wgpu.IndexFormatUint16, indexFormat(gpu.IndexUint16))
	assert.Equal(t, wgpu.IndexFormatUint32, indexFormat(gpu.IndexUint32))
}

func TestVertexFormat(t *testing.T) {
	f, err := vertexFormat(3)
	require.NoError(t, err)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, f)

	_, err = vertexFormat(5)
	assert.Error(t, err)
}

func TestCubeShaderLayouts(t *testing.T) {
	src := shader.CubeSource(shader.LanguageWGSL)
	r := wgsl.Merge(wgsl.Reflect(src.Vertex), wgsl.Reflect(src.Fragment))

	layouts, err := vertexBufferLayouts(r.Inputs)
	require.NoError(t, err)
	require.Len(t, layouts, 3)
	assert.Equal(t, uint64(12), layouts[0].ArrayStride)
	assert.Equal(t, uint64(12), layouts[1].ArrayStride)
	assert.Equal(t, uint64(8), layouts[2].ArrayStride)
	assert.Equal(t, uint32(2), layouts[2].Attributes[0].ShaderLocation)

	entries, err := bindGroupLayoutEntries(r.Bindings)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, uint64(192), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[2].Sampler.Type)
}

func TestBindGroupLayoutEntriesRejectsUnsupported(t *testing.T) {
	_, err := bindGroupLayoutEntries([]wgsl.Binding{{Group: 1, Binding: 0, Name: "lights", Kind: wgsl.BindingUniformBuffer, Size: 16}})
	assert.ErrorContains(t, err, "group 1")

	_, err = bindGroupLayoutEntries([]wgsl.Binding{{Name: "lights", Type: "array<vec4f>", Kind: wgsl.BindingStorageBuffer}})
	assert.ErrorContains(t, err, "not supported")

	_, err = bindGroupLayoutEntries([]wgsl.Binding{{Name: "u", Kind: wgsl.BindingUniformBuffer}})
	assert.ErrorContains(t, err, "unknown size")
}
