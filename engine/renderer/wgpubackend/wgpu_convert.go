package wgpubackend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindingLocationFlag marks a uniform location that names a texture or sampler binding rather
// than a byte offset into the uniform buffer.
const bindingLocationFlag int32 = 1 << 16

// encodeBindingLocation returns the uniform location reported for a texture or sampler binding.
func encodeBindingLocation(binding int) int32 {
	return bindingLocationFlag | int32(binding)
}

// decodeLocation splits a uniform location into either a uniform buffer offset or a binding index.
//
// Returns:
//   - uint64: the byte offset when isBinding is false
//   - int: the binding index when isBinding is true
//   - bool: whether location names a binding
func decodeLocation(location int32) (offset uint64, binding int, isBinding bool) {
	if location&bindingLocationFlag != 0 {
		return 0, int(location &^ bindingLocationFlag), true
	}
	return uint64(location), 0, false
}

func addressMode(w gpu.WrapMode) wgpu.AddressMode {
	switch w {
	case gpu.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gpu.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

func filterMode(f gpu.FilterMode) wgpu.FilterMode {
	switch f {
	case gpu.FilterNearest, gpu.FilterNearestMipmapNearest, gpu.FilterNearestMipmapLinear:
		return wgpu.FilterModeNearest
	default:
		return wgpu.FilterModeLinear
	}
}

func mipmapFilterMode(f gpu.FilterMode) wgpu.MipmapFilterMode {
	switch f {
	case gpu.FilterNearestMipmapLinear, gpu.FilterLinearMipmapLinear:
		return wgpu.MipmapFilterModeLinear
	default:
		return wgpu.MipmapFilterModeNearest
	}
}

// samplerDescriptor maps a GL-style sampler state onto WebGPU. Filters without a mipmap component
// clamp the LOD to the base level, which is what GL does for them.
func samplerDescriptor(label string, s gpu.SamplerState) *wgpu.SamplerDescriptor {
	lodMax := float32(32)
	if !s.MinFilter.UsesMipmaps() {
		lodMax = 0
	}
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  addressMode(s.WrapS),
		AddressModeV:  addressMode(s.WrapT),
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     filterMode(s.MagFilter),
		MinFilter:     filterMode(s.MinFilter),
		MipmapFilter:  mipmapFilterMode(s.MinFilter),
		LodMinClamp:   0,
		LodMaxClamp:   lodMax,
		MaxAnisotropy: 1,
	}
}

// textureDescriptor describes a sampled RGBA8 texture. The format is linear, matching the GL
// backend's RGBA8 upload, so texel values reach the shader unconverted.
func textureDescriptor(label string, width, height, levels int) *wgpu.TextureDescriptor {
	return &wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: uint32(levels),
		SampleCount:   1,
	}
}

func indexFormat(t gpu.IndexType) wgpu.IndexFormat {
	if t == gpu.IndexUint32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}

func vertexFormat(components int) (wgpu.VertexFormat, error) {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32, nil
	case 2:
		return wgpu.VertexFormatFloat32x2, nil
	case 3:
		return wgpu.VertexFormatFloat32x3, nil
	case 4:
		return wgpu.VertexFormatFloat32x4, nil
	default:
		return wgpu.VertexFormat(0), fmt.Errorf("unsupported vertex input with %d components", components)
	}
}

// vertexBufferLayouts gives every vertex input its own tightly packed float buffer, in location
// order. The slot of an input is its index in the returned slice.
func vertexBufferLayouts(inputs []wgsl.VertexInput) ([]wgpu.VertexBufferLayout, error) {
	layouts := make([]wgpu.VertexBufferLayout, 0, len(inputs))
	for _, in := range inputs {
		format, err := vertexFormat(in.Components)
		if err != nil {
			return nil, fmt.Errorf("vertex input %s: %w", in.Name, err)
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: uint64(in.Components) * 4,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         format,
					Offset:         0,
					ShaderLocation: uint32(in.Location),
				},
			},
		})
	}
	return layouts, nil
}

// bindGroupLayoutEntries builds the group 0 layout for a program. Only the resource kinds the
// cube shaders use are supported.
func bindGroupLayoutEntries(bindings []wgsl.Binding) ([]wgpu.BindGroupLayoutEntry, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(bindings))
	for _, b := range bindings {
		if b.Group != 0 {
			return nil, fmt.Errorf("binding %s uses group %d; only group 0 is supported", b.Name, b.Group)
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(b.Binding),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		switch b.Kind {
		case wgsl.BindingUniformBuffer:
			if b.Size == 0 {
				return nil, fmt.Errorf("uniform %s has unknown size", b.Name)
			}
			entry.Buffer = wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: b.Size,
			}
		case wgsl.BindingTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case wgsl.BindingSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			}
		default:
			return nil, fmt.Errorf("binding %s of type %s is not supported", b.Name, b.Type)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
