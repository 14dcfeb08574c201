package renderer

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSurface struct {
	width, height int
}

func (s fixedSurface) Width() int  { return s.width }
func (s fixedSurface) Height() int { return s.height }

func newBackend() *gputest.Backend {
	b := gputest.New()
	b.Attributes[shader.AttribVertexPosition] = 0
	b.Attributes[shader.AttribVertexNormal] = 1
	b.Attributes[shader.AttribTextureCoord] = 2
	b.Uniforms[shader.UniformProjectionMatrix] = 0
	b.Uniforms[shader.UniformModelViewMatrix] = 1
	b.Uniforms[shader.UniformNormalMatrix] = 2
	b.Uniforms[shader.UniformSampler] = 3
	return b
}

func newTestRenderer(t *testing.T, b gpu.Backend, options ...RendererBuilderOption) Renderer {
	t.Helper()
	opts := append([]RendererBuilderOption{
		WithBackend(b),
		WithTextureSource(filepath.Join(t.TempDir(), "missing.png")),
	}, options...)
	return NewRenderer(fixedSurface{640, 480}, opts...)
}

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		in   string
		want RendererBackendType
	}{
		{"gl", BackendTypeGL},
		{"OpenGL", BackendTypeGL},
		{" wgpu ", BackendTypeWGPU},
		{"webgpu", BackendTypeWGPU},
	}
	for _, tt := range tests {
		got, err := ParseBackendType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseBackendType("vulkan")
	assert.ErrorIs(t, err, gpu.ErrUnknownBackend)
}

func TestBackendLanguage(t *testing.T) {
	assert.Equal(t, shader.LanguageGLSL, BackendTypeGL.Language())
	assert.Equal(t, shader.LanguageWGSL, BackendTypeWGPU.Language())
	assert.Equal(t, "wgpu", BackendTypeWGPU.String())
}

func TestInitOrder(t *testing.T) {
	b := newBackend()
	r := newTestRenderer(t, b)
	require.NoError(t, r.Init(context.Background()))

	ops := b.Ops()
	link := slices.Index(ops, "LinkProgram")
	buffer := slices.Index(ops, "CreateBuffer")
	tex := slices.Index(ops, "CreateTexture")
	require.NotEqual(t, -1, link)
	assert.Equal(t, "CreateShader", ops[0])
	assert.Less(t, link, buffer, "program is linked before geometry is uploaded")
	assert.Less(t, buffer, tex, "geometry is uploaded before the texture is created")
	assert.NotNil(t, r.Texture())
	assert.Same(t, b, r.Backend())
}

func TestInitTwice(t *testing.T) {
	r := newTestRenderer(t, newBackend())
	require.NoError(t, r.Init(context.Background()))
	assert.ErrorIs(t, r.Init(context.Background()), ErrAlreadyInitialized)
}

func TestInitCompileFailureAborts(t *testing.T) {
	b := newBackend()
	b.CompileLogs[gpu.ShaderStageFragment] = "0:1: syntax error"
	r := newTestRenderer(t, b)

	err := r.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrShaderCompile)
	assert.Empty(t, b.CallsTo("CreateBuffer"), "nothing after the shader builder runs")
	assert.Empty(t, b.LiveShaders())
	assert.Nil(t, r.Texture())
	assert.ErrorIs(t, r.Tick(1), ErrNotInitialized)
}

func TestInitLinkFailureAborts(t *testing.T) {
	b := newBackend()
	b.LinkLog = "varying mismatch"
	r := newTestRenderer(t, b)

	err := r.Init(context.Background())
	assert.ErrorIs(t, err, gpu.ErrProgramLink)
	assert.Empty(t, b.CallsTo("CreateTexture"))
}

func TestInitWithoutSurface(t *testing.T) {
	r := NewRenderer(nil, WithBackend(newBackend()))
	assert.ErrorIs(t, r.Init(context.Background()), gpu.ErrNoSurface)
}

func TestInitBackendNeedsContext(t *testing.T) {
	for _, bt := range []RendererBackendType{BackendTypeGL, BackendTypeWGPU} {
		t.Run(bt.String(), func(t *testing.T) {
			r := NewRenderer(fixedSurface{640, 480}, WithBackendType(bt))
			assert.ErrorIs(t, r.Init(context.Background()), gpu.ErrNoSurface)
		})
	}
}

func TestTickDrawsAndAdvances(t *testing.T) {
	b := newBackend()
	r := newTestRenderer(t, b)
	require.NoError(t, r.Init(context.Background()))
	b.Reset()

	require.NoError(t, r.Tick(2.0))
	require.NoError(t, r.Tick(2.5))

	assert.Len(t, b.CallsTo("DrawIndexed"), 2)
	assert.Equal(t, 2.5, r.State().LastTimestamp)
}

func TestReleaseKeepsInjectedBackend(t *testing.T) {
	b := newBackend()
	r := newTestRenderer(t, b)
	require.NoError(t, r.Init(context.Background()))
	b.Reset()

	r.Release()

	assert.Len(t, b.CallsTo("DeleteTexture"), 1)
	assert.Len(t, b.CallsTo("DeleteProgram"), 1)
	assert.Len(t, b.CallsTo("DeleteBuffer"), 4)
	assert.False(t, b.Released())
	assert.ErrorIs(t, r.Tick(3), ErrNotInitialized)
}

func TestRendererIDsAreUnique(t *testing.T) {
	a := NewRenderer(fixedSurface{1, 1})
	b := NewRenderer(fixedSurface{1, 1})
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, a.ID(), 36)
}

func TestWGPUOptionsAreRecorded(t *testing.T) {
	r := NewRenderer(fixedSurface{1, 1}).(*renderer)
	assert.Equal(t, gpu.MSAAOff, r.msaa)
	assert.False(t, r.forceFallbackAdapter)

	r = NewRenderer(fixedSurface{1, 1}, WithMSAA(gpu.MSAA4x), WithForceSoftwareRenderer(true)).(*renderer)
	assert.Equal(t, gpu.MSAA4x, r.msaa)
	assert.True(t, r.forceFallbackAdapter)
}

func TestRunBeforeInit(t *testing.T) {
	r := newTestRenderer(t, newBackend())
	assert.ErrorIs(t, r.Run(context.Background(), frame.NewClock()), ErrNotInitialized)
}

func TestRunForwardsOptionsToDriver(t *testing.T) {
	b := newBackend()
	r := newTestRenderer(t, b)
	require.NoError(t, r.Init(context.Background()))
	b.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var frames int
	err := r.Run(ctx, frame.ClockFunc(func() float64 { return float64(frames) }),
		frame.WithAfterFrame(func(float64) {
			frames++
			if frames == 4 {
				cancel()
			}
		}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, b.CallsTo("DrawIndexed"), 4)
	assert.Equal(t, 3.0, r.State().LastTimestamp)
}
