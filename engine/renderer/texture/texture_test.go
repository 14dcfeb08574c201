package texture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// pollUntilDone drives Poll the way the frame driver would until the load resolves.
func pollUntilDone(t *testing.T, tex *Texture) LoadResult {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		tex.Poll()
		select {
		case <-tex.Done():
			res, ok := tex.Result()
			require.True(t, ok)
			return res
		case <-deadline:
			t.Fatal("texture load did not finish")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestIsPowerOf2(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16, 1024} {
		assert.True(t, IsPowerOf2(n), "%d", n)
	}
	for _, n := range []int{3, 5, 6, 100} {
		assert.False(t, IsPowerOf2(n), "%d", n)
	}
	assert.True(t, IsPowerOf2(0), "zero satisfies n&(n-1)==0")
}

func TestSamplerForPowerOfTwo(t *testing.T) {
	p := SamplerFor(2, 2)
	assert.True(t, p.Mipmaps)
	assert.Equal(t, 2, p.Levels)
	assert.Equal(t, gpu.WrapRepeat, p.Sampler.WrapS)
	assert.Equal(t, gpu.WrapRepeat, p.Sampler.WrapT)
	assert.Equal(t, gpu.DefaultSamplerState(), p.Sampler)

	assert.Equal(t, 11, SamplerFor(1024, 256).Levels)
}

func TestSamplerForNonPowerOfTwo(t *testing.T) {
	for _, size := range [][2]int{{100, 50}, {64, 48}, {3, 4}} {
		p := SamplerFor(size[0], size[1])
		assert.False(t, p.Mipmaps, "%v", size)
		assert.Equal(t, 1, p.Levels)
		assert.Equal(t, gpu.WrapClampToEdge, p.Sampler.WrapS)
		assert.Equal(t, gpu.WrapClampToEdge, p.Sampler.WrapT)
		assert.Equal(t, gpu.FilterLinear, p.Sampler.MinFilter)
		assert.False(t, p.Sampler.MinFilter.UsesMipmaps())
	}
}

func TestMipLevelCount(t *testing.T) {
	assert.Equal(t, 1, MipLevelCount(1, 1))
	assert.Equal(t, 2, MipLevelCount(2, 2))
	assert.Equal(t, 9, MipLevelCount(256, 128))
}

func TestLoadUploadsPlaceholderImmediately(t *testing.T) {
	b := gputest.New()
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tex, err := Load(ctx, b, srv.URL+"/slow.png")
	require.NoError(t, err)

	state, ok := b.Texture(tex.Handle)
	require.True(t, ok)
	require.NotNil(t, state.Image)
	assert.Equal(t, 1, state.Image.Bounds().Dx())
	assert.Equal(t, 1, state.Image.Bounds().Dy())
	assert.Equal(t, []uint8{0, 0, 255, 255}, state.Image.Pix)
	assert.Equal(t, gpu.PlaceholderSamplerState(), state.Sampler)

	_, done := tex.Result()
	assert.False(t, done)
	assert.False(t, tex.Poll())
}

func TestLoadPowerOfTwoFromFile(t *testing.T) {
	b := gputest.New()
	path := writeFile(t, "bee.png", encodePNG(t, 2, 2))

	tex, err := Load(context.Background(), b, path)
	require.NoError(t, err)

	res := pollUntilDone(t, tex)
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 2, res.Height)
	assert.True(t, res.Mipmapped)

	state, _ := b.Texture(tex.Handle)
	assert.True(t, state.Mipmapped)
	assert.Equal(t, 2, state.Uploads)
	assert.Equal(t, 2, state.Image.Bounds().Dx())
	assert.Equal(t, gpu.DefaultSamplerState(), state.Sampler)
}

func TestLoadNonPowerOfTwoOverHTTP(t *testing.T) {
	b := gputest.New()
	data := encodePNG(t, 100, 50)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	tex, err := Load(context.Background(), b, srv.URL+"/assets/data/bee.png", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	res := pollUntilDone(t, tex)
	require.NoError(t, res.Err)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.False(t, res.Mipmapped)

	state, _ := b.Texture(tex.Handle)
	assert.False(t, state.Mipmapped)
	assert.Equal(t, gpu.WrapClampToEdge, state.Sampler.WrapS)
	assert.Equal(t, gpu.WrapClampToEdge, state.Sampler.WrapT)
	assert.Equal(t, gpu.FilterLinear, state.Sampler.MinFilter)
	assert.Empty(t, b.CallsTo("GenerateMipmaps"))
}

func TestLoadFileURL(t *testing.T) {
	b := gputest.New()
	path := writeFile(t, "tile.png", encodePNG(t, 4, 4))

	tex, err := Load(context.Background(), b, "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	res := pollUntilDone(t, tex)
	require.NoError(t, res.Err)
	assert.Equal(t, 4, res.Width)
}

func TestLoadDecodeFailureKeepsPlaceholder(t *testing.T) {
	b := gputest.New()
	path := writeFile(t, "broken.jpg", []byte("definitely not an image"))

	tex, err := Load(context.Background(), b, path)
	require.NoError(t, err)

	res, err := tex.Wait(contextWithTimeout(t))
	require.NoError(t, err)
	require.Error(t, res.Err)

	// nothing is pending, so polling leaves the placeholder alone
	assert.False(t, tex.Poll())
	state, _ := b.Texture(tex.Handle)
	assert.Equal(t, 1, state.Uploads)
	assert.Equal(t, []uint8{0, 0, 255, 255}, state.Image.Pix)
	assert.False(t, state.Mipmapped)
}

func TestLoadMissingFile(t *testing.T) {
	b := gputest.New()
	tex, err := Load(context.Background(), b, filepath.Join(t.TempDir(), "missing.png"))
	require.NoError(t, err)

	res, err := tex.Wait(contextWithTimeout(t))
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Err, os.ErrNotExist))
}

func TestLoadHTTPStatusFailure(t *testing.T) {
	b := gputest.New()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tex, err := Load(context.Background(), b, srv.URL+"/nope.png")
	require.NoError(t, err)

	res, err := tex.Wait(contextWithTimeout(t))
	require.NoError(t, err)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "404")
}

func TestLoadCancelledContext(t *testing.T) {
	b := gputest.New()
	path := writeFile(t, "bee.png", encodePNG(t, 2, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tex, err := Load(ctx, b, path)
	require.NoError(t, err)

	res, err := tex.Wait(contextWithTimeout(t))
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Err, context.Canceled))
}

func TestWaitHonoursCallerContext(t *testing.T) {
	b := gputest.New()
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	loadCtx, cancelLoad := context.WithCancel(context.Background())
	defer cancelLoad()
	tex, err := Load(loadCtx, b, srv.URL+"/slow.png")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tex.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLoadCreateTextureFailure(t *testing.T) {
	b := gputest.New()
	b.TextureErr = errors.New("no memory")

	tex, err := Load(context.Background(), b, "unused.png")
	assert.Nil(t, tex)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no memory")
}

func TestRelease(t *testing.T) {
	b := gputest.New()
	tex, err := Load(context.Background(), b, filepath.Join(t.TempDir(), "missing.png"))
	require.NoError(t, err)
	h := tex.Handle

	tex.Release()
	tex.Release()
	state, _ := b.Texture(h)
	assert.True(t, state.Deleted)
	assert.Len(t, b.CallsTo("DeleteTexture"), 1)
}

func contextWithTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDefaultPoolOutlivesIdleTimeout(t *testing.T) {
	pool := DefaultPool()
	require.Same(t, pool, DefaultPool())
	assert.Equal(t, 2, pool.GetMaxWorkers())

	time.Sleep(1500 * time.Millisecond)

	done := make(chan struct{})
	pool.SubmitTask(worker.Task{Do: func() (any, error) {
		close(done)
		return nil, nil
	}})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("decode pool had no live workers after a second of idleness")
	}
}
