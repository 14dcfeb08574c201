package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
)

// PlaceholderColor is the single opaque blue texel shown until the real image is uploaded.
var PlaceholderColor = [4]uint8{0, 0, 255, 255}

// ErrEmptyImage is reported when a source decodes to an image with no pixels.
var ErrEmptyImage = errors.New("decoded image has no pixels")

// LoadResult describes how a texture load finished.
type LoadResult struct {
	Width     int
	Height    int
	Mipmapped bool
	// Err is nil when the decoded image is on the GPU. Otherwise the placeholder stays bound.
	Err error
}

// Texture is a GPU texture whose contents start as a 1x1 placeholder and are replaced once the
// source image has been fetched and decoded off the render goroutine.
//
// Fetching and decoding run on a worker pool; the GPU upload happens in Poll, which the frame
// driver calls from the goroutine that owns the backend.
type Texture struct {
	Handle gpu.TextureHandle
	Source string

	backend gpu.Backend

	mu      sync.Mutex
	pending *image.RGBA

	done     chan struct{}
	doneOnce sync.Once
	result   LoadResult
}

var taskIDs atomic.Int64

// Load allocates a texture, uploads the placeholder texel and starts fetching source in the
// background. It returns as soon as the placeholder is on the GPU.
//
// Parameters:
//   - ctx: cancels the background fetch; a cancelled load resolves with ctx.Err()
//   - backend: the GPU backend that owns the texture; only touched from the calling goroutine and Poll
//   - source: a filesystem path, file:// URL or http(s):// URL
//   - options: loader options such as a worker pool or HTTP client
//
// Returns:
//   - *Texture: the texture, immediately usable for drawing
//   - error: an error if the texture or its placeholder could not be created
func Load(ctx context.Context, backend gpu.Backend, source string, options ...LoaderOption) (*Texture, error) {
	l := newLoader(options...)

	handle, err := backend.CreateTexture()
	if err != nil {
		return nil, fmt.Errorf("failed to create texture: %w", err)
	}

	t := &Texture{
		Handle:  handle,
		Source:  source,
		backend: backend,
		done:    make(chan struct{}),
	}

	if err := backend.UploadTexture(handle, Placeholder()); err != nil {
		backend.DeleteTexture(handle)
		return nil, fmt.Errorf("failed to upload placeholder texture: %w", err)
	}
	if err := backend.SetSampler(handle, gpu.PlaceholderSamplerState()); err != nil {
		backend.DeleteTexture(handle)
		return nil, fmt.Errorf("failed to configure placeholder sampler: %w", err)
	}

	l.pool.SubmitTask(worker.Task{
		ID: int(taskIDs.Add(1)),
		Do: func() (any, error) {
			img, err := l.fetchAndDecode(ctx, source)
			if err != nil {
				t.fail(err)
				return nil, nil
			}
			t.mu.Lock()
			t.pending = img
			t.mu.Unlock()
			return nil, nil
		},
	})

	return t, nil
}

// Placeholder returns a fresh 1x1 image holding PlaceholderColor.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, PlaceholderColor[:])
	return img
}

// Poll uploads a decoded image if one is waiting. It must be called from the goroutine that
// owns the backend, normally once per frame.
//
// Returns:
//   - bool: true if this call finished the load
func (t *Texture) Poll() bool {
	t.mu.Lock()
	img := t.pending
	t.pending = nil
	t.mu.Unlock()
	if img == nil {
		return false
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	res := LoadResult{Width: w, Height: h}
	policy := SamplerFor(w, h)

	if err := t.apply(img, policy); err != nil {
		t.fail(err)
		return true
	}

	res.Mipmapped = policy.Mipmaps
	common.LogDebug("texture %s uploaded (%dx%d, mipmapped=%t)", t.Source, w, h, res.Mipmapped)
	t.finish(res)
	return true
}

func (t *Texture) apply(img *image.RGBA, policy Policy) error {
	if err := t.backend.UploadTexture(t.Handle, img); err != nil {
		return fmt.Errorf("failed to upload texture: %w", err)
	}
	if policy.Mipmaps {
		if err := t.backend.GenerateMipmaps(t.Handle); err != nil {
			return fmt.Errorf("failed to generate mipmaps: %w", err)
		}
	}
	if err := t.backend.SetSampler(t.Handle, policy.Sampler); err != nil {
		return fmt.Errorf("failed to configure sampler: %w", err)
	}
	return nil
}

// fail keeps the placeholder bound and resolves the load with err.
func (t *Texture) fail(err error) {
	common.LogWarn("texture %s failed to load, keeping placeholder: %v", t.Source, err)
	t.finish(LoadResult{Err: err})
}

func (t *Texture) finish(res LoadResult) {
	t.doneOnce.Do(func() {
		t.mu.Lock()
		t.result = res
		t.mu.Unlock()
		close(t.done)
	})
}

// Done is closed once the load has finished, successfully or not.
func (t *Texture) Done() <-chan struct{} {
	return t.done
}

// Result returns the load result and whether the load has finished.
func (t *Texture) Result() (LoadResult, bool) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.result, true
	default:
		return LoadResult{}, false
	}
}

// Wait blocks until the load finishes or ctx is done. A successful load still requires Poll to
// run on the render goroutine before Wait can return.
//
// Returns:
//   - LoadResult: the finished load's result
//   - error: ctx.Err() if ctx ended first
func (t *Texture) Wait(ctx context.Context) (LoadResult, error) {
	select {
	case <-t.done:
		res, _ := t.Result()
		return res, nil
	case <-ctx.Done():
		return LoadResult{}, ctx.Err()
	}
}

// Release deletes the GPU texture.
func (t *Texture) Release() {
	if t.Handle != gpu.InvalidTexture {
		t.backend.DeleteTexture(t.Handle)
		t.Handle = gpu.InvalidTexture
	}
}
