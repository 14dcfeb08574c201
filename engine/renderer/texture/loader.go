package texture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	defaultPoolOnce sync.Once
	defaultPool     worker.DynamicWorkerPool
)

// DefaultPool returns the shared decode pool, created on first use. Both workers start with the
// pool and live for the rest of the process; the pool does not enforce its idle timeout.
func DefaultPool() worker.DynamicWorkerPool {
	defaultPoolOnce.Do(func() {
		defaultPool = worker.NewDynamicWorkerPool(2, 16, time.Second)
	})
	return defaultPool
}

type loader struct {
	pool    worker.DynamicWorkerPool
	hasPool bool
	client  *http.Client
}

func newLoader(options ...LoaderOption) *loader {
	l := &loader{}
	for _, opt := range options {
		opt(l)
	}
	if !l.hasPool {
		l.pool = DefaultPool()
		l.hasPool = true
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: 30 * time.Second}
	}
	return l
}

func (l *loader) fetchAndDecode(ctx context.Context, source string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyImage)
	}

	common.LogDebug("decoded %s as %s (%dx%d)", source, format, img.Bounds().Dx(), img.Bounds().Dy())
	return gpu.ToRGBA(img), nil
}

// open resolves source to a byte stream: http(s) URLs are fetched, file URLs and plain paths
// are read from disk.
func (l *loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l.get(ctx, u.String())
		case "file":
			return openFile(u.Path)
		}
	}
	return openFile(source)
}

func (l *loader) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: %s", target, resp.Status)
	}
	return resp.Body, nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	return f, nil
}
