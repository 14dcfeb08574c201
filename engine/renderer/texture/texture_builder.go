package texture

import (
	"net/http"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// LoaderOption is a functional option applied to a texture load.
type LoaderOption func(*loader)

// WithWorkerPool runs the fetch and decode on pool instead of the shared default pool.
//
// Parameters:
//   - pool: the worker pool to submit the decode task to
//
// Returns:
//   - LoaderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) LoaderOption {
	return func(l *loader) {
		l.pool = pool
		l.hasPool = true
	}
}

// WithHTTPClient sets the client used for http(s) sources.
//
// Parameters:
//   - client: the HTTP client to fetch with
//
// Returns:
//   - LoaderOption: option function to apply
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *loader) {
		l.client = client
	}
}
