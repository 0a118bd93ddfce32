// Package fetch turns a configuration URL into a readable in-memory body.
//
// Opening a Handle parses the URL, consumes the control parameters, fetches
// the body in one blocking transfer and classifies the response code. Any
// failure discards whatever was received. A Handle is then drained with
// ReadNext or Read and released with Close.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/NamanBalaji/urlconf/internal/common"
	"github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

var ErrAlreadyOpened = errors.New("handle already opened")

// Tracer is the process-wide trace switch. Enabling it is idempotent and
// lasts for the rest of the process.
type Tracer interface {
	EnableTracing()
	TracingEnabled() bool
}

// Journal records the outcome of every open-request.
type Journal interface {
	Save(record *common.Record) error
}

type Option func(*Fetcher)

// WithOptions sets the base transport options. Control parameters may still
// adjust them per request.
func WithOptions(opts transport.Options) Option {
	return func(f *Fetcher) {
		f.opts = opts
	}
}

func WithTracer(t Tracer) Option {
	return func(f *Fetcher) {
		f.tracer = t
	}
}

func WithJournal(j Journal) Option {
	return func(f *Fetcher) {
		f.journal = j
	}
}

// Fetcher opens handles over one transport engine. Like the engine's
// adapter it serves one open-request at a time.
type Fetcher struct {
	mu      sync.Mutex
	adapter *transport.Adapter
	opts    transport.Options
	tracer  Tracer
	journal Journal
}

// NewFetcher creates a fetcher on top of engine.
func NewFetcher(engine transport.Engine, opts ...Option) *Fetcher {
	f := &Fetcher{
		adapter: transport.NewAdapter(engine),
		opts:    transport.DefaultOptions(),
		tracer:  logger.Tracer{},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Open creates a handle for raw and opens it. On failure the handle is
// already closed and only the error is returned.
func (f *Fetcher) Open(ctx context.Context, raw string) (*Handle, error) {
	h := f.NewHandle(raw)

	if err := h.Open(ctx); err != nil {
		h.Close()
		return nil, err
	}

	return h, nil
}

func (f *Fetcher) record(h *Handle, elapsed time.Duration) {
	if f.journal == nil {
		return
	}

	rec := &common.Record{
		ID:        h.id,
		URL:       errors.Preview(h.url),
		Target:    errors.Preview(h.target),
		Status:    h.state,
		Elapsed:   elapsed,
		CreatedAt: time.Now(),
	}

	if h.parsed != nil {
		rec.Scheme = string(h.parsed.Scheme)
	}

	if h.result != nil {
		rec.StatusCode = h.result.StatusCode
		rec.Reason = h.result.Reason
		rec.ContentType = h.result.ContentType
	}

	if h.buf != nil {
		rec.Size = int64(h.buf.Size())
	}

	if h.err != nil {
		rec.Error = h.err.Error()

		var urlErr *errors.URLError
		if errors.As(h.err, &urlErr) {
			rec.Category = string(urlErr.Category)
			if urlErr.Category == errors.CategoryResponse {
				rec.StatusCode = urlErr.StatusCode
			}
		}
	}

	if err := f.journal.Save(rec); err != nil {
		logger.Warnf("Failed to journal fetch of %s: %v", rec.URL, err)
	}
}

func cloneOptions(opts transport.Options) transport.Options {
	if opts.Headers != nil {
		opts.Headers = opts.Headers.Clone()
	}

	return opts
}
