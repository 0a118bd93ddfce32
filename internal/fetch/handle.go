package fetch

import (
	"context"
	"io"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/urlconf/internal/accumulator"
	"github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/internal/status"
	"github.com/NamanBalaji/urlconf/internal/uri"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

// Handle is one open-request. It is not safe for concurrent use.
type Handle struct {
	id      uuid.UUID
	url     string
	fetcher *Fetcher

	state  status.Status
	parsed *uri.URI
	target string
	opts   transport.Options
	result *transport.Result
	buf    *accumulator.Buffer
	err    error
}

// NewHandle creates an unopened handle for raw.
func (f *Fetcher) NewHandle(raw string) *Handle {
	return &Handle{
		id:      uuid.New(),
		url:     raw,
		fetcher: f,
		state:   status.Unopened,
	}
}

// Open runs the whole open-request: parse, control parameters, fetch and
// response classification. It may only be called once.
func (h *Handle) Open(ctx context.Context) error {
	if h.state != status.Unopened {
		return ErrAlreadyOpened
	}

	f := h.fetcher
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	defer func() {
		f.record(h, time.Since(start))
	}()

	h.state = status.Parsing

	u, err := uri.Parse(h.url)
	if err != nil {
		return h.fail(err)
	}
	h.parsed = u

	h.state = status.ControlParamExtraction

	h.opts = cloneOptions(f.opts)
	h.opts.UseTLS = u.Scheme == uri.FTPS
	applyControlParams(u.Query, &h.opts, f.tracer)
	h.target = Rewrite(h.url, u)

	if h.target != h.url {
		logger.Debugf("Rewrote %s to %s", errors.Preview(h.url), errors.Preview(h.target))
	}

	h.state = status.Fetching
	h.buf = accumulator.New()

	res, err := f.adapter.Fetch(ctx, h.target, h.opts, h.buf)
	if err != nil {
		return h.fail(err)
	}
	h.result = res

	if kind := ClassifyResponse(res.StatusCode); kind != nil {
		logger.Tracef(2, "'%s' request failed with response code %d", errors.Preview(h.target), res.StatusCode)
		return h.fail(errors.NewResponseError(kind, h.url, res.StatusCode))
	}

	h.state = status.Ready

	logger.Debugf("Fetched %d bytes from %s", h.buf.Size(), errors.Preview(h.target))

	return nil
}

// fail discards any received bytes.
func (h *Handle) fail(err error) error {
	if h.buf != nil {
		h.buf.Release()
	}

	h.state = status.Failed
	h.err = err

	logger.Errorf("Failed to open %s: %v", errors.Preview(h.url), err)

	return err
}

// ReadNext returns up to n bytes from the front of the body. It returns an
// empty slice once the body is drained or when the handle is not ready.
func (h *Handle) ReadNext(n int) []byte {
	if h.state != status.Ready {
		return nil
	}

	return h.buf.ReadNext(n)
}

// Read implements io.Reader.
func (h *Handle) Read(p []byte) (int, error) {
	switch h.state {
	case status.Ready:
		return h.buf.Read(p)
	case status.Failed:
		return 0, h.err
	case status.Closed:
		return 0, fs.ErrClosed
	default:
		return 0, io.ErrNoProgress
	}
}

// Close releases the body. It is valid in every state and idempotent.
func (h *Handle) Close() error {
	if h.state == status.Closed {
		return nil
	}

	if h.buf != nil {
		h.buf.Release()
		h.buf = nil
	}

	h.state = status.Closed

	return nil
}

func (h *Handle) ID() uuid.UUID             { return h.id }
func (h *Handle) URL() string               { return h.url }
func (h *Handle) State() status.Status      { return h.state }
func (h *Handle) Err() error                { return h.err }
func (h *Handle) Parsed() *uri.URI          { return h.parsed }
func (h *Handle) Result() *transport.Result { return h.result }

// Target is the URL that was handed to the transport.
func (h *Handle) Target() string {
	return h.target
}

// Options are the transport options the fetch was made with.
func (h *Handle) Options() transport.Options {
	return h.opts
}

// Size is the full body size, or 0 when the handle is not ready.
func (h *Handle) Size() int {
	if h.state != status.Ready {
		return 0
	}

	return h.buf.Size()
}

// Remaining is the number of unread bytes.
func (h *Handle) Remaining() int {
	if h.state != status.Ready {
		return 0
	}

	return h.buf.Len()
}
