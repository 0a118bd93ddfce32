// Package vfs exposes configuration URLs through file-like hooks for a host
// that otherwise reads local files. Paths that are not recognised URLs are
// left to the host: every hook reports ErrNotHandled for them.
package vfs

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"github.com/NamanBalaji/urlconf/internal/fetch"
	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/internal/uri"
)

const (
	// BlockSize is the block size reported by the synthetic stat.
	BlockSize = 8192

	firstDescriptor = 7642
)

var ErrNotHandled = errors.New("not a supported URL")

type Option func(*Hooks)

// WithoutTLS stops https and ftps from being recognised.
func WithoutTLS() Option {
	return func(h *Hooks) {
		h.disableTLS = true
	}
}

// Hooks maps descriptors to open fetch handles.
type Hooks struct {
	fetcher    *fetch.Fetcher
	disableTLS bool

	mu      sync.Mutex
	next    int
	handles map[int]*fetch.Handle
}

func New(f *fetch.Fetcher, opts ...Option) *Hooks {
	h := &Hooks{
		fetcher: f,
		next:    firstDescriptor,
		handles: make(map[int]*fetch.Handle),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Supported reports whether path starts with a recognised scheme, compared
// case-insensitively.
func (h *Hooks) Supported(path string) bool {
	scheme, ok := uri.MatchScheme(path)
	if !ok {
		return false
	}

	return !(h.disableTLS && scheme.Secure())
}

// Open fetches path and returns a descriptor for reading it.
func (h *Hooks) Open(ctx context.Context, path string) (int, error) {
	if !h.Supported(path) {
		return -1, ErrNotHandled
	}

	handle, err := h.fetcher.Open(ctx, path)
	if err != nil {
		return -1, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	fd := h.next
	h.next++
	h.handles[fd] = handle

	logger.Debugf("Opened %s as descriptor %d", handle.ID(), fd)

	return fd, nil
}

// Read copies the next bytes of the body into p. It returns 0 once the body
// is drained.
func (h *Hooks) Read(fd int, p []byte) (int, error) {
	handle, err := h.lookup(fd)
	if err != nil {
		return 0, err
	}

	return copy(p, handle.ReadNext(len(p))), nil
}

// Close releases the descriptor. Unknown descriptors belong to the host.
func (h *Hooks) Close(fd int) error {
	h.mu.Lock()
	handle, ok := h.handles[fd]
	delete(h.handles, fd)
	h.mu.Unlock()

	if !ok {
		return ErrNotHandled
	}

	return handle.Close()
}

// Stat describes path without fetching it.
func (h *Hooks) Stat(path string) (fs.FileInfo, error) {
	if !h.Supported(path) {
		return nil, ErrNotHandled
	}

	return newFileInfo(path, 0, -1), nil
}

// Lstat is Stat: URLs are never links.
func (h *Hooks) Lstat(path string) (fs.FileInfo, error) {
	return h.Stat(path)
}

// Fstat describes an open descriptor, including its body size.
func (h *Hooks) Fstat(fd int) (fs.FileInfo, error) {
	handle, err := h.lookup(fd)
	if err != nil {
		return nil, err
	}

	return newFileInfo(handle.URL(), int64(handle.Size()), fd), nil
}

// OpenFile opens path as an fs.File.
func (h *Hooks) OpenFile(ctx context.Context, path string) (fs.File, error) {
	fd, err := h.Open(ctx, path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}

	return &file{hooks: h, fd: fd}, nil
}

// Len is the number of open descriptors.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.handles)
}

func (h *Hooks) lookup(fd int) (*fetch.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle, ok := h.handles[fd]
	if !ok {
		return nil, ErrNotHandled
	}

	return handle, nil
}
