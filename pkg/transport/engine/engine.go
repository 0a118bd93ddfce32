// Package engine is the default transport.Engine. It speaks HTTP(S) through
// net/http, FTP with optional explicit TLS through jlaffaye/ftp, and reads
// file:// URLs from the local filesystem.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

const (
	DefaultMaxRedirects = 10

	defaultFTPUser     = "anonymous"
	defaultFTPPassword = "ftp@example.com"
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrInvalidURL          = errors.New("invalid URL")
)

// Protocol performs transfers for the URLs it claims.
type Protocol interface {
	// CanHandle checks if this protocol can handle the given URL
	CanHandle(url string) bool
	// Perform runs one blocking transfer
	Perform(ctx context.Context, req *transport.Request) (*Info, error)
}

// Options tune the built-in protocols.
type Options struct {
	FollowRedirects bool
	MaxRedirects    int
	// Compression asks HTTP servers for gzip or deflate and decodes the body.
	Compression bool
}

type Option func(*Options)

func WithFollowRedirects(follow bool) Option {
	return func(o *Options) {
		o.FollowRedirects = follow
	}
}

// WithMaxRedirects bounds how many redirects are followed. Zero or less
// means DefaultMaxRedirects.
func WithMaxRedirects(n int) Option {
	return func(o *Options) {
		o.MaxRedirects = n
	}
}

func WithCompression(enabled bool) Option {
	return func(o *Options) {
		o.Compression = enabled
	}
}

// Engine dispatches requests to the first registered protocol that can
// handle them. Every transfer holds the shared context's lock.
type Engine struct {
	shared *Shared
	opts   Options

	mu        sync.RWMutex
	protocols []Protocol
}

// New creates an engine bound to shared. A nil shared gets a private context.
func New(shared *Shared, opts ...Option) (*Engine, error) {
	if shared == nil {
		var err error

		shared, err = NewShared()
		if err != nil {
			return nil, err
		}
	}

	o := Options{
		FollowRedirects: true,
		MaxRedirects:    DefaultMaxRedirects,
		Compression:     true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}

	e := &Engine{
		shared: shared,
		opts:   o,
	}

	e.protocols = []Protocol{
		newHTTPProtocol(shared, o),
		newFTPProtocol(shared),
		newFileProtocol(),
	}

	return e, nil
}

// Shared returns the context the engine reuses across transfers.
func (e *Engine) Shared() *Shared {
	return e.shared
}

// RegisterProtocol adds a protocol. Protocols registered later are consulted
// after the built-in ones.
func (e *Engine) RegisterProtocol(p Protocol) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.protocols = append(e.protocols, p)
}

// Perform implements transport.Engine.
func (e *Engine) Perform(ctx context.Context, req *transport.Request) (transport.Info, error) {
	p, err := e.protocolFor(req.URL)
	if err != nil {
		return nil, err
	}

	e.shared.mu.Lock()
	defer e.shared.mu.Unlock()

	info, err := p.Perform(ctx, req)
	if err != nil {
		logger.Debugf("Transfer failed for %s: %v", req.URL, err)
		return nil, err
	}

	return info, nil
}

func (e *Engine) protocolFor(url string) (Protocol, error) {
	if url == "" {
		return nil, ErrInvalidURL
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, p := range e.protocols {
		if p.CanHandle(url) {
			return p, nil
		}
	}

	scheme, _, _ := strings.Cut(url, "://")

	return nil, &diagnosticError{
		text: fmt.Sprintf("Protocol %q not supported", scheme),
		err:  ErrUnsupportedProtocol,
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
