// Package transport performs one blocking fetch of a URL through an
// Engine and reports the raw response code.
//
// The Engine is a black box: it is told the target URL, the request headers,
// whether to verify TLS, whether to negotiate explicit TLS on an FTP control
// connection, and the connect and total timeouts. It feeds every received
// body chunk to a writer and every received header line to a callback.
package transport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/NamanBalaji/urlconf/internal/params"
)

const (
	DefaultConnectTimeout = 3 * time.Second
	DefaultTotalTimeout   = 10 * time.Second

	Product = "urlconf"
	Version = "0.1.0"

	DefaultUserAgent = Product + "+" + Version
	DefaultAccept    = "text/plain, application/octet-stream"
)

// ErrUnsupportedInfo is returned by Info methods the engine cannot answer.
var ErrUnsupportedInfo = errors.New("transport: information not supported by engine")

// TraceKind identifies what a trace callback is being shown.
type TraceKind int

const (
	TraceText TraceKind = iota
	TraceHeaderIn
	TraceHeaderOut
	TraceDataIn
	TraceDataOut
	TraceSSLDataIn
	TraceSSLDataOut
)

// Request is everything an Engine needs for one transfer.
type Request struct {
	URL            string
	Headers        []string // "Name: value" lines
	VerifyTLS      bool
	ExplicitTLS    bool // negotiate TLS on a plain ftp control connection
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration

	// Body receives every body chunk in arrival order. A short write
	// aborts the transfer.
	Body io.Writer
	// Header receives every response header line, CRLF included.
	Header func(line string)
	// Trace is only set while tracing is enabled.
	Trace func(kind TraceKind, data []byte)
}

// Info describes a completed transfer.
type Info interface {
	ResponseCode() (int, error)
	// LegacyResponseCode is the older way of asking for the code; it is
	// only consulted when ResponseCode is unsupported.
	LegacyResponseCode() (int, error)
	ContentLength() (int64, error)
	ContentType() (string, error)
	TotalTime() (time.Duration, error)
	BytesReceived() (int64, error)
}

// Engine performs transfers. The error returned by Perform carries the
// engine's human-readable diagnostic text.
type Engine interface {
	Perform(ctx context.Context, req *Request) (Info, error)
}

// Sink is fed by a transfer: body chunks through Write, header lines
// through HeaderLine.
type Sink interface {
	io.Writer
	HeaderLine(line string)
	Reason() string
}

// Options configure one fetch.
type Options struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	UseTLS         bool // explicit TLS for ftp
	VerifyTLS      bool
	// Headers replaces the default request headers when set.
	Headers *params.Table
}

// DefaultOptions returns options with default timeouts and TLS verification on.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: DefaultConnectTimeout,
		TotalTimeout:   DefaultTotalTimeout,
		VerifyTLS:      true,
	}
}

// DefaultHeaders returns the headers sent with every request unless the
// caller overrides them.
func DefaultHeaders() *params.Table {
	headers := params.New()
	headers.Set("Accept", DefaultAccept)
	headers.Set("User-Agent", DefaultUserAgent)

	return headers
}

// Result is what a successful transfer reports. Only StatusCode is
// guaranteed; the rest is informational and may be zero.
type Result struct {
	StatusCode    int
	Reason        string
	ContentType   string
	ContentLength int64
	Elapsed       time.Duration
	Received      int64
}
