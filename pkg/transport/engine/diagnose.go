package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/NamanBalaji/urlconf/pkg/transport"
)

const chunkSize = 16 * 1024

// diagnosticError carries engine text in the wording the transport adapter's
// diagnostic rules expect.
type diagnosticError struct {
	text string
	err  error
}

func (e *diagnosticError) Error() string {
	return e.text
}

func (e *diagnosticError) Unwrap() error {
	return e.err
}

// diagnose rewrites Go network errors into engine diagnostics. Errors it
// does not recognise keep their own text.
func diagnose(err error) error {
	if err == nil {
		return nil
	}

	var (
		dnsErr *net.DNSError
		netErr net.Error
	)

	switch {
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		return &diagnosticError{text: fmt.Sprintf("Could not resolve host: %s", dnsErr.Name), err: err}
	case errors.Is(err, syscall.EHOSTUNREACH):
		return &diagnosticError{text: "Failed to connect: No route to host", err: err}
	case errors.Is(err, syscall.ENETUNREACH):
		return &diagnosticError{text: "Failed to connect: Network is unreachable", err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &diagnosticError{text: "Failed to connect: Connection refused", err: err}
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &diagnosticError{text: fmt.Sprintf("Operation timed out: %v", err), err: err}
	}

	return err
}

// pump copies r into the request body in chunks. A short write aborts.
func pump(r io.Reader, req *transport.Request) (int64, error) {
	buf := make([]byte, chunkSize)

	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if req.Trace != nil {
				req.Trace(transport.TraceDataIn, buf[:n])
			}

			w, werr := req.Body.Write(buf[:n])
			total += int64(w)

			if werr != nil || w != n {
				return total, &diagnosticError{text: "Failure writing output to destination", err: werr}
			}
		}

		if errors.Is(err, io.EOF) {
			return total, nil
		}

		if err != nil {
			return total, diagnose(err)
		}
	}
}

// traceWriter turns protocol chatter into trace text.
type traceWriter func(kind transport.TraceKind, data []byte)

func (w traceWriter) Write(p []byte) (int, error) {
	w(transport.TraceText, p)
	return len(p), nil
}
