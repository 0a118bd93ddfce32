package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
	"time"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
)

type ErrorCategory string

const (
	CategoryParse     ErrorCategory = "PARSE"     // URL could not be decomposed
	CategoryTransport ErrorCategory = "TRANSPORT" // Request never produced a response code
	CategoryResponse  ErrorCategory = "RESPONSE"  // Response code is not a success code
)

// previewLen bounds how much of a URL ends up in logs and error messages.
const previewLen = 200

// Error kinds. Transport and response errors share ErrNotFound and
// ErrGenericFailure; the category tells them apart.
var (
	ErrUnsupportedScheme = New("unknown/unsupported scheme")
	ErrMalformedIPv6Host = New("badly formatted IPv6 address")
	ErrInvalidPort       = New("invalid port")
	ErrMalformedQuery    = New("badly formatted query parameter")

	ErrHostUnreachable    = New("could not resolve host")
	ErrNetworkUnreachable = New("network unreachable")
	ErrTimeout            = New("operation timed out")

	ErrInvalidRequest = New("invalid request")
	ErrAccessDenied   = New("access denied")

	ErrNotFound       = New("resource not found")
	ErrGenericFailure = New("request failed")
)

// URLError is returned for every failed open of a URL.
type URLError struct {
	Kind       error         // One of the Err* kinds above
	Category   ErrorCategory // Which stage failed
	URL        string        // Offending URL, truncated for log safety
	Diagnostic string        // Raw engine text for transport errors, if any
	StatusCode int           // Response code for response errors
	Err        error         // Underlying cause, if any
	Timestamp  time.Time
}

// Error implements the error interface
func (e *URLError) Error() string {
	msg := fmt.Sprintf("[%s] '%s': %v", e.Category, e.URL, e.Kind)

	switch {
	case e.Category == CategoryResponse:
		msg += fmt.Sprintf(" (response code: %d)", e.StatusCode)
	case e.Diagnostic != "":
		msg += ": " + e.Diagnostic
	}

	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}

	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *URLError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Is lets callers treat URL errors like filesystem errors.
func (e *URLError) Is(target error) bool {
	switch target {
	case fs.ErrNotExist:
		return e.Kind == ErrNotFound
	case fs.ErrPermission:
		return e.Kind == ErrAccessDenied
	case fs.ErrInvalid:
		return e.Category == CategoryParse || e.Kind == ErrInvalidRequest
	}

	return false
}

// Preview truncates url to the bounded preview length.
func Preview(url string) string {
	if len(url) <= previewLen {
		return url
	}

	return url[:previewLen]
}

// NewParseError creates an error for a URL that failed to parse.
func NewParseError(kind error, url string, err error) *URLError {
	return &URLError{
		Kind:      kind,
		Category:  CategoryParse,
		URL:       Preview(url),
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NewTransportError creates an error for a request that failed before a
// response code was available. diagnostic is the engine's text, possibly empty.
func NewTransportError(kind error, url, diagnostic string) *URLError {
	return &URLError{
		Kind:       kind,
		Category:   CategoryTransport,
		URL:        Preview(url),
		Diagnostic: diagnostic,
		Timestamp:  time.Now(),
	}
}

// NewResponseError creates an error for a completed request whose response
// code is not a success code.
func NewResponseError(kind error, url string, statusCode int) *URLError {
	return &URLError{
		Kind:       kind,
		Category:   CategoryResponse,
		URL:        Preview(url),
		StatusCode: statusCode,
		Timestamp:  time.Now(),
	}
}

// Kind returns the kind of a URL error, or nil.
func Kind(err error) error {
	var urlErr *URLError
	if As(err, &urlErr) {
		return urlErr.Kind
	}

	return nil
}

// IsParseError determines if the error happened while parsing the URL
func IsParseError(err error) bool {
	return categoryOf(err) == CategoryParse
}

// IsTransportError determines if the error happened during the transfer
func IsTransportError(err error) bool {
	return categoryOf(err) == CategoryTransport
}

// IsResponseError determines if the error is caused by the response code
func IsResponseError(err error) bool {
	return categoryOf(err) == CategoryResponse
}

// GetStatusCode extracts the response code from an error if available
func GetStatusCode(err error) (int, bool) {
	var urlErr *URLError
	if As(err, &urlErr) && urlErr.Category == CategoryResponse {
		return urlErr.StatusCode, true
	}

	return 0, false
}

func categoryOf(err error) ErrorCategory {
	var urlErr *URLError
	if As(err, &urlErr) {
		return urlErr.Category
	}

	return ""
}

var errnos = map[error]syscall.Errno{
	ErrUnsupportedScheme:  syscall.EINVAL,
	ErrMalformedIPv6Host:  syscall.EINVAL,
	ErrInvalidPort:        syscall.EINVAL,
	ErrMalformedQuery:     syscall.EINVAL,
	ErrHostUnreachable:    syscall.ESRCH,
	ErrNetworkUnreachable: syscall.ENETUNREACH,
	ErrTimeout:            syscall.ETIMEDOUT,
	ErrInvalidRequest:     syscall.EINVAL,
	ErrAccessDenied:       syscall.EACCES,
	ErrNotFound:           syscall.ENOENT,
	ErrGenericFailure:     syscall.EPERM,
}

// noRoutePhrase marks a network-unreachable failure that reports
// EHOSTUNREACH instead of ENETUNREACH.
const noRoutePhrase = "no route to host"

// Errno maps an error to the errno a filesystem hook would report. Errors
// that are not URL errors map to EPERM.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var urlErr *URLError
	if As(err, &urlErr) && urlErr.Kind == ErrNetworkUnreachable &&
		strings.Contains(strings.ToLower(urlErr.Diagnostic), noRoutePhrase) {
		return syscall.EHOSTUNREACH
	}

	if errno, ok := errnos[Kind(err)]; ok {
		return errno
	}

	return syscall.EPERM
}
