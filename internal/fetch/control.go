package fetch

import (
	"strings"

	"github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/params"
	"github.com/NamanBalaji/urlconf/internal/uri"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

// Control parameters are consumed here and never sent to the server.
const (
	ParamTracing   = "tracing"
	ParamSSLVerify = "ssl_verify"
)

// ParseBool understands on/off, yes/no, true/false and 1/0 in any case.
// ok is false for anything else.
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "yes", "true":
		return true, true
	case "0", "off", "no", "false":
		return false, true
	default:
		return false, false
	}
}

// applyControlParams removes both control keys from query, whatever their
// value, and applies the recognised ones.
func applyControlParams(query *params.Table, opts *transport.Options, tracer Tracer) {
	if query == nil {
		return
	}

	if v, ok := query.Get(ParamTracing); ok {
		if on, ok := ParseBool(v); ok && on && tracer != nil {
			tracer.EnableTracing()
		}

		query.Remove(ParamTracing)
	}

	if v, ok := query.Get(ParamSSLVerify); ok {
		if verify, ok := ParseBool(v); ok && !verify {
			opts.VerifyTLS = false
		}

		query.Remove(ParamSSLVerify)
	}
}

// Rewrite builds the URL handed to the transport: ftps becomes ftp (the
// explicit TLS flag is carried separately), the original query is dropped
// and the remaining parameters are re-encoded.
func Rewrite(raw string, u *uri.URI) string {
	target := raw
	if u.Scheme == uri.FTPS {
		target = uri.FTP.Prefix() + raw[len(uri.FTPS.Prefix()):]
	}

	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}

	return target + params.Encode(u.Query)
}

// ClassifyResponse maps a response code to an error kind, or nil for the
// success codes.
func ClassifyResponse(code int) error {
	switch code {
	case 200, 204, 206, 226:
		return nil
	case 400:
		return errors.ErrInvalidRequest
	case 401, 403, 530:
		return errors.ErrAccessDenied
	case 404, 550:
		return errors.ErrNotFound
	default:
		return errors.ErrGenericFailure
	}
}
