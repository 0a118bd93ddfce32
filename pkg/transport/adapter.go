package transport

import (
	"context"
	stdErrors "errors"

	"github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/logger"
)

type AdapterOption func(*Adapter)

// WithRules replaces the diagnostic rules used to classify transport failures.
func WithRules(rules []Rule) AdapterOption {
	return func(a *Adapter) {
		a.rules = rules
	}
}

// Adapter configures and performs single fetches on an Engine. It is not safe
// for concurrent use: the diagnostic state belongs to the last fetch.
type Adapter struct {
	engine Engine
	rules  []Rule

	diagnostic string
	respMsg    string
}

// NewAdapter creates an adapter around engine.
func NewAdapter(engine Engine, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		engine: engine,
		rules:  DefaultRules,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Diagnostic returns the engine's text for the last failed fetch.
func (a *Adapter) Diagnostic() string {
	return a.diagnostic
}

// ResponseMessage returns the reason phrase of the last fetch, if any.
func (a *Adapter) ResponseMessage() string {
	return a.respMsg
}

// Fetch performs one blocking request for target and streams the body into
// sink. A returned error is always a transport error; interpreting the
// response code is left to the caller.
func (a *Adapter) Fetch(ctx context.Context, target string, opts Options, sink Sink) (*Result, error) {
	// Stale diagnostics must never leak into this call.
	a.diagnostic = ""
	a.respMsg = ""

	req := a.newRequest(target, opts, sink)

	logger.Debugf("Sending GET request to %s", errors.Preview(target))

	info, err := a.engine.Perform(ctx, req)
	if err != nil {
		a.diagnostic = err.Error()
		kind := Classify(a.rules, a.diagnostic)

		logger.Tracef(1, "'%s' request error: %s", errors.Preview(target), a.diagnostic)

		return nil, errors.NewTransportError(kind, target, a.diagnostic)
	}

	code, err := responseCode(info)
	if err != nil {
		a.diagnostic = err.Error()

		logger.Tracef(2, "unable to get '%s' response code: %v", errors.Preview(target), err)

		return nil, errors.NewTransportError(errors.ErrGenericFailure, target, a.diagnostic)
	}

	a.respMsg = sink.Reason()
	if a.respMsg != "" {
		logger.Tracef(15, "received response '%d %s' for '%s' request", code, a.respMsg, errors.Preview(target))
	} else {
		logger.Tracef(15, "received response code %d for '%s' request", code, errors.Preview(target))
	}

	res := &Result{StatusCode: code, Reason: a.respMsg}
	a.collectInfo(info, target, res)

	return res, nil
}

func (a *Adapter) newRequest(target string, opts Options, sink Sink) *Request {
	headers := opts.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}

	req := &Request{
		URL:            target,
		Headers:        headers.Lines(": "),
		VerifyTLS:      opts.VerifyTLS,
		ExplicitTLS:    opts.UseTLS,
		ConnectTimeout: opts.ConnectTimeout,
		TotalTimeout:   opts.TotalTimeout,
		Body:           sink,
		Header:         sink.HeaderLine,
	}

	if req.ConnectTimeout <= 0 {
		req.ConnectTimeout = DefaultConnectTimeout
	}

	if req.TotalTimeout <= 0 {
		req.TotalTimeout = DefaultTotalTimeout
	}

	if logger.TracingEnabled() {
		req.Trace = trace
	}

	return req
}

// responseCode asks for the code the current way, then the legacy way.
func responseCode(info Info) (int, error) {
	code, err := info.ResponseCode()
	if stdErrors.Is(err, ErrUnsupportedInfo) {
		code, err = info.LegacyResponseCode()
	}

	return code, err
}

// collectInfo fills in the informational fields. Failures only cost the
// corresponding trace line.
func (a *Adapter) collectInfo(info Info, target string, res *Result) {
	url := errors.Preview(target)

	if n, err := info.ContentLength(); err == nil {
		res.ContentLength = n
		if n > 0 {
			logger.Tracef(15, "received Content-Length %d for '%s' request", n, url)
		}
	} else {
		logger.Tracef(3, "unable to get content length: %v", err)
	}

	if ct, err := info.ContentType(); err == nil {
		res.ContentType = ct
		if ct != "" {
			logger.Tracef(15, "received Content-Type '%s' for '%s' request", ct, url)
		}
	} else {
		logger.Tracef(3, "unable to get content type: %v", err)
	}

	if d, err := info.TotalTime(); err == nil {
		res.Elapsed = d
		logger.Tracef(15, "'%s' request took %0.3f secs", url, d.Seconds())
	} else {
		logger.Tracef(3, "unable to get total time: %v", err)
	}

	if n, err := info.BytesReceived(); err == nil {
		res.Received = n
		logger.Tracef(15, "received %d bytes for '%s' request", n, url)
	} else {
		logger.Tracef(3, "unable to get bytes received: %v", err)
	}
}

func trace(kind TraceKind, data []byte) {
	size := len(data)

	switch kind {
	case TraceText:
		logger.Tracef(15, "[debug] INFO: %s", data)
	case TraceHeaderIn:
		if size > 2 {
			logger.Tracef(15, "[debug] HEADER IN: %s (%d bytes)", data[:size-2], size)
		}
	case TraceHeaderOut:
		if size > 2 {
			logger.Tracef(15, "[debug] HEADER OUT: %s (%d bytes)", data[:size-2], size)
		}
	case TraceDataIn:
		logger.Tracef(19, "[debug] DATA IN: (%d bytes)", size)
	case TraceDataOut:
		logger.Tracef(19, "[debug] DATA OUT: (%d bytes)", size)
	case TraceSSLDataIn, TraceSSLDataOut:
	default:
		logger.Tracef(3, "[debug] UNKNOWN DEBUG DATA: %d (%d bytes)", kind, size)
	}
}
