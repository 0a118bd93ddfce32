package engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

const acceptEncoding = "gzip, deflate"

type httpProtocol struct {
	shared *Shared
	opts   Options
}

func newHTTPProtocol(shared *Shared, opts Options) *httpProtocol {
	return &httpProtocol{shared: shared, opts: opts}
}

func (p *httpProtocol) CanHandle(url string) bool {
	return hasPrefixFold(url, "http://") || hasPrefixFold(url, "https://")
}

func (p *httpProtocol) Perform(ctx context.Context, req *transport.Request) (*Info, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, req.TotalTimeout)
	defer cancel()

	ctx = withConnectTimeout(ctx, req.ConnectTimeout)
	if req.Trace != nil {
		ctx = httptrace.WithClientTrace(ctx, clientTrace(req.Trace))
	}

	httpReq, err := p.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client(req.VerifyTLS).Do(httpReq)
	if err != nil {
		return nil, diagnose(err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warnf("Failed to close response body: %v", err)
		}
	}()

	emitHeaders(resp, req)

	body, err := p.decode(resp)
	if err != nil {
		return nil, &diagnosticError{text: fmt.Sprintf("Error while processing content unencoding: %v", err), err: err}
	}

	received, err := pump(body, req)
	if err != nil {
		return nil, err
	}

	return &Info{
		Code:     resp.StatusCode,
		Length:   resp.ContentLength,
		Type:     resp.Header.Get("Content-Type"),
		Elapsed:  time.Since(start),
		Received: received,
	}, nil
}

func (p *httpProtocol) newRequest(ctx context.Context, req *transport.Request) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, &diagnosticError{text: fmt.Sprintf("URL using bad/illegal format or missing URL: %v", err), err: err}
	}

	for _, line := range req.Headers {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		httpReq.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if p.opts.Compression && httpReq.Header.Get("Accept-Encoding") == "" {
		httpReq.Header.Set("Accept-Encoding", acceptEncoding)
	}

	return httpReq, nil
}

// client must be called with the shared lock held.
func (p *httpProtocol) client(verify bool) *http.Client {
	maxRedirects := p.opts.MaxRedirects

	return &http.Client{
		Transport: p.shared.transport(verify),
		Jar:       p.shared.jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if !p.opts.FollowRedirects {
				return http.ErrUseLastResponse
			}

			if len(via) > maxRedirects {
				return fmt.Errorf("Maximum (%d) redirects followed", maxRedirects)
			}

			return nil
		},
	}
}

func (p *httpProtocol) decode(resp *http.Response) (io.Reader, error) {
	if !p.opts.Compression {
		return resp.Body, nil
	}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return zlib.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}

// emitHeaders replays the response head as raw header lines.
func emitHeaders(resp *http.Response, req *transport.Request) {
	lines := make([]string, 0, len(resp.Header)+2)
	lines = append(lines, fmt.Sprintf("HTTP/%d.%d %s\r\n", resp.ProtoMajor, resp.ProtoMinor, resp.Status))

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range resp.Header[name] {
			lines = append(lines, name+": "+value+"\r\n")
		}
	}
	lines = append(lines, "\r\n")

	for _, line := range lines {
		if req.Trace != nil {
			req.Trace(transport.TraceHeaderIn, []byte(line))
		}

		if req.Header != nil {
			req.Header(line)
		}
	}
}

func clientTrace(trace func(transport.TraceKind, []byte)) *httptrace.ClientTrace {
	text := func(format string, v ...interface{}) {
		trace(transport.TraceText, []byte(fmt.Sprintf(format, v...)))
	}

	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			text("Resolving %s", info.Host)
		},
		ConnectStart: func(network, addr string) {
			text("Trying %s (%s)...", addr, network)
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				text("Connected to %s (%s)", addr, network)
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				text("Re-using existing connection")
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				text("SSL connection using %s / %s", tls.VersionName(state.Version), tls.CipherSuiteName(state.CipherSuite))
			}
		},
		WroteHeaderField: func(key string, value []string) {
			for _, v := range value {
				trace(transport.TraceHeaderOut, []byte(key+": "+v+"\r\n"))
			}
		},
	}
}
