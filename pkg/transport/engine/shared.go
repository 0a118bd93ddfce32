package engine

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/NamanBalaji/urlconf/pkg/transport"
)

const (
	defaultIdleTimeout    = 90 * time.Second
	keepAlivePeriod       = 30 * time.Second
	maxIdleConns          = 16
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
	tlsSessionCacheSize   = 64
)

type connectTimeoutKey struct{}

// Shared is the state reused across sequential transfers: pooled
// connections, TLS sessions and cookies. Transfers take mu for their whole
// duration, so one Shared may back several engines.
type Shared struct {
	mu sync.Mutex

	jar      http.CookieJar
	sessions tls.ClientSessionCache

	// indexed by whether certificates are verified
	transports map[bool]*http.Transport
}

// NewShared creates an empty shared context.
func NewShared() (*Shared, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	return &Shared{
		jar:        jar,
		sessions:   tls.NewLRUClientSessionCache(tlsSessionCacheSize),
		transports: make(map[bool]*http.Transport),
	}, nil
}

// Close drops pooled connections.
func (s *Shared) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transports {
		t.CloseIdleConnections()
	}
}

// transport must be called with mu held.
func (s *Shared) transport(verify bool) *http.Transport {
	if t, ok := s.transports[verify]; ok {
		return t
	}

	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialContext,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       defaultIdleTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
		DisableCompression:    true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !verify,
			ClientSessionCache: s.sessions,
		},
		// HTTP/1.1 only
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}

	s.transports[verify] = t

	return t
}

func withConnectTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, connectTimeoutKey{}, d)
}

func connectTimeout(ctx context.Context) time.Duration {
	if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
		return d
	}

	return transport.DefaultConnectTimeout
}

func dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{
		Timeout:   connectTimeout(ctx),
		KeepAlive: keepAlivePeriod,
	}

	return d.DialContext(ctx, network, addr)
}
