// Package uri decomposes configuration URLs into their parts.
//
// The parser is deliberately permissive and scheme-aware instead of being a
// general URL parser: userinfo may contain '@' (the last '@' separates it from
// the host), IPv6 hosts are recognised only by a leading '[', and a remainder
// starting with '/' is taken as a local path. No percent-decoding is done.
package uri

import (
	"strconv"
	"strings"

	"github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/internal/params"
)

// minLength is the shortest input worth looking at.
const minLength = 7

// Scheme is one of the recognised URL schemes.
type Scheme string

const (
	File  Scheme = "file"
	FTP   Scheme = "ftp"
	FTPS  Scheme = "ftps"
	HTTP  Scheme = "http"
	HTTPS Scheme = "https"
)

// Schemes lists the recognised schemes in matching order.
var Schemes = []Scheme{File, FTP, FTPS, HTTP, HTTPS}

// Prefix returns the scheme followed by "://".
func (s Scheme) Prefix() string {
	return string(s) + "://"
}

// Secure reports whether the scheme needs TLS.
func (s Scheme) Secure() bool {
	return s == FTPS || s == HTTPS
}

// Userinfo holds the username and optional password of a URI.
type Userinfo struct {
	Username    string
	Password    string
	PasswordSet bool // true for "user:@host", where the password is empty
}

// URI is the result of parsing one URL string.
type URI struct {
	Scheme Scheme
	// Host is a host name, an IPv4 literal, an IPv6 literal without brackets,
	// or the whole remainder when it starts with '/' (a local path).
	Host  string
	Port  int // 0 when absent
	Path  string
	User  *Userinfo
	Query *params.Table
}

// HasPort reports whether the URI carried an explicit port.
func (u *URI) HasPort() bool {
	return u.Port != 0
}

// IsLocalPath reports whether the host is really an absolute local path.
func (u *URI) IsLocalPath() bool {
	return strings.HasPrefix(u.Host, "/")
}

// String reassembles the URI from its parts.
func (u *URI) String() string {
	var b strings.Builder

	b.WriteString(u.Scheme.Prefix())

	if u.User != nil {
		b.WriteString(u.User.Username)
		if u.User.PasswordSet {
			b.WriteByte(':')
			b.WriteString(u.User.Password)
		}
		b.WriteByte('@')
	}

	if strings.Contains(u.Host, ":") && !u.IsLocalPath() {
		b.WriteString("[" + u.Host + "]")
	} else {
		b.WriteString(u.Host)
	}

	if u.HasPort() {
		b.WriteString(":" + strconv.Itoa(u.Port))
	}

	b.WriteString(u.Path)
	b.WriteString(params.Encode(u.Query))

	return b.String()
}

// MatchScheme returns the scheme whose prefix starts raw, compared
// case-insensitively.
func MatchScheme(raw string) (Scheme, bool) {
	for _, s := range Schemes {
		prefix := s.Prefix()
		if len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
			return s, true
		}
	}

	return "", false
}

// Parse decomposes raw into a URI. Any malformed part fails the whole parse.
func Parse(raw string) (*URI, error) {
	if len(raw) < minLength {
		logger.Debugf("unknown/unsupported scheme in URI '%s' (URI too short)", errors.Preview(raw))
		return nil, errors.NewParseError(errors.ErrUnsupportedScheme, raw, nil)
	}

	scheme, ok := MatchScheme(raw)
	if !ok {
		logger.Debugf("unknown/unsupported scheme in URI '%s'", errors.Preview(raw))
		return nil, errors.NewParseError(errors.ErrUnsupportedScheme, raw, nil)
	}

	u := &URI{Scheme: scheme, Query: params.New()}
	rest := raw[len(scheme.Prefix()):]

	// The query goes first so that userinfo and host parsing never see it.
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		query, err := params.Decode(rest[i+1:])
		if err != nil {
			logger.Debugf("%v in URI '%s'", err, errors.Preview(raw))
			return nil, errors.NewParseError(errors.ErrMalformedQuery, raw, err)
		}

		for _, k := range query.Keys() {
			v, _ := query.Get(k)
			logger.Tracef(9, "parsed parameter '%s', value '%s' from URI", k, v)
		}

		u.Query = query
		rest = rest[:i]
	}

	u.User, rest = parseUserinfo(rest)

	host, rest, err := parseHost(raw, rest)
	if err != nil {
		return nil, err
	}
	u.Host = host

	if strings.HasPrefix(rest, ":") {
		u.Port, rest, err = parsePort(raw, rest)
		if err != nil {
			return nil, err
		}
	}

	u.Path = rest

	return u, nil
}

// parseUserinfo splits "userinfo@rest" at the last '@', since passwords may
// themselves contain '@'.
func parseUserinfo(s string) (*Userinfo, string) {
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return nil, s
	}

	info, rest := s[:at], s[at+1:]

	user, password, ok := strings.Cut(info, ":")
	if !ok {
		return &Userinfo{Username: info}, rest
	}

	return &Userinfo{Username: user, Password: password, PasswordSet: true}, rest
}

// parseHost takes the host off the front of s and returns what follows it.
func parseHost(raw, s string) (host, rest string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s[1:], ']')
		if end < 0 {
			logger.Debugf("badly formatted IPv6 address in host info '%s'", errors.Preview(raw))
			return "", "", errors.NewParseError(errors.ErrMalformedIPv6Host, raw, nil)
		}

		return s[1 : end+1], s[end+2:], nil
	}

	// An absolute local path, e.g. file:///etc/proftpd.conf.
	if strings.HasPrefix(s, "/") {
		return s, "", nil
	}

	if s != "" {
		if i := strings.IndexByte(s[1:], ':'); i >= 0 {
			return s[:i+1], s[i+1:], nil
		}
	}

	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i], s[i:], nil
	}

	return s, "", nil
}

// parsePort parses ":NNN[/...]" and returns the port and the remaining path.
func parsePort(raw, s string) (int, string, error) {
	spec, rest := s[1:], ""
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		spec, rest = spec[:i], spec[i:]
	}

	for i := 0; i < len(spec); i++ {
		if spec[i] < '0' || spec[i] > '9' {
			logger.Debugf("invalid character (%c) at index %d in port specification '%s'", spec[i], i, errors.Preview(spec))
			return 0, "", errors.NewParseError(errors.ErrInvalidPort, raw, nil)
		}
	}

	port, err := strconv.Atoi(spec)
	if err != nil || port == 0 || port >= 65536 {
		logger.Debugf("port specification '%s' yields invalid port number", errors.Preview(spec))
		return 0, "", errors.NewParseError(errors.ErrInvalidPort, raw, nil)
	}

	return port, rest, nil
}
