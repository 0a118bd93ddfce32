package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

const defaultFTPPort = "21"

// ftpProtocol retrieves one file per transfer. The path is sent to RETR
// whole, without changing directory first. Reply codes from the server are
// reported as the response code rather than as transfer failures.
type ftpProtocol struct {
	shared *Shared
}

func newFTPProtocol(shared *Shared) *ftpProtocol {
	return &ftpProtocol{shared: shared}
}

func (p *ftpProtocol) CanHandle(url string) bool {
	return hasPrefixFold(url, "ftp://")
}

func (p *ftpProtocol) Perform(ctx context.Context, req *transport.Request) (*Info, error) {
	start := time.Now()

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, &diagnosticError{text: "URL using bad/illegal format or missing URL", err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, req.TotalTimeout)
	defer cancel()

	conn, err := ftp.Dial(address(u), p.dialOptions(ctx, u, req)...)
	if err != nil {
		return nil, diagnose(err)
	}

	defer func() {
		if err := conn.Quit(); err != nil {
			logger.Debugf("Failed to quit FTP session: %v", err)
		}
	}()

	user, pass := credentials(u)
	if err := conn.Login(user, pass); err != nil {
		return loginInfo(err, start)
	}

	path := strings.TrimPrefix(u.Path, "/")

	length := int64(-1)
	if size, err := conn.FileSize(path); err == nil {
		length = size
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return replyInfo(err, start)
	}

	received, err := pump(resp, req)
	closeErr := resp.Close()

	if err != nil {
		return nil, err
	}

	if closeErr != nil {
		return replyInfo(closeErr, start)
	}

	return &Info{
		Code:     ftp.StatusClosingDataConnection,
		Length:   length,
		Elapsed:  time.Since(start),
		Received: received,
	}, nil
}

func (p *ftpProtocol) dialOptions(ctx context.Context, u *url.URL, req *transport.Request) []ftp.DialOption {
	dial := func(network, addr string) (net.Conn, error) {
		conn, err := dialContext(withConnectTimeout(ctx, req.ConnectTimeout), network, addr)
		if err != nil {
			return nil, err
		}

		// The deadline covers control and data connections alike.
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				conn.Close()
				return nil, err
			}
		}

		return conn, nil
	}

	opts := []ftp.DialOption{ftp.DialWithDialFunc(dial)}

	if req.ExplicitTLS {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName:         u.Hostname(),
			InsecureSkipVerify: !req.VerifyTLS,
			ClientSessionCache: p.shared.sessions,
		}))
	}

	if req.Trace != nil {
		opts = append(opts, ftp.DialWithDebugOutput(traceWriter(req.Trace)))
	}

	return opts
}

func address(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = defaultFTPPort
	}

	return net.JoinHostPort(u.Hostname(), port)
}

func credentials(u *url.URL) (string, string) {
	if u.User == nil {
		return defaultFTPUser, defaultFTPPassword
	}

	pass, _ := u.User.Password()

	return u.User.Username(), pass
}

// replyInfo turns an FTP reply error into a completed transfer carrying the
// reply code. Anything else is a transfer failure.
func replyInfo(err error, start time.Time) (*Info, error) {
	var reply *textproto.Error
	if errors.As(err, &reply) {
		return &Info{
			Code:    reply.Code,
			Length:  -1,
			Elapsed: time.Since(start),
		}, nil
	}

	return nil, diagnose(err)
}

// loginInfo is replyInfo for Login. A rejected USER comes back as bare reply
// text without its code, so it is reported as 530 like a rejected PASS.
func loginInfo(err error, start time.Time) (*Info, error) {
	var (
		reply    *textproto.Error
		netErr   net.Error
		protoErr textproto.ProtocolError
	)

	switch {
	case errors.As(err, &reply):
		return replyInfo(err, start)
	case errors.As(err, &netErr), errors.As(err, &protoErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, diagnose(err)
	}

	logger.Debugf("FTP login rejected: %v", err)

	return &Info{
		Code:    ftp.StatusNotLoggedIn,
		Length:  -1,
		Elapsed: time.Since(start),
	}, nil
}
