package engine_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/urlconf/internal/accumulator"
)

// ftpServer is a minimal passive-mode FTP server: one file per RETR over
// EPSV, everything else answered with fixed replies.
type ftpServer struct {
	files     map[string]string
	userReply string
	passReply string
	hangUp    bool // drop the connection instead of answering USER

	ln net.Listener

	mu   sync.Mutex
	user string
	pass string
}

func (s *ftpServer) start(t *testing.T) {
	t.Helper()

	if s.userReply == "" {
		s.userReply = "331 Password required"
	}

	if s.passReply == "" {
		s.passReply = "230 Logged in"
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.ln = ln
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go s.serve(conn)
		}
	}()
}

func (s *ftpServer) url(path string) string {
	return "ftp://" + s.ln.Addr().String() + path
}

func (s *ftpServer) credentials() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user, s.pass
}

func (s *ftpServer) serve(conn net.Conn) {
	defer conn.Close()

	var data net.Listener
	defer func() {
		if data != nil {
			data.Close()
		}
	}()

	reply := func(line string) {
		fmt.Fprintf(conn, "%s\r\n", line)
	}

	reply("220 test server ready")

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}

		cmd, arg, _ := strings.Cut(strings.TrimRight(line, "\r\n"), " ")

		switch strings.ToUpper(cmd) {
		case "USER":
			if s.hangUp {
				return
			}

			s.mu.Lock()
			s.user = arg
			s.mu.Unlock()
			reply(s.userReply)
		case "PASS":
			s.mu.Lock()
			s.pass = arg
			s.mu.Unlock()
			reply(s.passReply)
		case "TYPE":
			reply("200 Type set to I")
		case "SIZE":
			if body, ok := s.files[arg]; ok {
				reply(fmt.Sprintf("213 %d", len(body)))
			} else {
				reply("550 No such file")
			}
		case "EPSV":
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				reply("425 Cannot open data connection")
				continue
			}

			data = ln
			reply(fmt.Sprintf("229 Entering Extended Passive Mode (|||%d|)", ln.Addr().(*net.TCPAddr).Port))
		case "RETR":
			body, ok := s.files[arg]
			if !ok || data == nil {
				reply("550 No such file")
				continue
			}

			dc, err := data.Accept()
			if err != nil {
				reply("425 Cannot open data connection")
				continue
			}

			reply("150 Opening BINARY mode data connection")
			_, _ = io.WriteString(dc, body)
			dc.Close()
			data.Close()
			data = nil
			reply("226 Transfer complete")
		case "QUIT":
			reply("221 Goodbye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

func TestFTPPerform(t *testing.T) {
	srv := &ftpServer{files: map[string]string{"etc/app.conf": "listen = 8080\n"}}
	srv.start(t)

	eng := newEngine(t)
	sink := accumulator.New()

	url := strings.Replace(srv.url("/etc/app.conf"), "ftp://", "ftp://deploy:s3cret@", 1)

	info, err := eng.Perform(context.Background(), newRequest(url, sink))
	require.NoError(t, err)

	code, err := info.ResponseCode()
	require.NoError(t, err)
	assert.Equal(t, 226, code)

	length, err := info.ContentLength()
	require.NoError(t, err)
	assert.Equal(t, int64(14), length)

	n, err := info.BytesReceived()
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)

	assert.Equal(t, "listen = 8080\n", string(sink.Bytes()))

	user, pass := srv.credentials()
	assert.Equal(t, "deploy", user)
	assert.Equal(t, "s3cret", pass)
}

func TestFTPAnonymousLogin(t *testing.T) {
	srv := &ftpServer{files: map[string]string{"pub/app.conf": "a = 1\n"}}
	srv.start(t)

	eng := newEngine(t)
	sink := accumulator.New()

	info, err := eng.Perform(context.Background(), newRequest(srv.url("/pub/app.conf"), sink))
	require.NoError(t, err)

	code, err := info.ResponseCode()
	require.NoError(t, err)
	assert.Equal(t, 226, code)

	user, pass := srv.credentials()
	assert.Equal(t, "anonymous", user)
	assert.Equal(t, "ftp@example.com", pass)
}

func TestFTPReplyCodes(t *testing.T) {
	tests := []struct {
		name string
		srv  *ftpServer
		path string
		want int
	}{
		{
			name: "user rejected",
			srv:  &ftpServer{userReply: "530 denied"},
			path: "/app.conf",
			want: 530,
		},
		{
			name: "password rejected",
			srv:  &ftpServer{passReply: "530 Login incorrect"},
			path: "/app.conf",
			want: 530,
		},
		{
			name: "missing file",
			srv:  &ftpServer{files: map[string]string{"app.conf": "x"}},
			path: "/missing.conf",
			want: 550,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.srv.start(t)

			eng := newEngine(t)
			sink := accumulator.New()

			info, err := eng.Perform(context.Background(), newRequest(tt.srv.url(tt.path), sink))
			require.NoError(t, err)

			code, err := info.ResponseCode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)

			length, err := info.ContentLength()
			require.NoError(t, err)
			assert.Equal(t, int64(-1), length)

			assert.Zero(t, sink.Size())
		})
	}
}

func TestFTPConnectionDroppedDuringLogin(t *testing.T) {
	srv := &ftpServer{hangUp: true}
	srv.start(t)

	eng := newEngine(t)

	info, err := eng.Perform(context.Background(), newRequest(srv.url("/app.conf"), accumulator.New()))
	require.Error(t, err)
	assert.Nil(t, info)
}
