package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

type fileProtocol struct{}

func newFileProtocol() *fileProtocol {
	return &fileProtocol{}
}

func (p *fileProtocol) CanHandle(url string) bool {
	return hasPrefixFold(url, "file://")
}

func (p *fileProtocol) Perform(ctx context.Context, req *transport.Request) (*Info, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, diagnose(err)
	}

	path := localPath(req.URL)

	f, err := os.Open(path)
	if err != nil {
		return nil, &diagnosticError{text: fmt.Sprintf("Couldn't open file %s", path), err: err}
	}

	defer func() {
		if err := f.Close(); err != nil {
			logger.Warnf("Failed to close %s: %v", path, err)
		}
	}()

	length := int64(-1)
	if st, err := f.Stat(); err == nil {
		if st.IsDir() {
			return nil, &diagnosticError{text: fmt.Sprintf("Couldn't open file %s", path), err: os.ErrInvalid}
		}

		length = st.Size()
	}

	received, err := pump(f, req)
	if err != nil {
		return nil, err
	}

	return &Info{
		Code:     http.StatusOK,
		Length:   length,
		Elapsed:  time.Since(start),
		Received: received,
	}, nil
}

// localPath strips the scheme, an optional localhost authority and any
// query, then unescapes what is left.
func localPath(raw string) string {
	rest := raw[len("file://"):]

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}

	if hasPrefixFold(rest, "localhost/") {
		rest = rest[len("localhost"):]
	}

	if p, err := url.PathUnescape(rest); err == nil {
		return p
	}

	return rest
}
