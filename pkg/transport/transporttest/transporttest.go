// Package transporttest provides a scripted transport.Engine for tests.
package transporttest

import (
	"context"
	"errors"
	"time"

	"github.com/NamanBalaji/urlconf/pkg/transport"
)

// Engine replays a scripted response. Every request it receives is recorded.
type Engine struct {
	Code        int
	Chunks      [][]byte
	HeaderLines []string
	ContentType string
	Err         error

	// LegacyOnly makes ResponseCode unsupported so that callers must fall
	// back to LegacyResponseCode.
	LegacyOnly bool
	// NoCode makes both code lookups fail.
	NoCode bool
	// NoInfo makes every informational lookup fail.
	NoInfo bool

	Requests []*transport.Request
}

// Last returns the most recent request, or nil.
func (e *Engine) Last() *transport.Request {
	if len(e.Requests) == 0 {
		return nil
	}

	return e.Requests[len(e.Requests)-1]
}

// Perform implements transport.Engine.
func (e *Engine) Perform(ctx context.Context, req *transport.Request) (transport.Info, error) {
	e.Requests = append(e.Requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.Err != nil {
		return nil, e.Err
	}

	for _, line := range e.HeaderLines {
		if req.Header != nil {
			req.Header(line)
		}
	}

	var received int64
	for _, chunk := range e.Chunks {
		n, err := req.Body.Write(chunk)
		if err != nil || n != len(chunk) {
			return nil, errors.New("Failure writing output to destination")
		}
		received += int64(n)
	}

	return &info{engine: e, received: received}, nil
}

type info struct {
	engine   *Engine
	received int64
}

func (i *info) ResponseCode() (int, error) {
	if i.engine.NoCode {
		return 0, errors.New("response code unavailable")
	}

	if i.engine.LegacyOnly {
		return 0, transport.ErrUnsupportedInfo
	}

	return i.engine.Code, nil
}

func (i *info) LegacyResponseCode() (int, error) {
	if i.engine.NoCode {
		return 0, errors.New("response code unavailable")
	}

	return i.engine.Code, nil
}

func (i *info) ContentLength() (int64, error) {
	if i.engine.NoInfo {
		return 0, transport.ErrUnsupportedInfo
	}

	return i.received, nil
}

func (i *info) ContentType() (string, error) {
	if i.engine.NoInfo {
		return "", transport.ErrUnsupportedInfo
	}

	return i.engine.ContentType, nil
}

func (i *info) TotalTime() (time.Duration, error) {
	if i.engine.NoInfo {
		return 0, transport.ErrUnsupportedInfo
	}

	return time.Millisecond, nil
}

func (i *info) BytesReceived() (int64, error) {
	if i.engine.NoInfo {
		return 0, transport.ErrUnsupportedInfo
	}

	return i.received, nil
}
