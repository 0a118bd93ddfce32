package vfs

import (
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

// Sys is what the synthetic FileInfo.Sys returns.
type Sys struct {
	BlockSize  int64
	Descriptor int // -1 for a plain Stat
}

type fileInfo struct {
	name string
	size int64
	sys  *Sys
}

func newFileInfo(rawURL string, size int64, fd int) *fileInfo {
	return &fileInfo{
		name: baseName(rawURL),
		size: size,
		sys:  &Sys{BlockSize: BlockSize, Descriptor: fd},
	}
}

func (i *fileInfo) Name() string       { return i.name }
func (i *fileInfo) Size() int64        { return i.size }
func (i *fileInfo) Mode() fs.FileMode  { return 0o444 }
func (i *fileInfo) ModTime() time.Time { return time.Time{} }
func (i *fileInfo) IsDir() bool        { return false }
func (i *fileInfo) Sys() any           { return i.sys }

type file struct {
	hooks *Hooks
	fd    int
}

func (f *file) Stat() (fs.FileInfo, error) { return f.hooks.Fstat(f.fd) }
func (f *file) Close() error               { return f.hooks.Close(f.fd) }

func (f *file) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n, err := f.hooks.Read(f.fd, p)
	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// baseName is the last path element of a URL, without query.
func baseName(rawURL string) string {
	s := rawURL
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}

	if !strings.Contains(s, "/") {
		return s
	}

	return path.Base(s)
}
