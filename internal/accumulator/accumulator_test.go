package accumulator_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/urlconf/internal/accumulator"
)

func TestWriteConcatenatesChunks(t *testing.T) {
	buf := accumulator.New()

	chunks := [][]byte{
		bytes.Repeat([]byte("a"), 10),
		bytes.Repeat([]byte("b"), 5),
		bytes.Repeat([]byte("c"), 20),
	}

	var want []byte
	for _, c := range chunks {
		n, err := buf.Write(c)
		require.NoError(t, err)
		assert.Equal(t, len(c), n)
		want = append(want, c...)
	}

	assert.Equal(t, 35, buf.Size())
	assert.Equal(t, want, buf.Bytes())
}

func TestReadNextDrains(t *testing.T) {
	buf := accumulator.New()
	_, _ = buf.Write(bytes.Repeat([]byte("a"), 10))
	_, _ = buf.Write(bytes.Repeat([]byte("b"), 5))
	_, _ = buf.Write(bytes.Repeat([]byte("c"), 20))

	var sizes []int
	for i := 0; i < 5; i++ {
		sizes = append(sizes, len(buf.ReadNext(8)))
	}

	assert.Equal(t, []int{8, 8, 8, 8, 3}, sizes)
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.ReadNext(8), "reading past the end returns nothing")
	assert.Equal(t, 35, buf.Size(), "reads never change the content")
}

func TestReadNextNonPositive(t *testing.T) {
	buf := accumulator.New()
	_, _ = buf.Write([]byte("data"))

	assert.Empty(t, buf.ReadNext(0))
	assert.Empty(t, buf.ReadNext(-1))
	assert.Equal(t, 4, buf.Len())
}

func TestEmptyWrite(t *testing.T) {
	buf := accumulator.New()

	n, err := buf.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Size())
}

func TestReadImplementsReader(t *testing.T) {
	buf := accumulator.New()
	_, _ = buf.Write([]byte("ServerName \"urlconf\"\n"))

	data, err := io.ReadAll(buf)
	require.NoError(t, err)
	assert.Equal(t, "ServerName \"urlconf\"\n", string(data))

	n, err := buf.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestHeaderLine(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		reason string
	}{
		{"http 1.1", []string{"HTTP/1.1 200 OK\r\n"}, "OK"},
		{"http 1.0", []string{"HTTP/1.0 404 Not Found\r\n"}, "Not Found"},
		{"no reason", []string{"HTTP/1.1 204\r\n"}, ""},
		{"other headers ignored", []string{"HTTP/1.1 403 Forbidden\r\n", "Content-Type: text/plain\r\n", "\r\n"}, "Forbidden"},
		{"http2 ignored", []string{"HTTP/2 200\r\n"}, ""},
		{"last status line wins", []string{"HTTP/1.1 301 Moved Permanently\r\n", "HTTP/1.1 200 OK\r\n"}, "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := accumulator.New()
			for _, line := range tt.lines {
				buf.HeaderLine(line)
			}

			assert.Equal(t, tt.reason, buf.Reason())
		})
	}
}

func TestRelease(t *testing.T) {
	buf := accumulator.New()
	_, _ = buf.Write([]byte("data"))
	buf.HeaderLine("HTTP/1.1 200 OK\r\n")

	buf.Release()

	assert.Zero(t, buf.Size())
	assert.Zero(t, buf.Len())
	assert.Empty(t, buf.Reason())
	assert.Empty(t, buf.ReadNext(10))
}
