package fetch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/urlconf/internal/fetch"
	"github.com/NamanBalaji/urlconf/internal/uri"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://host/a", "http://host/a"},
		{"http://host/a?x=1&y=2&x=3", "http://host/a?x=3&y=2"},
		{"ftps://host/a", "ftp://host/a"},
		{"file:///etc/app.conf?k=v", "file:///etc/app.conf?k=v"},
	}

	for _, tt := range tests {
		u, err := uri.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, fetch.Rewrite(tt.raw, u), tt.raw)
	}
}
