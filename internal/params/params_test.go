package params_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/urlconf/internal/params"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    map[string]string
		wantErr bool
	}{
		{"single", "a=1", map[string]string{"a": "1"}, false},
		{"multiple", "a=1&b=2", map[string]string{"a": "1", "b": "2"}, false},
		{"duplicate later wins", "x=1&y=2&x=3", map[string]string{"x": "3", "y": "2"}, false},
		{"empty value", "a=", map[string]string{"a": ""}, false},
		{"value with equals", "a=b=c", map[string]string{"a": "b=c"}, false},
		{"missing equals", "badsegment", nil, true},
		{"missing equals after good segment", "a=1&bad", nil, true},
		{"empty query", "", nil, true},
		{"trailing ampersand", "a=1&", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := params.Decode(tt.query)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, params.ErrMalformed))
				assert.Nil(t, got, "no partial table should be returned")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Map())
		})
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "", params.Encode(params.New()))
	assert.Equal(t, "", params.Encode(nil))

	tbl := params.New()
	tbl.Set("b", "2")
	tbl.Set("a", "1")
	tbl.Set("b", "3")

	assert.Equal(t, "?b=3&a=1", params.Encode(tbl), "overwrite keeps the original position")
}

func TestRoundTrip(t *testing.T) {
	first, err := params.Decode("a=1&b=2")
	require.NoError(t, err)

	encoded := params.Encode(first)
	require.Equal(t, "?a=1&b=2", encoded)

	second, err := params.Decode(encoded[1:])
	require.NoError(t, err)
	assert.Equal(t, first.Map(), second.Map())
}

func TestTableRemove(t *testing.T) {
	tbl := params.New()
	tbl.Set("tracing", "1")
	tbl.Set("keep", "yes")

	assert.True(t, tbl.Remove("tracing"))
	assert.False(t, tbl.Remove("tracing"))
	assert.Equal(t, []string{"keep"}, tbl.Keys())
	assert.Equal(t, 1, tbl.Len())

	_, ok := tbl.Get("tracing")
	assert.False(t, ok)
}

func TestLines(t *testing.T) {
	tbl := params.New()
	tbl.Set("Accept", "text/plain")
	tbl.Set("User-Agent", "urlconf+0.1.0")

	assert.Equal(t, []string{"Accept: text/plain", "User-Agent: urlconf+0.1.0"}, tbl.Lines(": "))
}

func TestCloneAndMerge(t *testing.T) {
	base := params.New()
	base.Set("Accept", "text/plain")

	clone := base.Clone()
	clone.Set("Accept", "application/json")

	v, _ := base.Get("Accept")
	assert.Equal(t, "text/plain", v, "clone must not alias the original")

	extra := params.New()
	extra.Set("X-Token", "abc")
	extra.Set("Accept", "*/*")
	base.Merge(extra)

	assert.Equal(t, map[string]string{"Accept": "*/*", "X-Token": "abc"}, base.Map())
	assert.Equal(t, []string{"Accept", "X-Token"}, base.Keys())
}
