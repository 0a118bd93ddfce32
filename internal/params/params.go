// Package params holds the ordered key/value table behind URL query strings
// and request headers, and the codec between a table and a query string.
package params

import (
	"errors"
	"strings"
)

// ErrMalformed is returned by Decode when a query segment has no '='.
var ErrMalformed = errors.New("malformed query parameter")

// Table is an ordered string mapping. Setting an existing key overwrites its
// value but keeps the key at its original position.
type Table struct {
	keys   []string
	values map[string]string
}

// New creates an empty table.
func New() *Table {
	return &Table{values: make(map[string]string)}
}

// Set stores value under key, overwriting any earlier value.
func (t *Table) Set(key, value string) {
	if t.values == nil {
		t.values = make(map[string]string)
	}

	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}

	t.values[key] = value
}

// Get returns the value stored for key.
func (t *Table) Get(key string) (string, bool) {
	if t == nil {
		return "", false
	}

	v, ok := t.values[key]

	return v, ok
}

// Remove deletes key from the table. It reports whether the key was present.
func (t *Table) Remove(key string) bool {
	if t == nil {
		return false
	}

	if _, ok := t.values[key]; !ok {
		return false
	}

	delete(t.values, key)

	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}

	return true
}

// Len returns the number of keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.keys)
}

// Keys returns the keys in table order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}

	return append([]string(nil), t.keys...)
}

// Map returns a copy of the table contents.
func (t *Table) Map() map[string]string {
	m := make(map[string]string, t.Len())
	if t == nil {
		return m
	}

	for k, v := range t.values {
		m[k] = v
	}

	return m
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := New()
	if t == nil {
		return c
	}

	for _, k := range t.keys {
		c.Set(k, t.values[k])
	}

	return c
}

// Merge copies every entry of other into t, overwriting duplicates.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}

	for _, k := range other.keys {
		t.Set(k, other.values[k])
	}
}

// Lines flattens the table into "key<sep>value" strings, in table order.
// Request headers use ": " and query strings use "=".
func (t *Table) Lines(sep string) []string {
	if t == nil {
		return nil
	}

	lines := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		lines = append(lines, k+sep+t.values[k])
	}

	return lines
}

// Decode parses a query string of '&' separated "key=value" segments.
// Values may be empty; a later duplicate key overwrites the earlier value.
// A segment without '=' fails the whole decode and no table is returned.
func Decode(query string) (*Table, error) {
	t := New()

	for _, segment := range strings.Split(query, "&") {
		k, v, ok := strings.Cut(segment, "=")
		if !ok {
			return nil, &SegmentError{Segment: segment}
		}

		t.Set(k, v)
	}

	return t, nil
}

// Encode renders the table as a query suffix: "?k=v&k2=v2". An empty table
// encodes to the empty string.
func Encode(t *Table) string {
	if t.Len() == 0 {
		return ""
	}

	return "?" + strings.Join(t.Lines("="), "&")
}

// SegmentError reports the offending segment of a malformed query.
type SegmentError struct {
	Segment string
}

func (e *SegmentError) Error() string {
	return "badly formatted query parameter '" + e.Segment + "'"
}

func (e *SegmentError) Unwrap() error {
	return ErrMalformed
}
