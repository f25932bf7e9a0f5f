// Package table holds ordered records and the tables built from them.
//
// Upstream resources are JSON objects whose full field set is not known in
// advance. A Row keeps every field with its raw JSON value in the order the
// fields first appeared, so exported columns follow the upstream layout.
package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrNotObject is returned when a JSON value other than an object is decoded into a Row.
var ErrNotObject = errors.New("expected JSON object")

// Row is an ordered set of named raw JSON values.
// The zero value is an empty row ready to use.
type Row struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

func (r *Row) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, json.RawMessage]()
	}
}

// Keys returns the field names in order.
func (r Row) Keys() []string {
	keys := make([]string, 0, r.Len())
	if r.fields == nil {
		return keys
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of fields.
func (r Row) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Get returns the raw value for key.
func (r Row) Get(key string) (json.RawMessage, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Set stores value under key. An existing key keeps its position; a new key is appended.
func (r *Row) Set(key string, value json.RawMessage) {
	r.init()
	r.fields.Set(key, value)
}

// SetString stores s as a JSON string.
func (r *Row) SetString(key, s string) {
	b, _ := json.Marshal(s)
	r.Set(key, b)
}

// SetInt stores n as a JSON number.
func (r *Row) SetInt(key string, n int64) {
	r.Set(key, json.RawMessage(strconv.FormatInt(n, 10)))
}

// Delete removes key if present.
func (r *Row) Delete(key string) {
	if r.fields != nil {
		r.fields.Delete(key)
	}
}

// Merge sets every field of src on r, in src order.
func (r *Row) Merge(src Row) {
	if src.fields == nil {
		return
	}
	for pair := src.fields.Oldest(); pair != nil; pair = pair.Next() {
		r.Set(pair.Key, pair.Value)
	}
}

// Clone returns a copy of r that shares no state with it.
func (r Row) Clone() Row {
	var c Row
	c.init()
	c.Merge(r)
	return c
}

// Cell renders the value for key as a single table cell. Missing and null
// values render empty, strings unquoted, everything else as compact JSON.
func (r Row) Cell(key string) string {
	v, _ := r.Get(key)
	return FormatCell(v)
}

// UnmarshalJSON decodes a JSON object keeping field order.
func (r *Row) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotObject
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	r.fields = fields
	return nil
}

// MarshalJSON encodes the row as a JSON object in field order.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// FormatCell renders a raw JSON value as cell text.
func FormatCell(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	return strings.TrimSpace(string(trimmed))
}
