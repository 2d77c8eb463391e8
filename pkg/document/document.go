// Package document implements the opaque JSON value documents carried by
// configuration records and provider responses. Callers access fields by key
// with explicit presence checks instead of binding to a rigid schema.
package document

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document is a schema-less string-keyed JSON object.
type Document map[string]any

// Has reports whether the key is present with a non-nil value.
func (d Document) Has(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

// String returns the value for key when it is a string, and whether it was
// present as one.
func (d Document) String(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the string value for key, or fallback when absent or not a
// string.
func (d Document) StringOr(key, fallback string) string {
	if s, ok := d.String(key); ok && s != "" {
		return s
	}
	return fallback
}

// Child returns the nested document under key, if present.
func (d Document) Child(key string) (Document, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	switch child := v.(type) {
	case Document:
		return child, true
	case map[string]any:
		return Document(child), true
	}
	return nil, false
}

// Strings returns the value for key coerced to a string slice. JSON arrays
// decode as []any, so each element is stringified individually.
func (d Document) Strings(key string) []string {
	v, ok := d[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, Stringify(item))
		}
		return out
	}
	return nil
}

// Stringify renders an arbitrary document value as a string, with nil
// rendered as "".
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	// json.Number and numeric types format cleanly through %v
	return fmt.Sprintf("%v", v)
}

// Value implements driver.Valuer so documents persist as JSONB.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB columns.
func (d *Document) Scan(src any) error {
	if src == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported document scan type %T", src)
	}
	return json.Unmarshal(raw, d)
}
