// Package field models table columns and resolves their values against records.
//
// A Field is either plain (a bare key used as its own label) or described
// (explicit key, label and an optional formatter). Keys are dot-separated
// paths into a record.
package field

import (
	"fmt"
	"sort"
	"strings"
)

// Formatter converts a resolved raw value into a display value.
type Formatter func(v any) any

// Field is a column definition. The zero value is not useful; build one with
// Plain or Described.
type Field struct {
	key    string
	label  string
	format Formatter
	plain  bool
}

// Plain returns a field whose name is both its key and its label.
func Plain(name string) Field {
	return Field{key: name, label: name, plain: true}
}

// Described returns a field with an explicit label and optional formatter.
// An empty label falls back to the key.
func Described(key, label string, format Formatter) Field {
	if label == "" {
		label = key
	}
	return Field{key: key, label: label, format: format}
}

// Key returns the dot-separated record path.
func (f Field) Key() string { return f.key }

// Label returns the column header text.
func (f Field) Label() string { return f.label }

// IsPlain reports whether the field was created from a bare name.
func (f Field) IsPlain() bool { return f.plain }

// Sortable reports whether the column may drive sorting. A formatted column
// shows a derived value, so it never does.
func (f Field) Sortable() bool { return f.format == nil }

// Formatter returns the field's formatter, or DefaultFormatter when unset.
func (f Field) Formatter() Formatter {
	if f.format != nil {
		return f.format
	}
	return DefaultFormatter
}

func (f Field) String() string {
	if f.plain || f.label == f.key {
		return f.key
	}
	return fmt.Sprintf("%s(%s)", f.key, f.label)
}

// DefaultFormatter maps nil to the empty string and passes other values through.
func DefaultFormatter(v any) any {
	if v == nil {
		return ""
	}
	return v
}

// Resolve looks up the field in record and applies its formatter.
func Resolve(record any, f Field) any {
	return f.Formatter()(Lookup(record, f.Key()))
}

// Keys returns the key of every field, in order.
func Keys(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key()
	}
	return out
}

// Find returns the field with the given key.
func Find(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.Key() == key {
			return f, true
		}
	}
	return Field{}, false
}

// Infer builds plain fields from the top-level keys of record, skipping the
// "_id" bookkeeping key. Keys are sorted since map order is unspecified.
func Infer(record map[string]any) []Field {
	keys := make([]string, 0, len(record))
	for k := range record {
		if k == "_id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Plain(k)
	}
	return fields
}

// FromConfig normalizes a config value into a Field. A string becomes a plain
// field; a map may carry key, label and format (a registered formatter name).
func FromConfig(raw any) (Field, error) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return Field{}, fmt.Errorf("field name is empty")
		}
		return Plain(v), nil
	case Field:
		return v, nil
	case map[string]any:
		key, _ := v["key"].(string)
		if strings.TrimSpace(key) == "" {
			return Field{}, fmt.Errorf("field %v has no key", v)
		}
		label, _ := v["label"].(string)
		name, _ := v["format"].(string)
		if name == "" {
			if label == "" {
				return Plain(key), nil
			}
			return Described(key, label, nil), nil
		}
		format, ok := LookupFormatter(name)
		if !ok {
			return Field{}, fmt.Errorf("field %q: unknown format %q", key, name)
		}
		return Described(key, label, format), nil
	default:
		return Field{}, fmt.Errorf("unsupported field definition %T", raw)
	}
}

// ParseSpec parses the compact "key[:label[:format]]" form used on the
// command line.
func ParseSpec(spec string) (Field, error) {
	parts := strings.SplitN(spec, ":", 3)
	m := map[string]any{"key": strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		m["label"] = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		m["format"] = strings.TrimSpace(parts[2])
	}
	return FromConfig(m)
}
