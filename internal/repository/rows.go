package repository

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// storedTime is the timestamp layout written by every create and update.
const storedTime = "2006-01-02T15:04:05.000Z07:00"

// readLayouts are accepted on read; SQLite's datetime('now') writes the
// second one.
var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTime)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q", s)
}

// column helpers read a single typed value from a row. Missing and NULL
// columns yield zero values or nil pointers.

func str(r types.Row, col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func optStr(r types.Row, col string) *string {
	if r[col] == nil {
		return nil
	}
	s := str(r, col)
	if s == "" {
		return nil
	}
	return &s
}

func num(r types.Row, col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func optNum(r types.Row, col string) *float64 {
	if r[col] == nil {
		return nil
	}
	f := num(r, col)
	return &f
}

func integer(r types.Row, col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		i, _ := strconv.ParseInt(v, 10, 64)
		return i
	}
	return 0
}

func optInt(r types.Row, col string) *int {
	if r[col] == nil {
		return nil
	}
	i := int(integer(r, col))
	return &i
}

func optInt64(r types.Row, col string) *int64 {
	if r[col] == nil {
		return nil
	}
	i := integer(r, col)
	return &i
}

func timestamp(r types.Row, col string) (time.Time, error) {
	t, err := parseTime(str(r, col))
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", col, err)
	}
	return t, nil
}

func optTimestamp(r types.Row, col string) (*time.Time, error) {
	if optStr(r, col) == nil {
		return nil, nil
	}
	t, err := timestamp(r, col)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// decodeTags parses a JSON tag list; NULL and empty text mean no tags.
func decodeTags(r types.Row, col string) ([]string, error) {
	tags := []string{}
	raw := str(r, col)
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", col, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func decodeObject(r types.Row, col string) (map[string]any, error) {
	obj := map[string]any{}
	raw := str(r, col)
	if raw == "" {
		return obj, nil
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", col, err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

// encode serializes v for a JSON column.
func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}
	return string(data), nil
}

// encodeTags writes nil as an empty list.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	return encode(tags)
}

// optEncode returns nil for a nil value so COALESCE keeps the stored column.
func optEncode[T any](v T, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	return encode(v)
}

// arg converts an optional input into a bind value. Nil pointers and empty
// strings bind NULL; named string types bind as plain strings.
func arg[T any](p *T) any {
	if p == nil {
		return nil
	}
	v := reflect.ValueOf(*p)
	if v.Kind() == reflect.String {
		if v.Len() == 0 {
			return nil
		}
		return v.String()
	}
	return *p
}

// timeArg binds an optional time in storage format.
func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// tagPattern matches a tag inside a serialized tag list. LIKE wildcards in
// tag are not escaped, so "a_b" also matches "axb".
func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

// placeholders returns n comma-separated bind markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, 3*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}

// count reads a COUNT(*) AS count row.
func count(r types.Row) int {
	if r == nil {
		return 0
	}
	return int(integer(r, "count"))
}
