// Package casing converts payload keys between the wire convention
// (snake_case) and the internal one (camelCase).
//
// The literal key "__proto__" is never rewritten in either direction. Clients
// written in JavaScript treat it specially, so it is passed through exactly as
// received instead of being turned into "Proto" or "_proto_".
package casing

import (
	"strings"
	"time"
	"unicode"
)

// ProtoKey is passed through unmodified by every conversion.
const ProtoKey = "__proto__"

// ISOFormat matches JavaScript's Date.prototype.toISOString.
const ISOFormat = "2006-01-02T15:04:05.000Z"

// ToCamel turns "filial_id" into "filialId". An underscore is only consumed
// when the next rune is a lowercase letter whose uppercase maps back to it,
// which keeps ToSnake(ToCamel(k)) == k for snake_case keys.
func ToCamel(key string) string {
	if key == ProtoKey || !strings.Contains(key, "_") {
		return key
	}
	rs := []rune(key)
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(rs); i++ {
		if rs[i] == '_' && i+1 < len(rs) && reversibleLower(rs[i+1]) {
			b.WriteRune(unicode.ToUpper(rs[i+1]))
			i++
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// reversibleLower excludes runes like 'ß' (no single uppercase) and 'ı'
// (uppercases to 'I', which lowercases to 'i').
func reversibleLower(r rune) bool {
	up := unicode.ToUpper(r)
	return unicode.IsLower(r) && up != r && unicode.ToLower(up) == r
}

// ToSnake turns "filialId" into "filial_id".
func ToSnake(key string) string {
	if key == ProtoKey {
		return key
	}
	hasUpper := false
	for _, r := range key {
		if unicode.IsUpper(r) {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return key
	}
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KeysToCamel rewrites every object key of a decoded JSON tree.
func KeysToCamel(v any) any {
	return transform(v, ToCamel, false)
}

// KeysToSnake rewrites every object key of a decoded JSON tree and renders
// time values as ISO-8601 UTC strings with millisecond precision. That covers
// both time.Time values and the RFC 3339 strings encoding/json produces for
// them.
func KeysToSnake(v any) any {
	return transform(v, ToSnake, true)
}

func transform(v any, conv func(string) string, outbound bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[conv(k)] = transform(val, conv, outbound)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = transform(val, conv, outbound)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = transform(val, conv, outbound)
		}
		return out
	case string:
		if outbound {
			if ts, ok := parseTimestamp(t); ok {
				return ts.UTC().Format(ISOFormat)
			}
		}
		return t
	case time.Time:
		if outbound {
			return t.UTC().Format(ISOFormat)
		}
		return t
	case *time.Time:
		if outbound {
			if t == nil {
				return nil
			}
			return t.UTC().Format(ISOFormat)
		}
		return t
	default:
		return v
	}
}

// parseTimestamp recognizes full RFC 3339 timestamps such as the ones
// time.Time marshals to. Plain dates and free text are left alone.
func parseTimestamp(s string) (time.Time, bool) {
	if len(s) < len("2006-01-02T15:04:05Z") || s[4] != '-' || s[10] != 'T' {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
