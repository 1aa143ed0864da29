package slogx

import (
	"maps"
	"net/http"
	"strings"
)

// Redacted replaces every sensitive value in logs.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"authorization":    {},
	"api_secret":       {},
	"apisecret":        {},
	"secret":           {},
	"sig":              {},
	"signature":        {},
	"signature_secret": {},
	"private_key":      {},
	"privatekey":       {},
	"client_secret":    {},
	"access_token":     {},
	"refresh_token":    {},
	"id_token":         {},
	"code":             {},
	"password":         {},
	"token":            {},
}

// identifierKeys name account identifiers. They are not secrets but are
// masked down to their last four characters.
var identifierKeys = map[string]struct{}{
	"api_key":        {},
	"apikey":         {},
	"application_id": {},
	"applicationid":  {},
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}

// IsSensitive reports whether a header, parameter or attribute key carries a
// credential. The match is case-insensitive and treats '-' like '_'.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[normalizeKey(key)]
	return ok
}

// IsIdentifier reports whether key names an account identifier such as
// api_key or application_id.
func IsIdentifier(key string) bool {
	_, ok := identifierKeys[normalizeKey(key)]
	return ok
}

// Mask keeps the last four characters of s and replaces the rest with '*'.
// Values of four characters or fewer are fully masked.
func Mask(s string) string {
	n := len(s)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return strings.Repeat("*", n-4) + s[n-4:]
}

// RedactValue returns value as it may be logged under key.
func RedactValue(key, value string) string {
	switch {
	case IsSensitive(key):
		return Redacted
	case IsIdentifier(key):
		return Mask(value)
	default:
		return value
	}
}

// RedactHeader returns a copy of h with sensitive headers masked.
func RedactHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = RedactValue(k, h.Get(k))
	}
	return out
}

// RedactValues returns a copy of a flat parameter map with sensitive values
// removed and identifiers masked.
func RedactValues(params map[string]string) map[string]string {
	out := maps.Clone(params)
	for k, v := range out {
		out[k] = RedactValue(k, v)
	}
	return out
}

// RedactAny walks decoded JSON (maps and slices) and masks sensitive keys at
// any depth. Other values are returned as is.
func RedactAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsSensitive(k) {
				out[k] = Redacted
				continue
			}
			if str, ok := val.(string); ok && IsIdentifier(k) {
				out[k] = Mask(str)
				continue
			}
			out[k] = RedactAny(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = RedactAny(val)
		}
		return out
	case map[string]string:
		return RedactValues(t)
	default:
		return v
	}
}
