// Package input turns loosely-typed request bodies into validated values.
package input

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// ParseBody decodes raw according to contentType. It never fails: a body
// that cannot be decoded yields an empty map so callers can report a
// validation error instead.
func ParseBody(contentType string, raw []byte) map[string]any {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, contentTypeJSON):
		return parseJSON(raw)
	case strings.Contains(ct, contentTypeForm):
		return parseForm(raw)
	default:
		if len(bytes.TrimSpace(raw)) == 0 {
			return map[string]any{}
		}
		return parseJSON(raw)
	}
}

func parseJSON(raw []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// parseForm maps repeated keys (or keys with a trailing "[]") to lists and
// single keys to plain strings. Event id values are always a list, and each
// value may itself be a comma-separated list.
func parseForm(raw []byte) map[string]any {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return map[string]any{}
	}

	grouped := make(map[string][]string, len(values))
	lists := make(map[string]bool)
	for key, vals := range values {
		name := strings.TrimSuffix(key, "[]")
		if name != key {
			lists[name] = true
		}
		grouped[name] = append(grouped[name], vals...)
	}

	out := make(map[string]any, len(grouped))
	for name, vals := range grouped {
		if name == FieldEventIDs {
			out[name] = splitCommaList(vals)
			continue
		}
		if len(vals) == 1 && !lists[name] {
			out[name] = vals[0]
			continue
		}
		list := make([]any, 0, len(vals))
		for _, v := range vals {
			list = append(list, v)
		}
		out[name] = list
	}
	return out
}

func splitCommaList(vals []string) []any {
	list := make([]any, 0, len(vals))
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			list = append(list, part)
		}
	}
	return list
}
