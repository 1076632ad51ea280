// Package record provides typed, read-only views over the raw message and
// user payloads returned by the remote API. Both the legacy and the current
// payload shapes are normalized here so nothing downstream has to care which
// one it is looking at.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Raw is a decoded JSON object exactly as the remote API sent it. Numbers are
// kept as json.Number so persisting a record never changes its digits.
type Raw = map[string]any

// Unmarshal decodes data into v keeping numbers as json.Number.
func Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func intField(m Raw, key string) (int64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	return toInt(v)
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		// legacy payloads send some ids (action_mid) as strings
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func stringField(m Raw, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func objectField(m Raw, key string) (Raw, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func listField(m Raw, key string) ([]any, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}
