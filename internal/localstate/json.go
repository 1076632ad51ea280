package localstate

import (
	"bytes"
	"encoding/json"
)

// EncodeJSON renders v the way the archive stores it: 4-space indent, object
// keys sorted, non-ASCII and HTML characters verbatim, trailing newline.
// Encoding the same value twice yields the same bytes.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v with EncodeJSON and writes it atomically to path.
func WriteJSON(path string, v any) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}
