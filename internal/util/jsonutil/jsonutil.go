package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// UnmarshalStrict decodes raw into v and rejects fields that v does not
// declare. Used to validate model responses against their wire schema.
func UnmarshalStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing garbage after the value is also a schema violation.
	if dec.More() {
		return errors.New("jsonutil: trailing data after JSON value")
	}
	return nil
}

// UnmarshalFlex decodes raw into v with best effort: a direct unmarshal
// first, then one unwrap pass for payloads the model returned as a quoted
// JSON string or wrapped in a markdown code fence.
func UnmarshalFlex(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	if inner, ok := unwrap(raw); ok {
		return json.Unmarshal(inner, v)
	}
	return json.Unmarshal(raw, v)
}

func unwrap(raw []byte) ([]byte, bool) {
	// Whole payload is a JSON-encoded string holding the real document.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(strings.TrimSpace(s)), true
	}
	// ```json ... ``` fences around the document.
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		return []byte(strings.TrimSpace(text)), true
	}
	return nil, false
}

// MarshalNoEscape encodes v without escaping <, > and & into < etc.,
// so selectors like ":matches(...)" survive round trips unchanged.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
