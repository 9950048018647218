package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

const fence = "```"

// Fields is a parsed oracle answer. Getters never fail: a missing or
// mistyped field yields the caller's default.
type Fields map[string]json.RawMessage

// Parse strips one fenced block, if present, and decodes the remainder as
// a JSON object in a single attempt.
func Parse(raw string) (Fields, error) {
	body := strings.TrimSpace(unfence(raw))
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	var f Fields
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	return f, nil
}

// unfence returns the content of the first ``` block, dropping an optional
// language tag followed by whitespace, on its own line or inline. Text
// without a complete fence is returned unchanged.
func unfence(raw string) string {
	start := strings.Index(raw, fence)
	if start < 0 {
		return raw
	}
	rest := raw[start+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return raw
	}
	block := rest[:end]

	tag := 0
	for tag < len(block) && isLetter(block[tag]) {
		tag++
	}
	if tag > 0 && tag < len(block) && isSpace(block[tag]) {
		block = block[tag:]
	}
	return block
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (f Fields) Bool(key string, def bool) bool {
	var v bool
	if !f.decode(key, &v) {
		return def
	}
	return v
}

func (f Fields) Float(key string, def float64) float64 {
	var v float64
	if !f.decode(key, &v) {
		return def
	}
	return v
}

func (f Fields) String(key, def string) string {
	var v string
	if !f.decode(key, &v) {
		return def
	}
	return v
}

// Strings returns the string items of a list field. Non-list values give an
// empty list and non-string items, null included, are skipped.
func (f Fields) Strings(key string) []string {
	var items []json.RawMessage
	if !f.decode(key, &items) {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if strings.TrimSpace(string(item)) == "null" {
			continue
		}
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Object returns a nested object field decoded into generic JSON values.
func (f Fields) Object(key string) (map[string]any, bool) {
	var v map[string]any
	if !f.decode(key, &v) || v == nil {
		return nil, false
	}
	return v, true
}

// Map returns the whole answer decoded into generic JSON values.
func (f Fields) Map() map[string]any {
	out := make(map[string]any, len(f))
	for k, raw := range f {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			out[k] = v
		}
	}
	return out
}

func (f Fields) decode(key string, dst any) bool {
	raw, ok := f[key]
	if !ok || strings.TrimSpace(string(raw)) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
