package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Structure is a persona document validated against its schema. Every
// schema layer is present, possibly empty.
type Structure struct {
	Schema     Schema
	DomainType string
	Layers     map[string]map[string]any
}

// NewStructure returns a document with every layer empty.
func NewStructure(schema Schema, domainType string) *Structure {
	s := &Structure{
		Schema:     schema,
		DomainType: domainType,
		Layers:     make(map[string]map[string]any, len(schema.Layers)),
	}
	for _, name := range schema.Layers {
		s.Layers[name] = map[string]any{}
	}
	return s
}

// Decode parses a document. Layers that are missing or not objects come
// back empty and keys outside the schema are dropped.
func Decode(data []byte, schema Schema) (*Structure, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}
	return FromMap(doc, schema), nil
}

// FromMap builds a document from generic JSON values.
func FromMap(doc map[string]any, schema Schema) *Structure {
	domainType, _ := doc[KeyDomainType].(string)
	s := NewStructure(schema, domainType)
	for _, name := range schema.Layers {
		if layer, ok := doc[name].(map[string]any); ok {
			s.Layers[name] = deepCopyMap(layer)
		}
	}
	return s
}

// Map returns the document as generic JSON values. The result is a copy.
func (s *Structure) Map() map[string]any {
	out := make(map[string]any, len(s.Layers)+1)
	out[KeyDomainType] = s.DomainType
	for name, layer := range s.Layers {
		out[name] = deepCopyMap(layer)
	}
	return out
}

func (s *Structure) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// Layer returns a copy of the named layer.
func (s *Structure) Layer(name string) (map[string]any, error) {
	if !s.Schema.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	return deepCopyMap(s.Layers[name]), nil
}

// ReplaceLayers swaps in every schema layer the answer carries as an
// object, whole, and returns their names in schema order. Anything else,
// domain_type included, is left alone.
func (s *Structure) ReplaceLayers(answer map[string]any) []string {
	var replaced []string
	for _, name := range s.Schema.Layers {
		layer, ok := answer[name].(map[string]any)
		if !ok {
			continue
		}
		s.Layers[name] = deepCopyMap(layer)
		replaced = append(replaced, name)
	}
	return replaced
}

func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}
	c := NewStructure(Schema{Kind: s.Schema.Kind, Layers: slices.Clone(s.Schema.Layers)}, s.DomainType)
	for name, layer := range s.Layers {
		c.Layers[name] = deepCopyMap(layer)
	}
	return c
}

// Load reads the document at path. When the file is absent or unusable
// the fallback document is decoded instead and loaded reports false.
func Load(path string, schema Schema, fallback []byte) (s *Structure, loaded bool, err error) {
	if path != "" {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if s, decodeErr := Decode(data, schema); decodeErr == nil {
				return s, true, nil
			}
		}
	}

	s, err = Decode(fallback, schema)
	if err != nil {
		return nil, false, fmt.Errorf("decoding default %s domain: %w", schema.Kind, err)
	}
	return s, false, nil
}

// Save overwrites the file at path with the whole document.
func Save(path string, s *Structure) error {
	if s == nil {
		return errors.New("cannot save nil domain")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating domain directory: %w", err)
	}

	data, err := json.MarshalIndent(s.Map(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s domain: %w", s.Schema.Kind, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s domain: %w", s.Schema.Kind, err)
	}
	return nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return t
	}
}
