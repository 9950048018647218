package domain

import _ "embed"

var (
	//go:embed defaults/user_domain.json
	defaultUserDocument []byte

	//go:embed defaults/self_domain.json
	defaultSelfDocument []byte
)

// DefaultDocument returns the built-in document for a kind.
func DefaultDocument(kind Kind) []byte {
	if kind == KindSelf {
		return defaultSelfDocument
	}
	return defaultUserDocument
}

// Default decodes the built-in document for a schema.
func Default(schema Schema) (*Structure, error) {
	return Decode(DefaultDocument(schema.Kind), schema)
}
