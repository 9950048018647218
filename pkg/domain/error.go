package domain

import "errors"

var (
	// ErrUnknownLayer is returned for a layer name outside the schema.
	ErrUnknownLayer = errors.New("unknown domain layer")

	// ErrInvalidDocument is returned when a document is not a JSON object.
	ErrInvalidDocument = errors.New("invalid domain document")
)
