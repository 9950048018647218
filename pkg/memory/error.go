package memory

import "errors"

var (
	// ErrNotConfigured is returned when a store or builder is missing a
	// required collaborator such as the log driver.
	ErrNotConfigured = errors.New("memory not configured")

	// ErrEmptyLog is returned by lookups against a log with no records.
	ErrEmptyLog = errors.New("no memories stored")

	ErrRecordNotFound = errors.New("no memory matches")

	// ErrAmbiguousRef is returned when an id prefix matches several records.
	ErrAmbiguousRef = errors.New("ambiguous memory reference")
)
