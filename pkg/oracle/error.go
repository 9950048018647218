package oracle

import "errors"

var (
	// ErrUnavailable is returned when the backend could not be reached,
	// returned an error status, or ran past its deadline.
	ErrUnavailable = errors.New("oracle unavailable")

	// ErrMalformed is returned when a response does not contain a JSON object.
	ErrMalformed = errors.New("malformed oracle response")
)
