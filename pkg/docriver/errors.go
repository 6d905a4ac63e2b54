package docriver

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrMissingName  = errors.New("document name required")
)

// StatusError is a non-success response from the docriver server.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docriver status %d: %s", e.Status, e.Body)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	default:
		return nil
	}
}
