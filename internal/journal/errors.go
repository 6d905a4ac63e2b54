package journal

import (
	"errors"
	"net/http"
)

// Domain errors for journal operations.
var (
	ErrNotFound  = errors.New("journal entry not found")
	ErrDuplicate = errors.New("journal entry already exists")
	ErrInvalidID = errors.New("invalid journal entry id")
	ErrInvalid   = errors.New("invalid journal query")
)

// MapHTTPStatus maps journal errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
