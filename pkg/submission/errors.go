package submission

import (
	"errors"
	"net/http"
)

// Sentinel errors for submission operations.
var (
	ErrNoFilesSelected   = &ValidationError{Reason: "NoFilesSelected"}
	ErrSubmissionPending = errors.New("submission already in flight")
	ErrRemoved           = errors.New("uploader removed")
	ErrUnknownHook       = errors.New("hook not registered")
	ErrUnknownListener   = errors.New("listener not registered")
	ErrEnrichmentFailed  = errors.New("enrichment failed")
	ErrInvalidConfig     = errors.New("invalid submission config")
)

// ValidationError reports a submission rejected locally before any network activity.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// Is matches any ValidationError with the same reason.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

// MapHTTPStatus maps submission errors to HTTP status codes for hosts that
// relay local failures over HTTP.
func MapHTTPStatus(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrSubmissionPending) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRemoved) {
		return http.StatusGone
	}
	if errors.Is(err, ErrEnrichmentFailed) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
