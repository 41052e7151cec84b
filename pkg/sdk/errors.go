package talentrag

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Use errors.Is() to check.
var (
	ErrInvalidRequest = errors.New("talentrag: invalid request")
	ErrUnauthorized   = errors.New("talentrag: unauthorized")
	ErrForbidden      = errors.New("talentrag: forbidden")
	ErrNotFound       = errors.New("talentrag: not found")
	ErrUnavailable    = errors.New("talentrag: service unavailable")
	ErrServer         = errors.New("talentrag: server error")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("talentrag: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the HTTP status onto a sentinel.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusServiceUnavailable:
		return ErrUnavailable
	case e.StatusCode >= 500:
		return ErrServer
	case e.StatusCode >= 400:
		return ErrInvalidRequest
	default:
		return nil
	}
}
