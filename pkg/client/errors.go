package client

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when input validation fails before a request is sent
	ErrValidation = errors.New("validation error")

	// ErrAuthentication is returned when the API rejects the credentials
	ErrAuthentication = errors.New("authentication failed")

	// ErrRunNotFound is returned when a status lookup names an unknown run
	ErrRunNotFound = errors.New("run not found")

	// ErrTimeout is returned on a transport timeout or an exhausted poll budget
	ErrTimeout = errors.New("timeout")
)

// APIError carries the remote error detail for a classified non-2xx response.
// It wraps one of the sentinel errors above when the status code maps to the
// taxonomy (401, 404), and stands alone for other remote failures.
type APIError struct {
	StatusCode int
	Msg        string
	Code       int
	err        error
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("api error (http %d, code %d): %s", e.StatusCode, e.Code, e.Msg)
	}
	return fmt.Sprintf("api error (http %d): %s", e.StatusCode, e.Msg)
}

func (e *APIError) Unwrap() error {
	return e.err
}
