package dnac

import (
	"errors"
	"fmt"
)

// ErrTokenMissing indicates the controller answered the auth call without a token.
var ErrTokenMissing = errors.New("dnac: token missing in auth response")

// AuthError wraps any failure to obtain or refresh an API token.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("dnac: auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitedError is returned when the controller answered 429 and the
// bounded retry budget is exhausted.
type RateLimitedError struct {
	Endpoint string
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("dnac: %s rate limited after %d attempts", e.Endpoint, e.Attempts)
}

// UnavailableError is returned for HTTP 404 and 500 answers. Callers treat it
// as a signal that the controller is in a maintenance window.
type UnavailableError struct {
	Endpoint   string
	StatusCode int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("dnac: %s unavailable: http %d", e.Endpoint, e.StatusCode)
}

// MalformedResponseError is returned when an expected top-level field is
// absent from an otherwise successful answer.
type MalformedResponseError struct {
	Endpoint string
	Field    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("dnac: %s returned no %q field", e.Endpoint, e.Field)
}

// IsUnavailable reports whether err carries an UnavailableError anywhere in
// its chain.
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	return errors.As(err, &unavailable)
}

// IsRateLimited reports whether err carries a RateLimitedError.
func IsRateLimited(err error) bool {
	var limited *RateLimitedError
	return errors.As(err, &limited)
}
