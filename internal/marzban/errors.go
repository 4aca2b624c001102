package marzban

import (
	"errors"
	"fmt"
)

// Typed API outcomes. Callers branch on these with errors.Is; none of them
// is retried automatically.
var (
	// ErrAuthFailed means authentication was rejected, including after the
	// single transparent re-authentication attempt.
	ErrAuthFailed = errors.New("marzban: authentication failed")

	// ErrConflict means a node with the same address already exists.
	ErrConflict = errors.New("marzban: node already registered")

	// ErrValidationRejected means the panel rejected the request payload.
	ErrValidationRejected = errors.New("marzban: request rejected by validation")

	// ErrNotFound means the referenced node does not exist.
	ErrNotFound = errors.New("marzban: node not found")
)

// StatusError carries an unexpected HTTP status and response body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("marzban: unexpected status %d: %s", e.Code, e.Body)
}

// IsAuthFailed reports whether err is an authentication failure.
func IsAuthFailed(err error) bool { return errors.Is(err, ErrAuthFailed) }

// IsConflict reports whether err is a duplicate-registration conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidationRejected reports whether the panel rejected the payload.
func IsValidationRejected(err error) bool { return errors.Is(err, ErrValidationRejected) }

// IsNotFound reports whether the referenced node does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// isAPIError reports whether err is a definitive API response rather than
// a transport failure. API responses are never retried.
func isAPIError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) ||
		IsAuthFailed(err) || IsConflict(err) || IsValidationRejected(err) || IsNotFound(err)
}
