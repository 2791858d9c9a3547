// ABOUTME: Error taxonomy for remote mirror calls.
// ABOUTME: ErrAuthRequired for missing identity, RemoteError for transport and server failures.
package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthRequired is returned when no authenticated identity is available.
var ErrAuthRequired = errors.New("authentication required")

// RemoteError reports a failed remote call. Status is the HTTP status when the
// server answered, zero for transport failures.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the remote record does not exist.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// NotFound builds the error backends return for a missing record.
func NotFound(op, id string) error {
	return &RemoteError{Op: op, Status: http.StatusNotFound, Err: fmt.Errorf("record %s not found", id)}
}

// AuthRequired wraps ErrAuthRequired with the operation that needed it.
func AuthRequired(op string) error {
	return fmt.Errorf("%s: %w", op, ErrAuthRequired)
}
