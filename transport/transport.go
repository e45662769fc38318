// Package transport implements the collaborator boundary the engine
// consumes: schema/receiver fetches and report submission over HTTP,
// issued under an ambient whistleblower session token. The engine never
// builds requests itself; it only sees success or a structured Error.
package transport

import (
	"errors"
	"fmt"
)

// Error is a transport-layer failure: the backend refused or the call
// never completed. It is retryable by design; the submission state stays
// open when one is returned.
type Error struct {
	Code   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("transport: %s (status %d)", e.Code, e.Status)
	case e.Err != nil:
		return "transport: " + e.Err.Error()
	}
	return fmt.Sprintf("transport: status %d", e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a transport failure.
func IsTransport(err error) bool {
	var te *Error
	return errors.As(err, &te)
}
