package transport

import (
	"errors"
	"fmt"
)

// errMalformed marks a 2xx response whose body could not be used.
var errMalformed = errors.New("malformed response body")

// Error is the single failure kind of the client. Network failures, non-2xx statuses and
// unusable bodies all end up here; Err keeps the cause for logging.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransportError reports whether err carries a *Error.
func IsTransportError(err error) bool {
	var te *Error
	return errors.As(err, &te)
}
