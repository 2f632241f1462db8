package stream

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTimeout is returned by New when a negative per-read timeout is given.
	ErrInvalidTimeout = errors.New("per-read timeout must not be negative")

	// ErrBusy is returned by Run when the Reader is already running a loop.
	ErrBusy = errors.New("reader is already running")
)

// TimeoutError is returned when no chunk arrived within the per-read timeout.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no chunk received within %s", e.Limit)
}

// Timeout makes TimeoutError look like a net.Error timeout.
func (e *TimeoutError) Timeout() bool {
	return true
}

// TransportError is returned when the underlying read failed for any reason other than timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream read failed: %s", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
