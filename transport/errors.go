package transport

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by backends asked to transfer before Configure.
var ErrNotConfigured = errors.New("transport not configured")

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("transport closed")

// Error is a link-level fault reported by a backend.
type Error struct {
	// Op is the backend operation that failed (open, configure, transfer, close)
	Op string

	// Backend names the backend that failed
	Backend string

	Err error
}

func (e *Error) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
