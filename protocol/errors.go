package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError represents a failed round trip with the device: either the
// transport reported a failure or the response did not look like a response
// to the frame that was sent.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Reason describes a malformed response (empty when Err is set)
	Reason string

	// Err is the underlying transport failure, if any
	Err error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s failed: %s", e.Operation, e.Reason)
	default:
		return fmt.Sprintf("%s failed", e.Operation)
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// CheckResponse validates the bytes clocked back during a full-duplex transfer.
// SPI exchanges one byte in for every byte out, so any other length means the
// adapter did not run the transfer it was given.
func CheckResponse(operation string, tx, rx []byte) error {
	if len(rx) != len(tx) {
		return &ProtocolError{
			Operation: operation,
			Reason:    fmt.Sprintf("response length %d, sent %d bytes", len(rx), len(tx)),
		}
	}
	return nil
}
