package pageplan

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroPageSize is returned when the page size is zero.
	ErrZeroPageSize = errors.New("page size must be greater than zero")

	// ErrAddressOverflow is returned when the last byte of a write lies past 0xFFFF.
	ErrAddressOverflow = errors.New("write extends past the 16-bit address space")
)

// CapacityError indicates that the segment buffer handed to ComputeInto is too
// small for the requested write.
type CapacityError struct {
	Capacity int
	Required int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("segment buffer too small: capacity %d, %d segments required",
		e.Capacity, e.Required)
}
