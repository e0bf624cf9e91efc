package eeprom

import (
	"fmt"
)

// Step identifies where in a page write a failure happened.
type Step string

const (
	StepWriteEnable Step = "write enable"
	StepWrite       Step = "write"
	StepSettle      Step = "settle delay"
)

// ConfigError indicates an invalid device configuration. It is detected before
// any transport activity.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid config: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RequestError indicates a write request that cannot be carried out with the
// given payload, such as a payload longer than the address space.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid write request: %s", e.Reason)
}

// WriteError reports the page write that aborted a sequence. Pages before it
// were written; pages after it were not attempted.
type WriteError struct {
	// Segment is the 1-based number of the failed segment
	Segment int

	// Total is the number of segments in the plan
	Total int

	// Address is the start address of the failed segment
	Address uint16

	// Step is the part of the page write that failed
	Step Step

	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("segment %d of %d at 0x%04X: %s: %v",
		e.Segment, e.Total, e.Address, e.Step, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
