package eeprom

import (
	"context"
	"time"
)

// Progress phases.
const (
	PhasePlanning = "planning"
	PhaseWriting  = "writing"
	PhaseComplete = "complete"
)

// Progress contains information about the progress of a write.
// Passed to ProgressCallback during write operations.
type Progress struct {
	// Phase describes the current operation phase:
	//   "planning" - Splitting the write into pages
	//   "writing"  - Writing pages
	//   "complete" - All pages written
	Phase string

	// CurrentSegment is the number of segments written so far
	CurrentSegment int

	// TotalSegments is the number of segments in the plan
	TotalSegments int

	// Address is the start address of the segment just written
	Address uint16

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the total number of bytes written so far
	BytesWritten int

	// ElapsedTime is the time elapsed since the write started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each page to report progress.
// Implementations should return quickly; the device is idle while it runs.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the writer.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Clock blocks the caller for the settle delay between pages.
type Clock interface {
	// Sleep blocks for d, or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock sleeps on the wall clock.
type SystemClock struct{}

// Sleep waits for d or for ctx to be cancelled, whichever comes first.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
