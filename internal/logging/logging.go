// Package logging builds the zerolog loggers used by the spieeprom tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moffa90/go-spieeprom/eeprom"
)

// Log formats.
const (
	FormatPlain = "plain"
	FormatText  = "text"
	FormatJSON  = "json"
)

// NewConsoleWriter parses the log format and creates an appropriate writer
// on stderr.
func NewConsoleWriter(format string) (io.Writer, error) {
	return NewConsoleWriterWith(os.Stderr, format)
}

// NewConsoleWriterWith is NewConsoleWriter writing to w.
func NewConsoleWriterWith(w io.Writer, format string) (io.Writer, error) {
	switch strings.ToLower(format) {
	case FormatPlain, FormatText:
		return newConsoleWriter(w), nil

	case FormatJSON:
		return w, nil

	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// newConsoleWriter creates a zerolog console writer that formats log messages
// as plain text for the console.
func newConsoleWriter(w io.Writer) *zerolog.ConsoleWriter {
	return &zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			if ll, ok := i.(string); ok {
				return strings.ToUpper(ll)
			}
			return "????"
		},
	}
}

// New creates a logger writing to w in the given format at the given level.
func New(w io.Writer, format, level string) (zerolog.Logger, error) {
	out, err := NewConsoleWriterWith(w, format)
	if err != nil {
		return zerolog.Nop(), err
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Adapter passes writer log output to a zerolog logger.
type Adapter struct {
	Logger zerolog.Logger
}

var _ eeprom.Logger = Adapter{}

// Debug logs at debug level.
func (a Adapter) Debug(msg string, keysAndValues ...interface{}) {
	a.Logger.Debug().Fields(keysAndValues).Msg(msg)
}

// Info logs at info level.
func (a Adapter) Info(msg string, keysAndValues ...interface{}) {
	a.Logger.Info().Fields(keysAndValues).Msg(msg)
}

// Error logs at error level.
func (a Adapter) Error(msg string, keysAndValues ...interface{}) {
	a.Logger.Error().Fields(keysAndValues).Msg(msg)
}
