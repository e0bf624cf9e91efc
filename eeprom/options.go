package eeprom

import (
	"time"

	"github.com/moffa90/go-spieeprom/protocol"
	"github.com/moffa90/go-spieeprom/transport"
)

// Config holds the writer configuration.
type Config struct {
	// PageSize is the device write page size in bytes
	PageSize uint16

	// AddressWidth is the number of address bytes sent per write (1 or 2)
	AddressWidth int

	// Order is the on-wire order of a two byte address
	Order protocol.ByteOrder

	// InterPageDelay is the settle time after each page write
	InterPageDelay time.Duration

	// MinProgramTime is the device's documented write cycle time.
	// InterPageDelay must not be shorter.
	MinProgramTime time.Duration

	// Instructions are the device opcodes
	Instructions protocol.InstructionSet

	// Link, when set, is applied once before the first write if the
	// transport implements transport.Configurer
	Link *transport.LinkConfig

	// RoundTripTimeout bounds each transfer (0 disables)
	RoundTripTimeout time.Duration

	// Clock provides the settle delay (optional)
	Clock Clock

	// ProgressCallback is called during writes to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration: a 25LC256-class part.
func defaultConfig() Config {
	return Config{
		PageSize:       64,
		AddressWidth:   protocol.AddressWidth16,
		Order:          protocol.BigEndian,
		InterPageDelay: 5 * time.Millisecond,
		Instructions:   protocol.DefaultInstructionSet,
		Clock:          SystemClock{},
	}
}

// Option is a functional option for configuring the Writer.
type Option func(*Config)

// WithPageSize sets the device page size in bytes.
//
// Example:
//
//	w := eeprom.New(port, eeprom.WithPageSize(32))
func WithPageSize(size uint16) Option {
	return func(c *Config) {
		c.PageSize = size
	}
}

// WithAddressWidth sets the number of address bytes (1 or 2).
func WithAddressWidth(width int) Option {
	return func(c *Config) {
		c.AddressWidth = width
	}
}

// WithByteOrder sets the order of two byte addresses on the wire.
func WithByteOrder(order protocol.ByteOrder) Option {
	return func(c *Config) {
		c.Order = order
	}
}

// WithInterPageDelay sets the settle delay after each page write.
//
// Example:
//
//	w := eeprom.New(port, eeprom.WithInterPageDelay(5*time.Millisecond))
func WithInterPageDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InterPageDelay = d
	}
}

// WithMinProgramTime sets the device's documented write cycle time, which the
// inter-page delay is checked against.
func WithMinProgramTime(d time.Duration) Option {
	return func(c *Config) {
		c.MinProgramTime = d
	}
}

// WithInstructionSet sets the device opcodes.
func WithInstructionSet(set protocol.InstructionSet) Option {
	return func(c *Config) {
		c.Instructions = set
	}
}

// WithLinkConfig sets the SPI link settings applied before the first write.
//
// Example:
//
//	w := eeprom.New(port, eeprom.WithLinkConfig(transport.DefaultLinkConfig))
func WithLinkConfig(link transport.LinkConfig) Option {
	return func(c *Config) {
		c.Link = &link
	}
}

// WithRoundTripTimeout bounds every transfer. An expired transfer aborts the
// write like any other transport failure.
func WithRoundTripTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.RoundTripTimeout = d
		}
	}
}

// WithClock replaces the clock used for the settle delay.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithProgressCallback sets a callback function to track write progress.
//
// Example:
//
//	w := eeprom.New(port,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for writer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
