// Package transport defines the byte-level SPI link that EEPROM writes run over.
//
// The core write sequence only needs Transport. Backends that can change the
// link settings also implement Configurer; backends holding an OS or hardware
// handle implement io.Closer.
//
// Backends live in subpackages:
//   - periphspi: Linux spidev and other periph.io drivers
//   - rpiospi:   Raspberry Pi SPI0/SPI1 through /dev/gpiomem
//   - sim:       an in-memory EEPROM for tests and dry runs
package transport

import (
	"fmt"
	"io"
)

// Transport exchanges one SPI frame with the device. The frame is clocked out
// within a single chip-select cycle and the bytes clocked in are returned, one
// per byte sent.
type Transport interface {
	Transfer(tx []byte) ([]byte, error)
}

// Configurer is implemented by transports whose link settings can be changed.
// Configure is called once before a write sequence, never per page.
type Configurer interface {
	Configure(link LinkConfig) error
}

// Port is a transport that owns a handle which must be released.
type Port interface {
	Transport
	Configurer
	io.Closer
}

// ClockPolarity is the idle level of the SPI clock (CPOL).
type ClockPolarity uint8

const (
	// IdleLow is CPOL=0
	IdleLow ClockPolarity = iota

	// IdleHigh is CPOL=1
	IdleHigh
)

// ClockPhase selects the clock edge data is sampled on (CPHA).
type ClockPhase uint8

const (
	// FirstEdge is CPHA=0
	FirstEdge ClockPhase = iota

	// SecondEdge is CPHA=1
	SecondEdge
)

// LinkConfig holds the SPI link settings.
type LinkConfig struct {
	// Bus is the SPI controller number
	Bus uint8

	// ClockRateKHz is the SCLK frequency in kHz
	ClockRateKHz uint32

	// ChipSelect is the chip select line of the device
	ChipSelect uint8

	// Polarity is the clock idle level
	Polarity ClockPolarity

	// Phase is the sampling edge
	Phase ClockPhase
}

// DefaultLinkConfig is 1 MHz, chip select 0, SPI mode 0.
var DefaultLinkConfig = LinkConfig{
	ClockRateKHz: 1000,
	ChipSelect:   0,
	Polarity:     IdleLow,
	Phase:        FirstEdge,
}

// Mode returns the SPI mode number (0-3) for the polarity and phase.
func (c LinkConfig) Mode() int {
	return int(c.Polarity)<<1 | int(c.Phase)
}

// Validate checks the settings every backend relies on.
func (c LinkConfig) Validate() error {
	if c.ClockRateKHz == 0 {
		return fmt.Errorf("clock rate must be greater than zero")
	}
	if c.Polarity > IdleHigh {
		return fmt.Errorf("invalid clock polarity %d", c.Polarity)
	}
	if c.Phase > SecondEdge {
		return fmt.Errorf("invalid clock phase %d", c.Phase)
	}
	return nil
}

func (c LinkConfig) String() string {
	return fmt.Sprintf("bus=%d cs=%d %dkHz mode=%d", c.Bus, c.ChipSelect, c.ClockRateKHz, c.Mode())
}
