// Package periphspi is a transport backed by periph.io, covering Linux spidev
// and the other SPI drivers periph registers (FTDI MPSSE, bcm283x, ...).
package periphspi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/moffa90/go-spieeprom/transport"
)

const backendName = "periph"

// BitsPerWord is fixed: EEPROM instructions are byte oriented.
const BitsPerWord = 8

// Port is a periph.io SPI port. It opens the port on Configure and keeps it
// open until Close.
type Port struct {
	name string

	mu   sync.Mutex
	port spi.PortCloser
	conn spi.Conn
	link transport.LinkConfig

	// overridable for tests
	initHost func() error
	openPort func(name string) (spi.PortCloser, error)
}

var _ transport.Port = (*Port)(nil)

// New returns an unopened port. name is a periph port name such as
// "/dev/spidev0.0" or "SPI0.0"; when empty the name is derived from the
// bus and chip select of the link configuration.
func New(name string) *Port {
	return &Port{
		name:     name,
		initHost: initHost,
		openPort: spireg.Open,
	}
}

func initHost() error {
	_, err := host.Init()
	return err
}

// PortName returns the periph name for a bus and chip select, e.g. "SPI0.1".
func PortName(link transport.LinkConfig) string {
	return fmt.Sprintf("SPI%d.%d", link.Bus, link.ChipSelect)
}

// Frequency converts the link clock rate to a periph frequency.
func Frequency(link transport.LinkConfig) physic.Frequency {
	return physic.Frequency(link.ClockRateKHz) * physic.KiloHertz
}

// Configure opens the port and connects with the requested clock and mode.
// periph only allows one Connect per open port, so reconfiguring reopens it.
func (p *Port) Configure(link transport.LinkConfig) error {
	if err := link.Validate(); err != nil {
		return &transport.Error{Op: "configure", Backend: backendName, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port != nil {
		if err := p.closeLocked(); err != nil {
			return err
		}
	}

	if err := p.initHost(); err != nil {
		return &transport.Error{Op: "init", Backend: backendName, Err: err}
	}

	name := p.name
	if name == "" {
		name = PortName(link)
	}

	port, err := p.openPort(name)
	if err != nil {
		return &transport.Error{Op: "open", Backend: backendName, Err: fmt.Errorf("%s: %w", name, err)}
	}

	c, err := port.Connect(Frequency(link), spi.Mode(link.Mode()), BitsPerWord)
	if err != nil {
		_ = port.Close()
		return &transport.Error{Op: "connect", Backend: backendName, Err: err}
	}

	p.port = port
	p.conn = c
	p.link = link
	return nil
}

// Transfer runs one full-duplex transaction.
func (p *Port) Transfer(tx []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil, &transport.Error{Op: "transfer", Backend: backendName, Err: transport.ErrNotConfigured}
	}

	rx := make([]byte, len(tx))
	if err := p.conn.Tx(tx, rx); err != nil {
		return nil, &transport.Error{Op: "transfer", Backend: backendName, Err: err}
	}
	return rx, nil
}

// Close releases the port. Closing an unopened port is a no-op.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return nil
	}
	return p.closeLocked()
}

func (p *Port) closeLocked() error {
	err := p.port.Close()
	p.port = nil
	p.conn = nil
	if err != nil {
		return &transport.Error{Op: "close", Backend: backendName, Err: err}
	}
	return nil
}

func (p *Port) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return "periph(closed)"
	}
	return fmt.Sprintf("periph(%s %s)", p.port, p.link)
}
