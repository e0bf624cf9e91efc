// Package rpiospi is a transport for the Raspberry Pi SPI controllers using
// go-rpio, which drives the BCM283x registers through /dev/gpiomem.
//
// go-rpio keeps its register mapping in package state, so only one Port
// should be open per process.
package rpiospi

import (
	"fmt"
	"sync"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/moffa90/go-spieeprom/transport"
)

const backendName = "rpio"

// driver is the subset of go-rpio used by Port.
type driver struct {
	open       func() error
	close      func() error
	begin      func(dev rpio.SpiDev) error
	end        func(dev rpio.SpiDev)
	chipSelect func(chip uint8)
	speed      func(hz int)
	mode       func(polarity, phase uint8)
	exchange   func(data []byte)
}

var rpioDriver = driver{
	open:       rpio.Open,
	close:      rpio.Close,
	begin:      rpio.SpiBegin,
	end:        rpio.SpiEnd,
	chipSelect: rpio.SpiChipSelect,
	speed:      rpio.SpiSpeed,
	mode:       rpio.SpiMode,
	exchange:   rpio.SpiExchange,
}

// Port is a Raspberry Pi SPI port.
type Port struct {
	mu     sync.Mutex
	drv    driver
	dev    rpio.SpiDev
	active bool
	link   transport.LinkConfig
}

var _ transport.Port = (*Port)(nil)

// New returns an unopened port. The controller is chosen from the link bus
// number on Configure.
func New() *Port {
	return &Port{drv: rpioDriver}
}

// Device maps a bus number to a go-rpio SPI device.
func Device(bus uint8) (rpio.SpiDev, error) {
	switch bus {
	case 0:
		return rpio.Spi0, nil
	case 1:
		return rpio.Spi1, nil
	case 2:
		return rpio.Spi2, nil
	default:
		return 0, fmt.Errorf("unsupported SPI bus %d", bus)
	}
}

// Configure maps the GPIO registers, enables the controller and applies
// chip select, clock rate and mode.
func (p *Port) Configure(link transport.LinkConfig) error {
	if err := link.Validate(); err != nil {
		return &transport.Error{Op: "configure", Backend: backendName, Err: err}
	}

	dev, err := Device(link.Bus)
	if err != nil {
		return &transport.Error{Op: "configure", Backend: backendName, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		p.closeLocked()
	}

	if err := p.drv.open(); err != nil {
		return &transport.Error{Op: "open", Backend: backendName, Err: err}
	}
	if err := p.drv.begin(dev); err != nil {
		_ = p.drv.close()
		return &transport.Error{Op: "open", Backend: backendName, Err: err}
	}

	p.drv.chipSelect(link.ChipSelect)
	p.drv.speed(int(link.ClockRateKHz) * 1000)
	p.drv.mode(uint8(link.Polarity), uint8(link.Phase))

	p.dev = dev
	p.link = link
	p.active = true
	return nil
}

// Transfer runs one full-duplex exchange. go-rpio exchanges in place, so the
// frame is copied first and tx is left untouched.
func (p *Port) Transfer(tx []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return nil, &transport.Error{Op: "transfer", Backend: backendName, Err: transport.ErrNotConfigured}
	}

	buf := make([]byte, len(tx))
	copy(buf, tx)
	p.drv.exchange(buf)
	return buf, nil
}

// Close disables the controller and unmaps the registers.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return nil
	}
	return p.closeLocked()
}

func (p *Port) closeLocked() error {
	p.drv.end(p.dev)
	p.active = false
	if err := p.drv.close(); err != nil {
		return &transport.Error{Op: "close", Backend: backendName, Err: err}
	}
	return nil
}
