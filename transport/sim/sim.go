// Package sim simulates a 25xx-style SPI EEPROM behind the transport interface.
//
// The model follows the datasheet behaviour that matters for page writes:
//   - a write is only accepted after a write enable, and clears the latch
//   - bytes written past the end of a page wrap to the start of that page
//   - READ and RDSR return memory contents and the latch state
//
// It also journals every frame and can inject faults, which makes it the
// device used by the tests, the examples and the CLI's dry-run backend.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-spieeprom/protocol"
	"github.com/moffa90/go-spieeprom/transport"
)

// Status register bits.
const (
	StatusWIP = 0x01
	StatusWEL = 0x02
)

// Erased is the value of an unprogrammed EEPROM byte.
const Erased = 0xFF

// Config describes the simulated part.
type Config struct {
	// Size is the memory size in bytes (default 64 KiB)
	Size int

	// PageSize is the write page size in bytes (default 64)
	PageSize uint16

	// AddressWidth is the number of address bytes (default 2)
	AddressWidth int

	// Order is the address byte order (default big endian)
	Order protocol.ByteOrder

	// Instructions are the opcodes the part answers to (default 25xx set)
	Instructions protocol.InstructionSet

	// Latency is added to every transfer
	Latency time.Duration
}

func (c Config) withDefaults() Config {
	if c.Size <= 0 {
		c.Size = 1 << 16
	}
	if c.PageSize == 0 {
		c.PageSize = 64
	}
	if c.AddressWidth == 0 {
		c.AddressWidth = protocol.AddressWidth16
	}
	if !c.Order.Valid() {
		c.Order = protocol.BigEndian
	}
	if c.Instructions.WriteEnable == 0 && c.Instructions.Write == 0 {
		c.Instructions = protocol.DefaultInstructionSet
	}
	return c
}

// Device is an in-memory EEPROM. It is safe for concurrent use, though a real
// bus would serialize transfers anyway.
type Device struct {
	mu sync.Mutex

	cfg      Config
	mem      []byte
	latch    bool
	frames   [][]byte
	rejected int

	faults map[int]error
	short  map[int]bool

	link       transport.LinkConfig
	configured bool
	closed     bool
}

var _ transport.Port = (*Device)(nil)

// New returns an erased device.
func New(cfg Config) *Device {
	cfg = cfg.withDefaults()

	mem := make([]byte, cfg.Size)
	for i := range mem {
		mem[i] = Erased
	}

	return &Device{
		cfg:    cfg,
		mem:    mem,
		faults: make(map[int]error),
		short:  make(map[int]bool),
	}
}

// FailOn makes the n-th transfer (1-based) fail with err without touching memory.
func (d *Device) FailOn(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[n] = err
}

// ShortResponseOn makes the n-th transfer (1-based) return an empty response.
func (d *Device) ShortResponseOn(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.short[n] = true
}

// Configure records the link settings.
func (d *Device) Configure(link transport.LinkConfig) error {
	if err := link.Validate(); err != nil {
		return &transport.Error{Op: "configure", Backend: "sim", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.link = link
	d.configured = true
	d.closed = false
	return nil
}

// Link returns the last applied link settings and whether Configure was called.
func (d *Device) Link() (transport.LinkConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.link, d.configured
}

// Close marks the device closed; further transfers fail.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Transfer executes one frame.
func (d *Device) Transfer(tx []byte) ([]byte, error) {
	if d.cfg.Latency > 0 {
		time.Sleep(d.cfg.Latency)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, &transport.Error{Op: "transfer", Backend: "sim", Err: transport.ErrClosed}
	}

	d.frames = append(d.frames, append([]byte(nil), tx...))
	n := len(d.frames)

	if err, ok := d.faults[n]; ok {
		return nil, &transport.Error{Op: "transfer", Backend: "sim", Err: err}
	}

	rx := make([]byte, len(tx))
	for i := range rx {
		rx[i] = Erased
	}

	if len(tx) > 0 {
		d.execute(tx, rx)
	}

	if d.short[n] {
		return rx[:0], nil
	}
	return rx, nil
}

func (d *Device) execute(tx, rx []byte) {
	set := d.cfg.Instructions

	switch tx[0] {
	case set.WriteEnable:
		d.latch = true
	case set.Write:
		d.handleWrite(tx)
	case protocol.OpWriteDisable:
		d.latch = false
	case protocol.OpReadStatus:
		if len(rx) > 1 {
			var status byte
			if d.latch {
				status |= StatusWEL
			}
			rx[1] = status
		}
	case protocol.OpRead:
		d.handleRead(tx, rx)
	}
}

func (d *Device) handleWrite(tx []byte) {
	header := protocol.OpcodeSize + d.cfg.AddressWidth
	if !d.latch || len(tx) <= header {
		d.rejected++
		return
	}

	addr := d.decodeAddress(tx[protocol.OpcodeSize:header])
	page := int(d.cfg.PageSize)
	pageStart := addr - addr%page
	for i, b := range tx[header:] {
		off := (addr%page + i) % page
		d.mem[(pageStart+off)%len(d.mem)] = b
	}

	d.latch = false
}

func (d *Device) handleRead(tx, rx []byte) {
	header := protocol.OpcodeSize + d.cfg.AddressWidth
	if len(tx) <= header {
		return
	}

	addr := d.decodeAddress(tx[protocol.OpcodeSize:header])
	for i := header; i < len(rx); i++ {
		rx[i] = d.mem[(addr+i-header)%len(d.mem)]
	}
}

func (d *Device) decodeAddress(b []byte) int {
	var addr int
	switch {
	case len(b) == 1:
		addr = int(b[0])
	case d.cfg.Order == protocol.LittleEndian:
		addr = int(b[0]) | int(b[1])<<8
	default:
		addr = int(b[0])<<8 | int(b[1])
	}
	return addr % len(d.mem)
}

// Read returns a copy of n bytes of memory starting at addr.
func (d *Device) Read(addr, n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, n)
	for i := range out {
		out[i] = d.mem[(addr+i)%len(d.mem)]
	}
	return out
}

// Frames returns a copy of every frame received, in order.
func (d *Device) Frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	frames := make([][]byte, len(d.frames))
	for i, f := range d.frames {
		frames[i] = append([]byte(nil), f...)
	}
	return frames
}

// Transfers returns the number of transfers attempted.
func (d *Device) Transfers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

// RejectedWrites counts write frames ignored because the latch was clear
// or the frame carried no data.
func (d *Device) RejectedWrites() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rejected
}

// WriteEnabled reports the state of the write enable latch.
func (d *Device) WriteEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latch
}

func (d *Device) String() string {
	return fmt.Sprintf("sim(%d bytes, %d-byte pages)", d.cfg.Size, d.cfg.PageSize)
}
