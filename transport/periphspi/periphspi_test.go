package periphspi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/moffa90/go-spieeprom/transport"
)

type fakeConn struct {
	writes [][]byte
	txErr  error
}

func (c *fakeConn) String() string { return "fake-conn" }

func (c *fakeConn) Duplex() conn.Duplex { return conn.Full }

func (c *fakeConn) Tx(w, r []byte) error {
	if c.txErr != nil {
		return c.txErr
	}
	c.writes = append(c.writes, append([]byte(nil), w...))
	for i := range r {
		r[i] = 0xFF
	}
	return nil
}

func (c *fakeConn) TxPackets(p []spi.Packet) error { return nil }

type fakePort struct {
	conn       *fakeConn
	freq       physic.Frequency
	mode       spi.Mode
	bits       int
	closed     bool
	connectErr error
}

func (p *fakePort) String() string { return "fake-port" }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	p.freq, p.mode, p.bits = f, mode, bits
	return p.conn, nil
}

func (p *fakePort) LimitSpeed(f physic.Frequency) error { return nil }

func newTestPort(name string, fp *fakePort) (*Port, *[]string) {
	var opened []string
	p := New(name)
	p.initHost = func() error { return nil }
	p.openPort = func(n string) (spi.PortCloser, error) {
		opened = append(opened, n)
		return fp, nil
	}
	return p, &opened
}

func TestConfigure(t *testing.T) {
	fp := &fakePort{conn: &fakeConn{}}
	p, opened := newTestPort("", fp)

	link := transport.LinkConfig{Bus: 1, ClockRateKHz: 1000, ChipSelect: 2, Polarity: transport.IdleHigh}
	require.NoError(t, p.Configure(link))

	assert.Equal(t, []string{"SPI1.2"}, *opened)
	assert.Equal(t, physic.MegaHertz, fp.freq)
	assert.Equal(t, spi.Mode2, fp.mode)
	assert.Equal(t, BitsPerWord, fp.bits)
}

func TestConfigureExplicitName(t *testing.T) {
	fp := &fakePort{conn: &fakeConn{}}
	p, opened := newTestPort("/dev/spidev0.0", fp)

	require.NoError(t, p.Configure(transport.DefaultLinkConfig))
	assert.Equal(t, []string{"/dev/spidev0.0"}, *opened)
}

func TestReconfigureReopens(t *testing.T) {
	fp := &fakePort{conn: &fakeConn{}}
	p, opened := newTestPort("", fp)

	require.NoError(t, p.Configure(transport.DefaultLinkConfig))
	require.NoError(t, p.Configure(transport.DefaultLinkConfig))

	assert.Len(t, *opened, 2)
	assert.True(t, fp.closed)
}

func TestConfigureErrors(t *testing.T) {
	t.Run("invalid link", func(t *testing.T) {
		p, _ := newTestPort("", &fakePort{conn: &fakeConn{}})
		err := p.Configure(transport.LinkConfig{})
		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "configure", te.Op)
	})

	t.Run("host init fails", func(t *testing.T) {
		p, _ := newTestPort("", &fakePort{conn: &fakeConn{}})
		p.initHost = func() error { return errors.New("no drivers") }
		err := p.Configure(transport.DefaultLinkConfig)
		assert.ErrorContains(t, err, "no drivers")
	})

	t.Run("open fails", func(t *testing.T) {
		p := New("")
		p.initHost = func() error { return nil }
		p.openPort = func(string) (spi.PortCloser, error) { return nil, errors.New("not found") }
		err := p.Configure(transport.DefaultLinkConfig)
		assert.ErrorContains(t, err, "SPI0.0: not found")
	})

	t.Run("connect fails closes port", func(t *testing.T) {
		fp := &fakePort{conn: &fakeConn{}, connectErr: errors.New("bad mode")}
		p, _ := newTestPort("", fp)
		err := p.Configure(transport.DefaultLinkConfig)
		assert.ErrorContains(t, err, "bad mode")
		assert.True(t, fp.closed)
	})
}

func TestTransfer(t *testing.T) {
	fc := &fakeConn{}
	p, _ := newTestPort("", &fakePort{conn: fc})

	_, err := p.Transfer([]byte{0x06})
	assert.ErrorIs(t, err, transport.ErrNotConfigured)

	require.NoError(t, p.Configure(transport.DefaultLinkConfig))

	rx, err := p.Transfer([]byte{0x02, 0x00, 0x10, 0xAB})
	require.NoError(t, err)
	assert.Len(t, rx, 4)
	assert.Equal(t, [][]byte{{0x02, 0x00, 0x10, 0xAB}}, fc.writes)

	fc.txErr = errors.New("bus error")
	_, err = p.Transfer([]byte{0x06})
	var te *transport.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "periph transfer: bus error", te.Error())
}

func TestClose(t *testing.T) {
	fp := &fakePort{conn: &fakeConn{}}
	p, _ := newTestPort("", fp)

	assert.NoError(t, p.Close())
	assert.Equal(t, "periph(closed)", p.String())

	require.NoError(t, p.Configure(transport.DefaultLinkConfig))
	assert.Contains(t, p.String(), "fake-port")
	require.NoError(t, p.Close())
	assert.True(t, fp.closed)

	_, err := p.Transfer([]byte{0x06})
	assert.ErrorIs(t, err, transport.ErrNotConfigured)
}
