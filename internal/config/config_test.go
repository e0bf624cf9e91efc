package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-spieeprom/eeprom"
	"github.com/moffa90/go-spieeprom/protocol"
	"github.com/moffa90/go-spieeprom/transport"
	"github.com/moffa90/go-spieeprom/transport/sim"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, &want, cfg)
	assert.Equal(t, "sim", cfg.Backend)
	assert.Equal(t, uint16(64), cfg.Device.PageSize)
	assert.Equal(t, transport.DefaultLinkConfig, cfg.Link.LinkConfig())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "spieeprom.yaml", `
backend: periph
timeout: 250ms
device:
  page-size: 16
  address-width: 1
  inter-page-delay: 10ms
link:
  bus: 1
  clock-khz: 4000
  chip-select: 1
  mode: 3
log:
  level: debug
  format: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "periph", cfg.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, uint16(16), cfg.Device.PageSize)
	assert.Equal(t, 1, cfg.Device.AddressWidth)
	assert.Equal(t, 10*time.Millisecond, cfg.Device.InterPageDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	link := cfg.Link.LinkConfig()
	assert.Equal(t, uint8(1), link.Bus)
	assert.Equal(t, uint32(4000), link.ClockRateKHz)
	assert.Equal(t, transport.IdleHigh, link.Polarity)
	assert.Equal(t, transport.SecondEdge, link.Phase)
	assert.Equal(t, 3, link.Mode())
}

func TestLoadPreset(t *testing.T) {
	path := writeFile(t, "spieeprom.yaml", `
device:
  preset: ni845x-demo
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, uint16(32), cfg.Device.PageSize)
	assert.Equal(t, time.Millisecond, cfg.Device.InterPageDelay)

	set, err := cfg.Device.Instructions()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0x12, 0x34, 0x56}, protocol.BuildWriteEnableCmd(set))
}

func TestPresetOverriddenByFile(t *testing.T) {
	path := writeFile(t, "spieeprom.yaml", `
device:
  preset: 25aa010a
  page-size: 8
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(8), cfg.Device.PageSize)
	assert.Equal(t, 1, cfg.Device.AddressWidth)
	assert.Equal(t, 128, cfg.Device.Size)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SPIEEPROM_DEVICE_PAGE_SIZE", "128")
	t.Setenv("SPIEEPROM_LINK_CLOCK_KHZ", "500")
	t.Setenv("SPIEEPROM_DEVICE_PRESET", "25lc640")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(128), cfg.Device.PageSize)
	assert.Equal(t, uint32(500), cfg.Link.ClockRateKHz)
	assert.Equal(t, 8*1024, cfg.Device.Size)
}

func TestLoadFlags(t *testing.T) {
	t.Setenv("SPIEEPROM_DEVICE_PAGE_SIZE", "128")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--page-size=32",
		"--byte-order=little",
		"--delay=7ms",
		"--log-level=warn",
	}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, uint16(32), cfg.Device.PageSize, "flags win over the environment")
	assert.Equal(t, protocol.LittleEndian, cfg.Device.Order())
	assert.Equal(t, 7*time.Millisecond, cfg.Device.InterPageDelay)
	assert.Equal(t, "warn", cfg.Log.Level)

	// unset flags keep the defaults
	assert.Equal(t, "sim", cfg.Backend)
	assert.Equal(t, uint32(1000), cfg.Link.ClockRateKHz)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		errMsg string
	}{
		{name: "unknown preset", file: "device:\n  preset: 93c46\n", errMsg: `unknown device preset "93c46"`},
		{name: "backend", file: "backend: usb\n", errMsg: "Backend"},
		{name: "page size", file: "device:\n  page-size: 0\n", errMsg: "PageSize"},
		{name: "page too large", file: "device:\n  page-size: 1024\n", errMsg: "PageSize"},
		{name: "address width", file: "device:\n  address-width: 3\n", errMsg: "AddressWidth"},
		{name: "byte order", file: "device:\n  byte-order: middle\n", errMsg: "ByteOrder"},
		{
			name:   "delay below program time",
			file:   "device:\n  inter-page-delay: 1ms\n  min-program-time: 5ms\n",
			errMsg: "MinProgramTime",
		},
		{name: "shared opcode", file: "device:\n  write-enable: 2\n", errMsg: "Write"},
		{name: "payload", file: "device:\n  write-enable-payload: zz\n", errMsg: "WriteEnablePayload"},
		{name: "mode", file: "link:\n  mode: 4\n", errMsg: "Mode"},
		{name: "clock", file: "link:\n  clock-khz: 0\n", errMsg: "ClockRateKHz"},
		{name: "log format", file: "log:\n  format: xml\n", errMsg: "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "spieeprom.yaml", tt.file), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "read:")
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{"25aa010a", "25lc256", "25lc512", "25lc640", "ni845x-demo"}, names)
	assert.Contains(t, Presets, DefaultPreset)
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Device = Presets[name]
			require.NoError(t, cfg.Validate())

			opts, err := cfg.WriterOptions()
			require.NoError(t, err)
			assert.NoError(t, eeprom.New(sim.New(sim.Config{}), opts...).Validate())
		})
	}
}

func TestWriterOptions(t *testing.T) {
	cfg := Default()
	cfg.Device = Presets["ni845x-demo"]
	cfg.Timeout = time.Second

	opts, err := cfg.WriterOptions()
	require.NoError(t, err)

	got := eeprom.New(sim.New(sim.Config{}), opts...).Config()
	assert.Equal(t, uint16(32), got.PageSize)
	assert.Equal(t, protocol.AddressWidth16, got.AddressWidth)
	assert.Equal(t, protocol.BigEndian, got.Order)
	assert.Equal(t, time.Millisecond, got.InterPageDelay)
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, got.Instructions.WriteEnablePayload)
	assert.Equal(t, time.Second, got.RoundTripTimeout)
	require.NotNil(t, got.Link)
	assert.Equal(t, transport.DefaultLinkConfig, *got.Link)
}
