// Package config loads the spieeprom tool configuration.
//
// Values are layered, highest priority first: command line flags,
// SPIEEPROM_* environment variables, the config file, the selected device
// preset, then built-in defaults.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moffa90/go-spieeprom/eeprom"
	"github.com/moffa90/go-spieeprom/protocol"
	"github.com/moffa90/go-spieeprom/transport"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SPIEEPROM"

// Config is the tool configuration.
type Config struct {
	// Backend selects the transport: sim, periph or rpio
	Backend string `mapstructure:"backend" validate:"oneof=sim periph rpio"`

	// Port overrides the periph.io port name derived from the link
	Port string `mapstructure:"port"`

	// Timeout bounds every SPI round trip (0 disables)
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	Device Device `mapstructure:"device"`
	Link   Link   `mapstructure:"link"`
	Log    Log    `mapstructure:"log"`
}

// Device describes the EEPROM part.
type Device struct {
	Preset             string        `mapstructure:"preset"`
	Size               int           `mapstructure:"size" validate:"min=1,max=65536"`
	PageSize           uint16        `mapstructure:"page-size" validate:"min=1,max=512"`
	AddressWidth       int           `mapstructure:"address-width" validate:"oneof=1 2"`
	ByteOrder          string        `mapstructure:"byte-order" validate:"oneof=big little"`
	InterPageDelay     time.Duration `mapstructure:"inter-page-delay" validate:"gte=0"`
	MinProgramTime     time.Duration `mapstructure:"min-program-time" validate:"gte=0,ltefield=InterPageDelay"`
	WriteEnable        uint8         `mapstructure:"write-enable"`
	WriteEnablePayload string        `mapstructure:"write-enable-payload" validate:"omitempty,hexadecimal"`
	Write              uint8         `mapstructure:"write" validate:"nefield=WriteEnable"`
}

// Link holds the SPI link settings.
type Link struct {
	Bus          uint8  `mapstructure:"bus"`
	ClockRateKHz uint32 `mapstructure:"clock-khz" validate:"min=1"`
	ChipSelect   uint8  `mapstructure:"chip-select"`
	Mode         int    `mapstructure:"mode" validate:"min=0,max=3"`
}

// Log holds the logging settings.
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `mapstructure:"format" validate:"oneof=plain text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	link := transport.DefaultLinkConfig
	return Config{
		Backend: "sim",
		Device:  Presets[DefaultPreset],
		Link: Link{
			Bus:          link.Bus,
			ClockRateKHz: link.ClockRateKHz,
			ChipSelect:   link.ChipSelect,
			Mode:         link.Mode(),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"backend":          "backend",
	"port":             "port",
	"timeout":          "timeout",
	"preset":           "device.preset",
	"size":             "device.size",
	"page-size":        "device.page-size",
	"address-width":    "device.address-width",
	"byte-order":       "device.byte-order",
	"delay":            "device.inter-page-delay",
	"min-program-time": "device.min-program-time",
	"bus":              "link.bus",
	"clock-khz":        "link.clock-khz",
	"chip-select":      "link.chip-select",
	"mode":             "link.mode",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("backend", d.Backend, "Transport backend (sim, periph, rpio)")
	fs.String("port", "", "periph.io SPI port name (default SPI<bus>.<chip-select>)")
	fs.Duration("timeout", 0, "Per round trip timeout (0 disables)")
	fs.String("preset", "", "Device preset (see 'spieeprom presets')")
	fs.Int("size", d.Device.Size, "Device size in bytes (sim backend)")
	fs.Uint16("page-size", d.Device.PageSize, "Device page size in bytes")
	fs.Int("address-width", d.Device.AddressWidth, "Address bytes per write (1 or 2)")
	fs.String("byte-order", d.Device.ByteOrder, "Address byte order (big or little)")
	fs.Duration("delay", d.Device.InterPageDelay, "Settle delay after each page")
	fs.Duration("min-program-time", d.Device.MinProgramTime, "Device write cycle time")
	fs.Uint8("bus", d.Link.Bus, "SPI bus number")
	fs.Uint32("clock-khz", d.Link.ClockRateKHz, "SPI clock rate in kHz")
	fs.Uint8("chip-select", d.Link.ChipSelect, "SPI chip select")
	fs.Int("mode", d.Link.Mode, "SPI mode (0-3)")
	fs.String("log-level", d.Log.Level, "Log level")
	fs.String("log-format", d.Log.Format, "Log format (plain, text, json)")
}

// Load reads the configuration. file may be empty and flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if name := v.GetString("device.preset"); name != "" {
		preset, ok := Presets[name]
		if !ok {
			return nil, fmt.Errorf("unknown device preset %q", name)
		}
		setDeviceDefaults(v, preset)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if _, err := c.Device.Instructions(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("backend", c.Backend)
	v.SetDefault("port", c.Port)
	v.SetDefault("timeout", c.Timeout)
	v.SetDefault("device.preset", c.Device.Preset)
	setDeviceDefaults(v, c.Device)
	v.SetDefault("link.bus", c.Link.Bus)
	v.SetDefault("link.clock-khz", c.Link.ClockRateKHz)
	v.SetDefault("link.chip-select", c.Link.ChipSelect)
	v.SetDefault("link.mode", c.Link.Mode)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
}

func setDeviceDefaults(v *viper.Viper, d Device) {
	v.SetDefault("device.size", d.Size)
	v.SetDefault("device.page-size", d.PageSize)
	v.SetDefault("device.address-width", d.AddressWidth)
	v.SetDefault("device.byte-order", d.ByteOrder)
	v.SetDefault("device.inter-page-delay", d.InterPageDelay)
	v.SetDefault("device.min-program-time", d.MinProgramTime)
	v.SetDefault("device.write-enable", d.WriteEnable)
	v.SetDefault("device.write-enable-payload", d.WriteEnablePayload)
	v.SetDefault("device.write", d.Write)
}

// Order returns the address byte order.
func (d Device) Order() protocol.ByteOrder {
	order, err := protocol.ParseByteOrder(d.ByteOrder)
	if err != nil {
		return protocol.BigEndian
	}
	return order
}

// Instructions returns the device opcodes.
func (d Device) Instructions() (protocol.InstructionSet, error) {
	set := protocol.InstructionSet{
		WriteEnable: d.WriteEnable,
		Write:       d.Write,
	}
	if d.WriteEnablePayload != "" {
		s := strings.TrimPrefix(strings.TrimPrefix(d.WriteEnablePayload, "0x"), "0X")
		payload, err := hex.DecodeString(s)
		if err != nil {
			return protocol.InstructionSet{}, fmt.Errorf("write enable payload: %w", err)
		}
		set.WriteEnablePayload = payload
	}
	return set, nil
}

// LinkConfig returns the transport link settings.
func (l Link) LinkConfig() transport.LinkConfig {
	return transport.LinkConfig{
		Bus:          l.Bus,
		ClockRateKHz: l.ClockRateKHz,
		ChipSelect:   l.ChipSelect,
		Polarity:     transport.ClockPolarity(l.Mode >> 1),
		Phase:        transport.ClockPhase(l.Mode & 1),
	}
}

// WriterOptions converts the configuration to eeprom writer options.
func (c *Config) WriterOptions() ([]eeprom.Option, error) {
	set, err := c.Device.Instructions()
	if err != nil {
		return nil, err
	}

	return []eeprom.Option{
		eeprom.WithPageSize(c.Device.PageSize),
		eeprom.WithAddressWidth(c.Device.AddressWidth),
		eeprom.WithByteOrder(c.Device.Order()),
		eeprom.WithInterPageDelay(c.Device.InterPageDelay),
		eeprom.WithMinProgramTime(c.Device.MinProgramTime),
		eeprom.WithInstructionSet(set),
		eeprom.WithLinkConfig(c.Link.LinkConfig()),
		eeprom.WithRoundTripTimeout(c.Timeout),
	}, nil
}
