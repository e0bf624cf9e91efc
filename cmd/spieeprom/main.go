package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	. "github.com/moffa90/go-spieeprom/internal/cmdutil"
	"github.com/moffa90/go-spieeprom/internal/config"
	"github.com/moffa90/go-spieeprom/internal/logging"
	"github.com/moffa90/go-spieeprom/transport"
	"github.com/moffa90/go-spieeprom/transport/periphspi"
	"github.com/moffa90/go-spieeprom/transport/rpiospi"
	"github.com/moffa90/go-spieeprom/transport/sim"
)

func main() {
	_ = cmd.Execute()
}

var cmd = &cobra.Command{
	Use:          "spieeprom",
	Short:        "Write data to page-organized SPI EEPROMs",
	SilenceUsage: true,
}

var flag = struct {
	Config string
}{}

func init() {
	cmd.PersistentFlags().StringVarP(&flag.Config, "config", "c", "", "Config file (YAML, TOML or JSON)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		cmdWrite,
		cmdPlan,
		cmdPresets,
		cmdVersion,
	)
}

func loadConfig(c *cobra.Command) *config.Config {
	cfg, err := config.Load(flag.Config, c.Flags())
	Checkf(err, "load config")
	return cfg
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	Checkf(err, "logger")
	return logger
}

// openTransport returns the configured backend, unopened. The writer applies
// the link settings before the first transfer.
func openTransport(cfg *config.Config) (transport.Port, error) {
	switch cfg.Backend {
	case "sim":
		set, err := cfg.Device.Instructions()
		if err != nil {
			return nil, err
		}
		return sim.New(sim.Config{
			Size:         cfg.Device.Size,
			PageSize:     cfg.Device.PageSize,
			AddressWidth: cfg.Device.AddressWidth,
			Order:        cfg.Device.Order(),
			Instructions: set,
		}), nil
	case "periph":
		return periphspi.New(cfg.Port), nil
	case "rpio":
		return rpiospi.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
