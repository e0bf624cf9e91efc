package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/moffa90/go-spieeprom/eeprom"
	"github.com/moffa90/go-spieeprom/ihex"
	. "github.com/moffa90/go-spieeprom/internal/cmdutil"
	"github.com/moffa90/go-spieeprom/internal/config"
	"github.com/moffa90/go-spieeprom/internal/logging"
	"github.com/moffa90/go-spieeprom/transport/sim"
)

var cmdWrite = &cobra.Command{
	Use:   "write",
	Short: "Write data to the device",
	Long: `Write data to the device starting at --offset. The data comes from exactly
one of --data (hex), --file (raw binary) or --ihex (Intel HEX, which carries
its own addresses).`,
	Args: cobra.NoArgs,
	Run:  runWrite,
}

var writeFlag = struct {
	source
	Dump  bool
	Quiet bool
}{}

// source selects where write and plan take their data from.
type source struct {
	Offset string
	Data   string
	File   string
	IHex   string
}

func (s *source) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.Offset, "offset", "", "Start address (decimal or 0x hex, default 0)")
	fs.StringVar(&s.Data, "data", "", "Hex bytes to write, e.g. 123456 or \"12 34 56\"")
	fs.StringVar(&s.File, "file", "", "Raw binary file to write")
	fs.StringVar(&s.IHex, "ihex", "", "Intel HEX file to write")
}

func init() {
	writeFlag.source.register(cmdWrite.Flags())
	cmdWrite.Flags().BoolVar(&writeFlag.Dump, "dump", false, "Print the written ranges afterwards (sim backend)")
	cmdWrite.Flags().BoolVarP(&writeFlag.Quiet, "quiet", "q", false, "Do not print per page progress")
}

// request is one contiguous write.
type request struct {
	offset uint16
	data   []byte
}

func runWrite(c *cobra.Command, _ []string) {
	cfg := loadConfig(c)
	logger := newLogger(cfg)

	reqs, err := writeFlag.source.requests()
	Check(err)

	ctx, cancel := ContextForMainProcess(context.Background())
	defer cancel()

	Check(write(ctx, cfg, logger, reqs, os.Stdout))
}

// write runs every request on a freshly opened transport. The transport is
// closed whether or not the writes succeed.
func write(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reqs []request, out io.Writer) error {
	port, err := openTransport(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := port.Close(); err != nil {
			Warnf("close %s backend: %v", cfg.Backend, err)
		}
	}()

	opts, err := cfg.WriterOptions()
	if err != nil {
		return err
	}
	opts = append(opts, eeprom.WithLogger(logging.Adapter{Logger: logger}))
	if !writeFlag.Quiet {
		opts = append(opts, eeprom.WithProgressCallback(progressPrinter(out)))
	}

	w := eeprom.New(port, opts...)

	start := time.Now()
	total := 0
	for _, r := range reqs {
		if !writeFlag.Quiet {
			fmt.Fprintf(out, "writing %s at 0x%04X\n", humanize.IBytes(uint64(len(r.data))), r.offset)
		}
		if err := w.Write(ctx, r.offset, r.data); err != nil {
			return err
		}
		total += len(r.data)
	}

	fmt.Fprintf(out, "\nData written: %s in %s\n", humanize.IBytes(uint64(total)), time.Since(start).Round(time.Millisecond))

	if writeFlag.Dump {
		dev, ok := port.(*sim.Device)
		if !ok {
			Warnf("--dump needs the sim backend, %s cannot be read back", cfg.Backend)
			return nil
		}
		for _, r := range reqs {
			fmt.Fprintf(out, "\n0x%04X:\n%s", r.offset, hex.Dump(dev.Read(int(r.offset), len(r.data))))
		}
	}

	return nil
}

// progressPrinter prints one line per page, like the counter output of the
// NI-845x sample tool.
func progressPrinter(out io.Writer) eeprom.ProgressCallback {
	return func(p eeprom.Progress) {
		if p.Phase != eeprom.PhaseWriting {
			return
		}
		fmt.Fprintf(out, "  page %d/%d at 0x%04X, %s (%.0f%%)\n",
			p.CurrentSegment, p.TotalSegments, p.Address,
			humanize.IBytes(uint64(p.BytesWritten)), p.Percentage)
	}
}

// requests loads the write requests from the selected data source.
func (s *source) requests() ([]request, error) {
	n := 0
	for _, v := range []string{s.Data, s.File, s.IHex} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return nil, errors.New("exactly one of --data, --file or --ihex is required")
	}

	if s.IHex != "" {
		if s.Offset != "" {
			return nil, errors.New("--offset cannot be used with --ihex")
		}
		img, err := ihex.Parse(s.IHex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.IHex, err)
		}
		reqs := make([]request, 0, len(img.Blocks))
		for _, b := range img.Blocks {
			reqs = append(reqs, request{offset: b.Offset, data: b.Data})
		}
		return reqs, nil
	}

	offset, err := parseOffset(s.Offset)
	if err != nil {
		return nil, err
	}

	var data []byte
	if s.File != "" {
		data, err = os.ReadFile(s.File)
	} else {
		data, err = parseHexData(s.Data)
	}
	if err != nil {
		return nil, err
	}

	return []request{{offset: offset, data: data}}, nil
}

func parseOffset(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	return uint16(v), nil
}

// parseHexData accepts hex digits optionally separated by spaces, colons or
// commas, with an optional 0x prefix.
func parseHexData(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", ",", "").Replace(s)

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --data: %w", err)
	}
	return data, nil
}
