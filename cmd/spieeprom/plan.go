package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-spieeprom/eeprom"
	. "github.com/moffa90/go-spieeprom/internal/cmdutil"
	"github.com/moffa90/go-spieeprom/internal/config"
	"github.com/moffa90/go-spieeprom/transport/sim"
)

var cmdPlan = &cobra.Command{
	Use:   "plan",
	Short: "Show how a write is split into pages",
	Long: `Show the page segments a write would use, without touching the device.
Give either --length with an optional --offset, or a data source as for write.`,
	Args: cobra.NoArgs,
	Run:  runPlan,
}

var planFlag = struct {
	source
	Length int
}{}

func init() {
	planFlag.source.register(cmdPlan.Flags())
	cmdPlan.Flags().IntVar(&planFlag.Length, "length", 0, "Number of bytes to plan for")
}

// span is a write range without its data.
type span struct {
	offset uint16
	length int
}

func runPlan(c *cobra.Command, _ []string) {
	cfg := loadConfig(c)

	spans, err := planSpans()
	Check(err)

	Check(renderPlan(os.Stdout, cfg, spans))
}

func planSpans() ([]span, error) {
	s := planFlag.source
	if planFlag.Length > 0 {
		if s.Data != "" || s.File != "" || s.IHex != "" {
			return nil, errors.New("--length cannot be combined with a data source")
		}
		offset, err := parseOffset(s.Offset)
		if err != nil {
			return nil, err
		}
		return []span{{offset: offset, length: planFlag.Length}}, nil
	}

	reqs, err := s.requests()
	if err != nil {
		return nil, err
	}
	spans := make([]span, len(reqs))
	for i, r := range reqs {
		spans[i] = span{offset: r.offset, length: len(r.data)}
	}
	return spans, nil
}

// renderPlan prints one table per span. Planning runs against a simulated
// device so the configuration is checked exactly as a write would check it.
func renderPlan(out io.Writer, cfg *config.Config, spans []span) error {
	opts, err := cfg.WriterOptions()
	if err != nil {
		return err
	}
	w := eeprom.New(sim.New(sim.Config{}), opts...)
	pageSize := cfg.Device.PageSize

	for _, sp := range spans {
		plan, err := w.Plan(sp.offset, sp.length)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "0x%04X, %d bytes, %d-byte pages: %d segments\n", sp.offset, sp.length, pageSize, len(plan))

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"#", "Address", "Length", "Source", "Page"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		for i, seg := range plan {
			table.Append([]string{
				strconv.Itoa(i + 1),
				fmt.Sprintf("0x%04X", seg.Address),
				strconv.Itoa(int(seg.Length)),
				strconv.Itoa(int(seg.SourceOffset)),
				strconv.Itoa(int(seg.Address / pageSize)),
			})
		}
		table.Render()
	}
	return nil
}
