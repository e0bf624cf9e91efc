package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-spieeprom/internal/config"
)

var cmdPresets = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in device presets",
	Args:  cobra.NoArgs,
	Run: func(*cobra.Command, []string) {
		renderPresets(os.Stdout)
	},
}

func renderPresets(out io.Writer) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Size", "Page", "Address", "Delay", "Write enable"})

	for _, name := range config.PresetNames() {
		d := config.Presets[name]

		wren := fmt.Sprintf("%02X", d.WriteEnable)
		if d.WriteEnablePayload != "" {
			wren += " " + d.WriteEnablePayload
		}
		if name == config.DefaultPreset {
			name += " (default)"
		}

		table.Append([]string{
			name,
			humanize.IBytes(uint64(d.Size)),
			strconv.Itoa(int(d.PageSize)),
			fmt.Sprintf("%d byte, %s endian", d.AddressWidth, d.ByteOrder),
			d.InterPageDelay.String(),
			wren,
		})
	}
	table.Render()
}
