package config

import (
	"sort"
	"time"

	"github.com/moffa90/go-spieeprom/protocol"
)

// Presets are named device configurations for common parts.
var Presets = map[string]Device{
	"25lc256": {
		Size:           32 * 1024,
		PageSize:       64,
		AddressWidth:   protocol.AddressWidth16,
		ByteOrder:      "big",
		InterPageDelay: 5 * time.Millisecond,
		MinProgramTime: 5 * time.Millisecond,
		WriteEnable:    protocol.OpWriteEnable,
		Write:          protocol.OpWrite,
	},
	"25lc512": {
		Size:           64 * 1024,
		PageSize:       128,
		AddressWidth:   protocol.AddressWidth16,
		ByteOrder:      "big",
		InterPageDelay: 5 * time.Millisecond,
		MinProgramTime: 5 * time.Millisecond,
		WriteEnable:    protocol.OpWriteEnable,
		Write:          protocol.OpWrite,
	},
	"25lc640": {
		Size:           8 * 1024,
		PageSize:       32,
		AddressWidth:   protocol.AddressWidth16,
		ByteOrder:      "big",
		InterPageDelay: 5 * time.Millisecond,
		MinProgramTime: 5 * time.Millisecond,
		WriteEnable:    protocol.OpWriteEnable,
		Write:          protocol.OpWrite,
	},
	"25aa010a": {
		Size:           128,
		PageSize:       16,
		AddressWidth:   protocol.AddressWidth8,
		ByteOrder:      "big",
		InterPageDelay: 5 * time.Millisecond,
		MinProgramTime: 5 * time.Millisecond,
		WriteEnable:    protocol.OpWriteEnable,
		Write:          protocol.OpWrite,
	},
	// NI-845x sample part: write enable carries a fixed three byte payload
	// and pages settle in 1ms.
	"ni845x-demo": {
		Size:               64 * 1024,
		PageSize:           32,
		AddressWidth:       protocol.AddressWidth16,
		ByteOrder:          "big",
		InterPageDelay:     time.Millisecond,
		MinProgramTime:     time.Millisecond,
		WriteEnable:        protocol.OpWriteEnable,
		WriteEnablePayload: "123456",
		Write:              protocol.OpWrite,
	},
}

// DefaultPreset is used when no preset or device settings are given.
const DefaultPreset = "25lc256"

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
