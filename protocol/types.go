package protocol

import (
	"fmt"
	"strings"
)

// InstructionSet holds the opcodes a target device uses for programming.
// Opcodes are a property of the device family, so they are configuration
// rather than constants baked into the write sequence.
type InstructionSet struct {
	// WriteEnable is the opcode that arms the device for the next write
	WriteEnable byte

	// WriteEnablePayload is sent after the write enable opcode in the same frame.
	// Most devices expect nothing here.
	WriteEnablePayload []byte

	// Write is the opcode of the addressed write command
	Write byte
}

// DefaultInstructionSet is the 25xx family instruction set: WREN then WRITE.
var DefaultInstructionSet = InstructionSet{
	WriteEnable: OpWriteEnable,
	Write:       OpWrite,
}

// ByteOrder is the order in which a two byte address goes on the wire.
type ByteOrder uint8

const (
	// BigEndian sends the high address byte first
	BigEndian ByteOrder = iota + 1

	// LittleEndian sends the low address byte first
	LittleEndian
)

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return fmt.Sprintf("ByteOrder(%d)", uint8(o))
	}
}

// Valid reports whether o is BigEndian or LittleEndian.
func (o ByteOrder) Valid() bool {
	return o == BigEndian || o == LittleEndian
}

// ParseByteOrder converts "big" or "little" (case-insensitive) to a ByteOrder.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be", "big-endian":
		return BigEndian, nil
	case "little", "le", "little-endian":
		return LittleEndian, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q (want big or little)", s)
	}
}
