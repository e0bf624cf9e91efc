package protocol

import (
	"encoding/binary"
	"fmt"
)

// EncodeAddress encodes addr into width bytes using order.
//
//   - width 2, BigEndian:    [high, low]
//   - width 2, LittleEndian: [low, high]
//   - width 1:               [low] (the high byte is dropped, order is ignored)
//
// Example:
//
//	b, _ := protocol.EncodeAddress(0x1234, protocol.AddressWidth16, protocol.LittleEndian)
//	// b == []byte{0x34, 0x12}
func EncodeAddress(addr uint16, width int, order ByteOrder) ([]byte, error) {
	switch width {
	case AddressWidth8:
		return []byte{byte(addr)}, nil
	case AddressWidth16:
		b := make([]byte, AddressWidth16)
		switch order {
		case BigEndian:
			binary.BigEndian.PutUint16(b, addr)
		case LittleEndian:
			binary.LittleEndian.PutUint16(b, addr)
		default:
			return nil, fmt.Errorf("invalid byte order %v for %d-byte address", order, width)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("address width must be %d or %d bytes, got %d",
			AddressWidth8, AddressWidth16, width)
	}
}

// BuildWriteEnableCmd constructs a write enable frame.
//
// Frame structure:
//
//	[WREN][PAYLOAD...]
func BuildWriteEnableCmd(set InstructionSet) []byte {
	frame := make([]byte, 0, OpcodeSize+len(set.WriteEnablePayload))
	frame = append(frame, set.WriteEnable)
	frame = append(frame, set.WriteEnablePayload...)
	return frame
}

// BuildWriteCmd constructs an addressed write frame.
// addr is the already encoded address (see EncodeAddress).
//
// Frame structure:
//
//	[WRITE][ADDR(1-2)][DATA...]
//
// The data must not be empty and must not exceed MaxDataSize bytes.
func BuildWriteCmd(set InstructionSet, addr []byte, data []byte) ([]byte, error) {
	if len(addr) == 0 || len(addr) > MaxAddressSize {
		return nil, fmt.Errorf("address must be 1 to %d bytes, got %d", MaxAddressSize, len(addr))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if len(data) > MaxDataSize {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(data), MaxDataSize)
	}

	frame := make([]byte, 0, OpcodeSize+len(addr)+len(data))
	frame = append(frame, set.Write)
	frame = append(frame, addr...)
	frame = append(frame, data...)

	return frame, nil
}
