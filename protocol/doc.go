// Package protocol builds the SPI frames used to program serial EEPROMs.
//
// # Frame Layout
//
// Programming a page takes two frames, each sent as its own chip-select cycle:
//
//	Write enable:   [WREN][PAYLOAD...]
//	Addressed write: [WRITE][ADDR(1-2)][DATA...]
//
// Where:
//   - WREN / WRITE are opcodes taken from an InstructionSet (0x06 / 0x02 on 25xx parts)
//   - ADDR is one byte, or two bytes in big or little endian order
//   - DATA is at most MaxDataSize bytes and must not cross a page boundary
//
// # Address Encoding
//
//	protocol.EncodeAddress(0x1234, protocol.AddressWidth16, protocol.BigEndian)    // [0x12 0x34]
//	protocol.EncodeAddress(0x1234, protocol.AddressWidth16, protocol.LittleEndian) // [0x34 0x12]
//	protocol.EncodeAddress(0x1234, protocol.AddressWidth8, 0)                      // [0x34]
//
// # Error Handling
//
// A round trip that fails is reported as a ProtocolError:
//
//	err := &protocol.ProtocolError{
//	    Operation: "write enable",
//	    Reason:    "response length 0, sent 1 bytes",
//	}
//	// err.Error() returns: "write enable failed: response length 0, sent 1 bytes"
package protocol
