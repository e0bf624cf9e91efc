package protocol

// Instruction opcodes of the Microchip/ST 25xx serial EEPROM family.
const (
	// OpWriteStatus writes the STATUS register (WRSR)
	OpWriteStatus = 0x01

	// OpWrite writes data starting at the selected address (WRITE)
	OpWrite = 0x02

	// OpRead reads data starting at the selected address (READ)
	OpRead = 0x03

	// OpWriteDisable resets the write enable latch (WRDI)
	OpWriteDisable = 0x04

	// OpReadStatus reads the STATUS register (RDSR)
	OpReadStatus = 0x05

	// OpWriteEnable sets the write enable latch (WREN)
	OpWriteEnable = 0x06
)

// Frame sizing.
const (
	// OpcodeSize is the size of the instruction byte that starts every frame
	OpcodeSize = 1

	// MaxAddressSize is the widest address encoding supported (2 bytes, 16-bit space)
	MaxAddressSize = 2

	// MaxDataSize is the largest data payload of a single write frame.
	// It bounds the page size: one page is written per frame.
	MaxDataSize = 512

	// MaxFrameSize is the largest frame built by this package:
	// opcode(1) + address(2) + data(512)
	MaxFrameSize = OpcodeSize + MaxAddressSize + MaxDataSize
)

// Address widths in bytes.
const (
	// AddressWidth8 selects a single address byte (devices up to 256 bytes)
	AddressWidth8 = 1

	// AddressWidth16 selects two address bytes (devices up to 64 KiB)
	AddressWidth16 = 2
)
