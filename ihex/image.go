package ihex

import "fmt"

// Image is a parsed Intel HEX file: the data it places in the first 64 KiB,
// grouped into contiguous blocks in ascending address order.
type Image struct {
	Blocks []*Block
}

// Block is a run of contiguous bytes starting at Offset.
type Block struct {
	// Offset is the device address of the first byte
	Offset uint16

	// Data is the bytes to write
	Data []byte
}

// End returns the address one past the last byte of the block.
func (b *Block) End() uint32 {
	return uint32(b.Offset) + uint32(len(b.Data))
}

func (b *Block) String() string {
	return fmt.Sprintf("0x%04X..0x%04X (%d bytes)", b.Offset, b.End()-1, len(b.Data))
}

// Size returns the number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, b := range img.Blocks {
		n += len(b.Data)
	}
	return n
}
