package ihex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Record types.
const (
	RecordData                   = 0x00
	RecordEOF                    = 0x01
	RecordExtendedSegmentAddress = 0x02
	RecordStartSegmentAddress    = 0x03
	RecordExtendedLinearAddress  = 0x04
	RecordStartLinearAddress     = 0x05
)

const (
	// MinimumRecordLength is the shortest record in hex characters after
	// the ':' (count, address, type and checksum)
	MinimumRecordLength = 10

	// RecordHeaderSize is count(1) + address(2) + type(1)
	RecordHeaderSize = 4

	// RecordChecksumSize is the size of the trailing checksum
	RecordChecksumSize = 1
)

type record struct {
	kind    byte
	address uint16
	data    []byte
}

// Parse parses an Intel HEX file from the given file path.
//
// Example:
//
//	img, err := ihex.Parse("calibration.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range img.Blocks {
//	    fmt.Println(b)
//	}
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an Intel HEX file from any io.Reader.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	var blocks []*Block
	var current *Block
	sawEOF := false

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines
		if line == "" {
			continue
		}

		if sawEOF {
			return nil, fmt.Errorf("line %d: data after end of file record", lineNum)
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.kind {
		case RecordData:
			if len(rec.data) == 0 {
				continue
			}
			end := uint32(rec.address) + uint32(len(rec.data))
			if end > 1<<16 {
				return nil, fmt.Errorf("line %d: data at 0x%04X runs past 0xFFFF", lineNum, rec.address)
			}
			if current != nil && current.End() == uint32(rec.address) {
				current.Data = append(current.Data, rec.data...)
				continue
			}
			current = &Block{Offset: rec.address, Data: append([]byte(nil), rec.data...)}
			blocks = append(blocks, current)

		case RecordEOF:
			sawEOF = true

		case RecordExtendedSegmentAddress, RecordExtendedLinearAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: address record with %d data bytes", lineNum, len(rec.data))
			}
			if rec.data[0] != 0 || rec.data[1] != 0 {
				return nil, fmt.Errorf("line %d: extended address 0x%02X%02X is outside the 16-bit address space",
					lineNum, rec.data[0], rec.data[1])
			}
			current = nil

		case RecordStartSegmentAddress, RecordStartLinearAddress:
			// entry points mean nothing to an EEPROM

		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if !sawEOF {
		return nil, fmt.Errorf("missing end of file record")
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("no data records found in file")
	}

	merged, err := mergeBlocks(blocks)
	if err != nil {
		return nil, err
	}

	return &Image{Blocks: merged}, nil
}

// parseRecord parses one record line.
//
// Record format (after ':'):
//
//	[Count(1)][Address(2)][Type(1)][Data(Count)][Checksum(1)]
//
// Address is big-endian. The checksum is the two's complement of the sum of
// all preceding bytes.
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}
	line = line[1:]

	if len(line) < MinimumRecordLength {
		return nil, fmt.Errorf("record too short: got %d characters, minimum is %d", len(line), MinimumRecordLength)
	}

	data, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	count := int(data[0])
	expectedLen := RecordHeaderSize + count + RecordChecksumSize
	if len(data) != expectedLen {
		return nil, fmt.Errorf("data length mismatch: got %d bytes, expected %d (header=%d + data=%d + checksum=%d)",
			len(data), expectedLen, RecordHeaderSize, count, RecordChecksumSize)
	}

	checksum := data[len(data)-1]
	calculated := calculateChecksum(data[:len(data)-1])
	if checksum != calculated {
		return nil, fmt.Errorf("checksum mismatch: got 0x%02X, expected 0x%02X", checksum, calculated)
	}

	return &record{
		kind:    data[3],
		address: uint16(data[1])<<8 | uint16(data[2]),
		data:    data[RecordHeaderSize : RecordHeaderSize+count],
	}, nil
}

// mergeBlocks sorts blocks by offset and joins the ones that touch.
func mergeBlocks(blocks []*Block) ([]*Block, error) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})

	merged := blocks[:1]
	for _, b := range blocks[1:] {
		last := merged[len(merged)-1]
		switch {
		case uint32(b.Offset) < last.End():
			return nil, fmt.Errorf("overlapping data at 0x%04X", b.Offset)
		case uint32(b.Offset) == last.End():
			last.Data = append(last.Data, b.Data...)
		default:
			merged = append(merged, b)
		}
	}
	return merged, nil
}

// calculateChecksum computes the 8-bit record checksum (2's complement).
func calculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
