package pageplan

import "fmt"

// AddressSpace is the number of addressable bytes reachable with a 16-bit address.
const AddressSpace = 1 << 16

// Segment is one page-bounded slice of a larger write.
type Segment struct {
	// Address is the device address of the first byte of the segment
	Address uint16

	// Length is the number of bytes in the segment (1..pageSize)
	Length uint16

	// SourceOffset is the index into the payload of the segment's first byte
	SourceOffset uint16
}

// End returns the address one past the last byte of the segment.
// The result is carried in 32 bits so a segment ending at 0xFFFF does not wrap.
func (s Segment) End() uint32 {
	return uint32(s.Address) + uint32(s.Length)
}

func (s Segment) String() string {
	return fmt.Sprintf("0x%04X+%d@%d", s.Address, s.Length, s.SourceOffset)
}

// Plan is an ordered list of segments. Order is transmission order,
// which is also ascending address order.
type Plan []Segment

// TotalLength returns the number of payload bytes covered by the plan.
func (p Plan) TotalLength() int {
	total := 0
	for _, s := range p {
		total += int(s.Length)
	}
	return total
}

// Validate checks that the plan is well formed for the given page size:
// no empty segment, no segment crossing a page boundary, segments contiguous
// in both address and source offset.
func (p Plan) Validate(pageSize uint16) error {
	if pageSize == 0 {
		return ErrZeroPageSize
	}

	for i, s := range p {
		if s.Length == 0 {
			return fmt.Errorf("segment %d: empty segment", i)
		}
		if s.End() > AddressSpace {
			return fmt.Errorf("segment %d: %w", i, ErrAddressOverflow)
		}

		firstPage := uint32(s.Address) / uint32(pageSize)
		lastPage := (s.End() - 1) / uint32(pageSize)
		if firstPage != lastPage {
			return fmt.Errorf("segment %d: 0x%04X..0x%04X crosses a %d-byte page boundary",
				i, s.Address, s.End()-1, pageSize)
		}

		if i == 0 {
			if s.SourceOffset != 0 {
				return fmt.Errorf("segment 0: source offset %d, expected 0", s.SourceOffset)
			}
			continue
		}

		prev := p[i-1]
		if prev.End() != uint32(s.Address) {
			return fmt.Errorf("segment %d: address 0x%04X does not follow 0x%04X",
				i, s.Address, prev.End())
		}
		if uint32(prev.SourceOffset)+uint32(prev.Length) != uint32(s.SourceOffset) {
			return fmt.Errorf("segment %d: source offset %d does not follow %d",
				i, s.SourceOffset, uint32(prev.SourceOffset)+uint32(prev.Length))
		}
	}

	return nil
}

// MaxSegments returns the worst-case number of segments a write of totalLength
// bytes can need: one per page plus one for a start that is not page aligned.
func MaxSegments(pageSize, totalLength uint16) int {
	if pageSize == 0 || totalLength == 0 {
		return 0
	}
	pages := (int(totalLength) + int(pageSize) - 1) / int(pageSize)
	return pages + 1
}

// Compute splits a write of totalLength bytes starting at startOffset into
// page-bounded segments. The returned plan has room for the worst case, so
// only configuration errors are possible.
//
// Example:
//
//	plan, err := pageplan.Compute(32, 40, 20)
//	// plan[0] = {Address: 20, Length: 12, SourceOffset: 0}
//	// plan[1] = {Address: 32, Length: 28, SourceOffset: 12}
func Compute(pageSize, totalLength, startOffset uint16) (Plan, error) {
	return ComputeInto(make(Plan, 0, MaxSegments(pageSize, totalLength)), pageSize, totalLength, startOffset)
}

// ComputeInto is like Compute but appends into buf, whose capacity bounds the
// number of segments. If the write needs more segments than cap(buf) a
// *CapacityError is returned and buf is left unchanged.
func ComputeInto(buf Plan, pageSize, totalLength, startOffset uint16) (Plan, error) {
	if pageSize == 0 {
		return nil, ErrZeroPageSize
	}

	plan := buf[:0]
	if totalLength == 0 {
		return plan, nil
	}

	if uint32(startOffset)+uint32(totalLength) > AddressSpace {
		return nil, fmt.Errorf("%w: 0x%04X + %d", ErrAddressOverflow, startOffset, totalLength)
	}

	currentAddress := uint32(startOffset)
	remaining := uint32(totalLength)
	sourceOffset := uint32(0)
	size := uint32(pageSize)

	for remaining > 0 {
		nextPageBoundary := (currentAddress/size + 1) * size
		segmentLength := min(remaining, nextPageBoundary-currentAddress)

		if len(plan) == cap(plan) {
			return nil, &CapacityError{
				Capacity: cap(buf),
				Required: countSegments(size, uint32(totalLength), uint32(startOffset)),
			}
		}

		plan = append(plan, Segment{
			Address:      uint16(currentAddress),
			Length:       uint16(segmentLength),
			SourceOffset: uint16(sourceOffset),
		})

		sourceOffset += segmentLength
		remaining -= segmentLength
		currentAddress += segmentLength
	}

	return plan, nil
}

// countSegments returns the exact number of segments a write needs.
func countSegments(pageSize, totalLength, startOffset uint32) int {
	first := startOffset / pageSize
	last := (startOffset + totalLength - 1) / pageSize
	return int(last-first) + 1
}
