// Package pageplan splits writes to page-organized memory into page-bounded segments.
//
// Serial EEPROMs program at most one page per write command: bytes sent past the
// end of a page wrap around to the start of the same page. A write of arbitrary
// length at an arbitrary offset therefore has to be cut at every page boundary.
//
// # Usage
//
//	plan, err := pageplan.Compute(32, uint16(len(data)), 0x0014)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, seg := range plan {
//	    chunk := data[seg.SourceOffset : seg.SourceOffset+seg.Length]
//	    // write chunk at seg.Address
//	}
//
// Planning is a pure function of its inputs: no I/O, no state.
//
// # Bounded buffers
//
// ComputeInto plans into a caller supplied buffer and reports a *CapacityError
// instead of truncating when the buffer cannot hold every segment. Size the
// buffer with MaxSegments.
package pageplan
