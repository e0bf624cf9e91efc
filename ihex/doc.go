// Package ihex parses Intel HEX images destined for a 16-bit addressed EEPROM.
//
// # Record Format
//
// Each line is one record:
//
//	:[Count(2)][Address(4)][Type(2)][Data(2*Count)][Checksum(2)]
//
// Example record:
//
//	:0400100001020304E2
//	  04 = Byte count
//	  0010 = Address (big-endian)
//	  00 = Data record
//	  01020304 = Data
//	  E2 = Checksum (2's complement of the byte sum)
//
// Data (00) and end of file (01) records carry the image. Extended address
// records (02, 04) are accepted only when they select the first 64 KiB, and
// start address records (03, 05) are ignored.
//
// # Usage
//
//	img, err := ihex.Parse("calibration.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, b := range img.Blocks {
//	    if err := w.Write(ctx, b.Offset, b.Data); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Contiguous records are joined into a single Block, so each block is one
// write request. Overlapping records are an error.
package ihex
