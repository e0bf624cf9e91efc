// Package eeprom writes arbitrary byte ranges to page-organized SPI EEPROMs.
//
// # Overview
//
// A write of any length at any offset is split into segments that never cross
// a page boundary, then each segment is programmed with the sequence the
// 25xx family of parts expects:
//   - Write enable (WREN), which arms the device's write latch
//   - An addressed write carrying the segment's bytes
//   - A settle delay while the device runs its internal write cycle
//
// The first failure aborts the sequence. Segments already written stay
// written; the returned *WriteError names the segment that failed.
//
// # Basic Usage
//
//	port := periphspi.New("/dev/spidev0.0")
//	defer port.Close()
//
//	w := eeprom.New(port,
//	    eeprom.WithPageSize(64),
//	    eeprom.WithLinkConfig(transport.DefaultLinkConfig),
//	)
//
//	err := w.Write(context.Background(), 0x0014, []byte{0x12, 0x34, 0x56})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
//	w := eeprom.New(port,
//	    eeprom.WithProgressCallback(func(p eeprom.Progress) {
//	        fmt.Printf("[%s] %.1f%% - segment %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentSegment, p.TotalSegments)
//	    }),
//	)
//
// # Configuration Options
//
//	w := eeprom.New(port,
//	    eeprom.WithPageSize(32),
//	    eeprom.WithAddressWidth(2),
//	    eeprom.WithByteOrder(protocol.LittleEndian),
//	    eeprom.WithInterPageDelay(10*time.Millisecond),
//	    eeprom.WithMinProgramTime(5*time.Millisecond),
//	    eeprom.WithRoundTripTimeout(time.Second),
//	    eeprom.WithLogger(myLogger),
//	)
//
// Configuration errors (*ConfigError) are reported before the transport is
// touched. Requests that do not fit the 16-bit address space are reported as
// *RequestError.
//
// # Precomputed Plans
//
// Plan and Execute split planning from execution, for callers that want to
// show or check the segments before writing:
//
//	plan, err := w.Plan(0x0014, len(data))
//	...
//	err = w.Execute(ctx, plan, data)
package eeprom
