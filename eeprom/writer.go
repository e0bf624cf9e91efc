package eeprom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-spieeprom/pageplan"
	"github.com/moffa90/go-spieeprom/protocol"
	"github.com/moffa90/go-spieeprom/transport"
)

// Writer writes arbitrary byte ranges to a page-organized SPI EEPROM.
// It splits each write into page-bounded segments and runs the write enable,
// addressed write, settle delay sequence for every segment.
//
// A Writer owns its transport. Writes through the same Writer are serialized;
// to write several devices concurrently, give each its own transport and Writer.
type Writer struct {
	transport transport.Transport
	config    Config

	mu         sync.Mutex
	configured bool
}

// New creates a new Writer on the given transport.
//
// Example:
//
//	port := periphspi.New("/dev/spidev0.0")
//	defer port.Close()
//
//	w := eeprom.New(port,
//	    eeprom.WithPageSize(32),
//	    eeprom.WithLinkConfig(transport.DefaultLinkConfig),
//	)
func New(t transport.Transport, opts ...Option) *Writer {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Writer{
		transport: t,
		config:    cfg,
	}
}

// Config returns a copy of the writer configuration.
func (w *Writer) Config() Config {
	return w.config
}

// Validate checks the configuration without touching the transport.
func (w *Writer) Validate() error {
	return validateConfig(w.config)
}

// Plan computes the segments a write of length bytes at startOffset would use.
func (w *Writer) Plan(startOffset uint16, length int) (pageplan.Plan, error) {
	if err := validateConfig(w.config); err != nil {
		return nil, err
	}
	if err := checkLength(length); err != nil {
		return nil, err
	}

	plan, err := pageplan.Compute(w.config.PageSize, uint16(length), startOffset)
	if err != nil {
		if errors.Is(err, pageplan.ErrAddressOverflow) {
			return nil, &RequestError{Reason: err.Error()}
		}
		return nil, err
	}
	return plan, nil
}

// Write writes payload to the device starting at startOffset.
//
// The write is all or nothing from the caller's point of view: the first
// failed page aborts the sequence with a *WriteError and nothing is retried.
// A caller may restart the write from the failed segment's address.
//
// Example:
//
//	err := w.Write(ctx, 0x0014, []byte{0x12, 0x34, 0x56})
//	var we *eeprom.WriteError
//	if errors.As(err, &we) {
//	    log.Printf("failed at segment %d (0x%04X)", we.Segment, we.Address)
//	}
func (w *Writer) Write(ctx context.Context, startOffset uint16, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	startTime := time.Now()

	w.reportProgress(Progress{Phase: PhasePlanning})

	plan, err := w.Plan(startOffset, len(payload))
	if err != nil {
		return err
	}

	w.logDebug("planned write",
		"offset", fmt.Sprintf("0x%04X", startOffset),
		"length", len(payload),
		"segments", len(plan),
		"page_size", w.config.PageSize,
	)

	return w.run(ctx, plan, payload, startTime)
}

// Execute runs a precomputed plan. The plan must have been computed for the
// writer's page size and payload must cover every segment.
func (w *Writer) Execute(ctx context.Context, plan pageplan.Plan, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := validateConfig(w.config); err != nil {
		return err
	}
	if err := plan.Validate(w.config.PageSize); err != nil {
		return &RequestError{Reason: err.Error()}
	}
	if need := plan.TotalLength(); need > len(payload) {
		return &RequestError{Reason: fmt.Sprintf("plan covers %d bytes, payload has %d", need, len(payload))}
	}

	return w.run(ctx, plan, payload, time.Now())
}

func (w *Writer) run(ctx context.Context, plan pageplan.Plan, payload []byte, startTime time.Time) error {
	total := len(plan)
	if total == 0 {
		w.reportProgress(Progress{Phase: PhaseComplete, Percentage: 100, ElapsedTime: time.Since(startTime)})
		return nil
	}

	if err := w.configureLink(); err != nil {
		return err
	}

	bytesWritten := 0
	for i, seg := range plan {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled before segment %d of %d: %w", i+1, total, err)
		}

		if step, err := w.writeSegment(ctx, seg, payload); err != nil {
			w.logError("write aborted",
				"segment", i+1,
				"total", total,
				"address", fmt.Sprintf("0x%04X", seg.Address),
				"step", string(step),
				"error", err.Error(),
			)
			return &WriteError{
				Segment: i + 1,
				Total:   total,
				Address: seg.Address,
				Step:    step,
				Err:     err,
			}
		}

		bytesWritten += int(seg.Length)

		w.logDebug("segment written",
			"segment", i+1,
			"address", fmt.Sprintf("0x%04X", seg.Address),
			"length", seg.Length,
		)

		w.reportProgress(Progress{
			Phase:          PhaseWriting,
			CurrentSegment: i + 1,
			TotalSegments:  total,
			Address:        seg.Address,
			Percentage:     float64(i+1) / float64(total) * 100,
			BytesWritten:   bytesWritten,
			ElapsedTime:    time.Since(startTime),
		})
	}

	w.reportProgress(Progress{
		Phase:          PhaseComplete,
		CurrentSegment: total,
		TotalSegments:  total,
		Percentage:     100,
		BytesWritten:   bytesWritten,
		ElapsedTime:    time.Since(startTime),
	})

	w.logInfo("write complete",
		"segments", total,
		"bytes", bytesWritten,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// writeSegment programs one page-bounded segment and waits for the device's
// write cycle to finish.
func (w *Writer) writeSegment(ctx context.Context, seg pageplan.Segment, payload []byte) (Step, error) {
	set := w.config.Instructions

	if err := w.roundTrip(ctx, StepWriteEnable, protocol.BuildWriteEnableCmd(set)); err != nil {
		return StepWriteEnable, err
	}

	addr, err := protocol.EncodeAddress(seg.Address, w.config.AddressWidth, w.config.Order)
	if err != nil {
		return StepWrite, err
	}
	if w.config.AddressWidth == protocol.AddressWidth8 && seg.Address > 0xFF {
		w.logDebug("address truncated to 8 bits",
			"address", fmt.Sprintf("0x%04X", seg.Address),
			"sent", fmt.Sprintf("0x%02X", addr[0]),
		)
	}

	start := int(seg.SourceOffset)
	cmd, err := protocol.BuildWriteCmd(set, addr, payload[start:start+int(seg.Length)])
	if err != nil {
		return StepWrite, err
	}

	if err := w.roundTrip(ctx, StepWrite, cmd); err != nil {
		return StepWrite, err
	}

	if err := w.config.Clock.Sleep(ctx, w.config.InterPageDelay); err != nil {
		return StepSettle, err
	}

	return "", nil
}

// roundTrip sends one frame and checks the response.
func (w *Writer) roundTrip(ctx context.Context, step Step, frame []byte) error {
	rx, err := w.transfer(ctx, frame)
	if err != nil {
		return &protocol.ProtocolError{Operation: string(step), Err: err}
	}
	return protocol.CheckResponse(string(step), frame, rx)
}

type transferResult struct {
	rx  []byte
	err error
}

// transfer runs a transfer, bounded by RoundTripTimeout when one is set.
// Transports block without a context, so an expired transfer is abandoned
// rather than interrupted.
func (w *Writer) transfer(ctx context.Context, frame []byte) ([]byte, error) {
	if w.config.RoundTripTimeout <= 0 {
		return w.transport.Transfer(frame)
	}

	ctx, cancel := context.WithTimeout(ctx, w.config.RoundTripTimeout)
	defer cancel()

	done := make(chan transferResult, 1)
	go func() {
		rx, err := w.transport.Transfer(frame)
		done <- transferResult{rx: rx, err: err}
	}()

	select {
	case r := <-done:
		return r.rx, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("round trip: %w", ctx.Err())
	}
}

// configureLink applies the link settings once per Writer.
func (w *Writer) configureLink() error {
	if w.configured || w.config.Link == nil {
		return nil
	}

	c, ok := w.transport.(transport.Configurer)
	if !ok {
		w.logDebug("transport has no link settings, skipping configure")
		w.configured = true
		return nil
	}

	if err := c.Configure(*w.config.Link); err != nil {
		return fmt.Errorf("configure link: %w", err)
	}

	w.logDebug("link configured", "link", w.config.Link.String())
	w.configured = true
	return nil
}

func checkLength(n int) error {
	if n < 0 || n > int(^uint16(0)) {
		return &RequestError{Reason: fmt.Sprintf("payload length %d exceeds %d bytes", n, ^uint16(0))}
	}
	return nil
}

func validateConfig(c Config) error {
	if c.PageSize == 0 {
		return &ConfigError{Field: "PageSize", Reason: "must be greater than zero", Err: pageplan.ErrZeroPageSize}
	}
	if c.PageSize > protocol.MaxDataSize {
		return &ConfigError{
			Field:  "PageSize",
			Reason: fmt.Sprintf("%d exceeds the %d byte frame payload", c.PageSize, protocol.MaxDataSize),
		}
	}

	switch c.AddressWidth {
	case protocol.AddressWidth8:
	case protocol.AddressWidth16:
		if !c.Order.Valid() {
			return &ConfigError{Field: "Order", Reason: "two byte addresses need big or little endian order"}
		}
	default:
		return &ConfigError{Field: "AddressWidth", Reason: fmt.Sprintf("must be 1 or 2, got %d", c.AddressWidth)}
	}

	if c.InterPageDelay < 0 {
		return &ConfigError{Field: "InterPageDelay", Reason: "must not be negative"}
	}
	if c.InterPageDelay < c.MinProgramTime {
		return &ConfigError{
			Field:  "InterPageDelay",
			Reason: fmt.Sprintf("%s is shorter than the device write cycle of %s", c.InterPageDelay, c.MinProgramTime),
		}
	}

	if c.Instructions.WriteEnable == c.Instructions.Write {
		return &ConfigError{
			Field:  "Instructions",
			Reason: fmt.Sprintf("write enable and write share opcode 0x%02X", c.Instructions.Write),
		}
	}
	if len(c.Instructions.WriteEnablePayload) > protocol.MaxFrameSize-protocol.OpcodeSize {
		return &ConfigError{Field: "Instructions", Reason: "write enable payload does not fit in a frame"}
	}

	if c.Link != nil {
		if err := c.Link.Validate(); err != nil {
			return &ConfigError{Field: "Link", Reason: "invalid link settings", Err: err}
		}
	}

	if c.Clock == nil {
		return &ConfigError{Field: "Clock", Reason: "must not be nil"}
	}

	return nil
}

// reportProgress calls the progress callback if configured.
func (w *Writer) reportProgress(progress Progress) {
	if w.config.ProgressCallback != nil {
		w.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (w *Writer) logDebug(msg string, keysAndValues ...interface{}) {
	if w.config.Logger != nil {
		w.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (w *Writer) logInfo(msg string, keysAndValues ...interface{}) {
	if w.config.Logger != nil {
		w.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (w *Writer) logError(msg string, keysAndValues ...interface{}) {
	if w.config.Logger != nil {
		w.config.Logger.Error(msg, keysAndValues...)
	}
}
