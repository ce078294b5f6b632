// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/connect-client/internal/status"
)

// statusWriter is the concrete StatusWriter over Modbus holding registers.
type statusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
	nameRegs []uint16
}

// NewStatusWriter builds a status writer. A nil plan means the mirror is
// disabled.
func NewStatusWriter(plan *StatusPlan, cli endpointClient) (*statusWriter, bool) {
	if plan == nil {
		return nil, false
	}
	return &statusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Link: status.LinkUnknown},
		nameRegs: encodeNameRegs(plan.PrinterName),
	}, true
}

// WriteStatus delivers a snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *statusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, baseAddr, sw.fullBlockRegs(s)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	slot := func(name string, idx int, changed bool, v uint16, commit func()) {
		if !changed {
			return
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+uint16(idx), []uint16{v}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", idx, name, err))
			return
		}
		commit()
	}

	slot("link", status.SlotLinkCode, sw.last.Link != s.Link, uint16(s.Link),
		func() { sw.last.Link = s.Link })
	slot("last_error", status.SlotLastErrorCode, sw.last.LastErrorCode != s.LastErrorCode, uint16(s.LastErrorCode),
		func() { sw.last.LastErrorCode = s.LastErrorCode })
	slot("seconds", status.SlotSecondsInError, sw.last.SecondsInError != s.SecondsInError, s.SecondsInError,
		func() { sw.last.SecondsInError = s.SecondsInError })
	slot("printer_state", status.SlotPrinterState, sw.last.PrinterState != s.PrinterState, s.PrinterState,
		func() { sw.last.PrinterState = s.PrinterState })

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *statusWriter) baseAddr() uint16 {
	// Each printer owns a fixed SlotsPerBlock block.
	return sw.plan.BaseSlot * status.SlotsPerBlock
}

func (sw *statusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)

	// Name always lives at the end of the block
	copy(regs[status.SlotPrinterNameStart:status.SlotPrinterNameEnd+1], sw.nameRegs)

	return regs
}

// encodeNameRegs packs up to 16 ASCII characters into 8 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotPrinterNameSlots)

	b := []byte(name)
	if len(b) > status.PrinterNameMaxChars {
		b = b[:status.PrinterNameMaxChars]
	}

	for i := 0; i < len(b); i++ {
		c := b[i]
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		if i%2 == 0 {
			out[i/2] |= uint16(c) << 8
		} else {
			out[i/2] |= uint16(c)
		}
	}

	return out
}
