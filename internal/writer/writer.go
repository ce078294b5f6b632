// internal/writer/writer.go
package writer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/connect-client/internal/status"
)

// Mirror publishes the link status into status memory.
//
// It owns the snapshot: link state and error code come from the source,
// seconds_in_error is counted here on a 1 Hz tick while the link is not OK.
type Mirror struct {
	w       StatusWriter
	online  OnlineSource
	printer PrinterStateSource
	log     zerolog.Logger

	snap status.Snapshot
}

// NewMirror wires a writer to its sources. printer may be nil.
func NewMirror(w StatusWriter, online OnlineSource, printer PrinterStateSource, log zerolog.Logger) *Mirror {
	return &Mirror{
		w:       w,
		online:  online,
		printer: printer,
		log:     log,
		snap:    status.Snapshot{Link: status.LinkUnknown},
	}
}

// Run writes the full block once, then follows the source until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	// Full block write on start (identity re-assert).
	if err := m.w.WriteStatus(m.snap); err != nil {
		m.log.Warn().Err(err).Msg("status write failed on start")
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.Tick() {
				if err := m.w.WriteStatus(m.snap); err != nil {
					m.log.Warn().Err(err).Msg("status write failed")
				}
			}
		}
	}
}

// Tick folds the current source state into the snapshot and reports
// whether it changed.
func (m *Mirror) Tick() bool {
	on := m.online.Status()
	next := m.snap

	next.Link = on.Link
	if on.Link == status.LinkOK {
		// Recovery resets the error fields.
		next.LastErrorCode = status.CodeNone
		next.SecondsInError = 0
	} else {
		if on.Link == status.LinkError {
			next.LastErrorCode = on.Code
		}
		// seconds_in_error MUST NOT wrap
		if m.snap.Link != status.LinkOK && next.SecondsInError < status.SecondsInErrorMax {
			next.SecondsInError++
		}
	}

	if m.printer != nil {
		next.PrinterState = m.printer.PrinterState()
	}

	changed := next != m.snap
	m.snap = next
	return changed
}

// Snapshot is the current snapshot.
func (m *Mirror) Snapshot() status.Snapshot {
	return m.snap
}
