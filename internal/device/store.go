// internal/device/store.go
package device

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/connect-client/internal/poller"
)

// Store keeps the latest telemetry decoded from poll results.
//
// A failed poll keeps the last values and reports StateError; a device that
// was never read stays StateUnknown.
type Store struct {
	base uint16
	log  zerolog.Logger

	mu     sync.RWMutex
	cur    Telemetry
	seen   bool
	lastAt time.Time
	err    error
}

func NewStore(base uint16, log zerolog.Logger) *Store {
	return &Store{base: base, log: log}
}

// TelemetryReads is the poll geometry for a controller at base.
func TelemetryReads(base uint16) []poller.ReadBlock {
	return []poller.ReadBlock{
		{FC: 3, Address: base, Quantity: TelemetryRegs},
	}
}

// Apply folds one poll result into the store.
func (s *Store) Apply(res poller.PollResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Err != nil {
		if s.err == nil {
			s.log.Warn().Err(res.Err).Msg("device poll failed")
		}
		s.err = res.Err
		if s.seen {
			s.cur.State = StateError
		}
		return
	}

	regs, ok := res.Registers(s.base)
	if !ok {
		s.log.Error().Uint16("address", s.base).Msg("telemetry block missing from poll")
		return
	}
	t, err := DecodeTelemetry(regs)
	if err != nil {
		s.log.Error().Err(err).Msg("telemetry decode failed")
		s.err = err
		return
	}

	if s.err != nil {
		s.log.Info().Msg("device poll recovered")
	}
	s.cur = t
	s.seen = true
	s.lastAt = res.At
	s.err = nil
}

// Run consumes poll results until ctx is done or in is closed.
func (s *Store) Run(ctx context.Context, in <-chan poller.PollResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-in:
			if !ok {
				return
			}
			s.Apply(res)
		}
	}
}

// Telemetry returns the current snapshot.
func (s *Store) Telemetry() Telemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// LastError is the error of the most recent failed poll, nil when healthy.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// LastUpdate is the time of the last successful poll.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAt
}
