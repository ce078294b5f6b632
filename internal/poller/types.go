// internal/poller/types.go
package poller

import "time"

// ReadBlock describes one register read.
// Geometry only: no semantics.
type ReadBlock struct {
	FC       uint8 // 3 = holding, 4 = input
	Address  uint16
	Quantity uint16
}

// BlockResult is the raw result of a single read.
type BlockResult struct {
	FC        uint8
	Address   uint16
	Quantity  uint16
	Registers []uint16
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Name string
	At   time.Time

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}

// Registers returns the registers of the block that starts at addr.
func (r PollResult) Registers(addr uint16) ([]uint16, bool) {
	for _, b := range r.Blocks {
		if b.Address == addr {
			return b.Registers, true
		}
	}
	return nil, false
}
