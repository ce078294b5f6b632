// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Client abstracts the register reads the poller needs.
// The poller depends on geometry only.
type Client interface {
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

// Factory makes a new client. ONE attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
//
// The client is reused while healthy. On any read failure it is discarded
// and the factory is asked again on the next cycle.
type Poller struct {
	cfg     Config
	client  Client
	factory Factory
}

// New creates a poller with immutable config. client may be nil when a
// factory is given.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.Name == "" {
		return nil, errors.New("poller: name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{cfg: cfg, client: client, factory: factory}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		Name: p.cfg.Name,
		At:   time.Now(),
	}

	if p.client == nil {
		c, err := p.factory()
		if err != nil {
			res.Err = fmt.Errorf("poller: connect: %w", err)
			return res
		}
		p.client = c
	}

	var blocks []BlockResult

	for _, rb := range p.cfg.Reads {
		var (
			regs []uint16
			err  error
		)

		switch rb.FC {
		case 3:
			regs, err = p.client.ReadHoldingRegisters(rb.Address, rb.Quantity)
		case 4:
			regs, err = p.client.ReadInputRegisters(rb.Address, rb.Quantity)
		default:
			res.Err = fmt.Errorf("poller: unsupported function code %d", rb.FC)
			return res
		}

		if err != nil {
			p.drop()
			res.Err = err
			return res
		}

		blocks = append(blocks, BlockResult{
			FC: rb.FC, Address: rb.Address, Quantity: rb.Quantity, Registers: regs,
		})
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}

// drop discards the client; the next cycle reconnects if it can.
func (p *Poller) drop() {
	if p.factory == nil {
		return
	}
	if c, ok := p.client.(io.Closer); ok {
		_ = c.Close()
	}
	p.client = nil
}
