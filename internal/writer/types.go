// internal/writer/types.go
package writer

import "github.com/tamzrod/connect-client/internal/status"

// StatusPlan is where the status block of one printer lives.
type StatusPlan struct {
	Endpoint    string
	UnitID      uint8
	BaseSlot    uint16
	PrinterName string
}

// StatusWriter is the delivery-only contract for link status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// OnlineSource reports the current link status.
// Satisfied by connect.Client.
type OnlineSource interface {
	Status() status.Online
}

// PrinterStateSource reports the printer state code.
type PrinterStateSource interface {
	PrinterState() uint16
}

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
