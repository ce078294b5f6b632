// internal/device/controller.go
package device

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/connect-client/internal/background"
)

// RegisterClient is the exact contract the controller uses.
// Satisfied by writer/modbus.EndpointClient.
type RegisterClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
	ReadRegisters(unitID uint8, addr, qty uint16) ([]uint16, error)
}

// ErrPathTooLong means the path does not fit the start path mailbox.
var ErrPathTooLong = errors.New("device: path too long")

// Controller drives the printer through its control registers.
type Controller struct {
	cli    RegisterClient
	unitID uint8
	base   uint16
	log    zerolog.Logger
}

func NewController(cli RegisterClient, unitID uint8, base uint16, log zerolog.Logger) *Controller {
	return &Controller{cli: cli, unitID: unitID, base: base, log: log}
}

// ---- PRINTER CONTROLS ----

func (c *Controller) Pause() error       { return c.control(ControlPause) }
func (c *Controller) Resume() error      { return c.control(ControlResume) }
func (c *Controller) Stop() error        { return c.control(ControlStop) }
func (c *Controller) SetReady() error    { return c.control(ControlSetReady) }
func (c *Controller) CancelReady() error { return c.control(ControlCancelReady) }

// StartPrint stages path in the start path mailbox, then triggers the print.
func (c *Controller) StartPrint(path string) error {
	if len(path) > StartPathMaxLen {
		return ErrPathTooLong
	}
	if err := c.write(RegStartPath, encodeASCII(path, StartPathRegs)); err != nil {
		return fmt.Errorf("device: start print path: %w", err)
	}
	return c.control(ControlStartPrint)
}

func (c *Controller) control(code uint16) error {
	if err := c.write(RegControl, []uint16{code}); err != nil {
		return fmt.Errorf("device: control %d: %w", code, err)
	}
	c.log.Debug().Uint16("code", code).Msg("control written")
	return nil
}

// ---- JOB ----

// JobPath reads the path and display name of the current job.
func (c *Controller) JobPath() (path, name string, err error) {
	regs, err := c.cli.ReadRegisters(c.unitID, c.base+RegJobPath, JobBlockRegs)
	if err != nil {
		return "", "", fmt.Errorf("device: read job path: %w", err)
	}
	if len(regs) < JobBlockRegs {
		return "", "", fmt.Errorf("device: job block too short: got=%d want=%d", len(regs), JobBlockRegs)
	}
	return decodeASCII(regs[:JobPathRegs]), decodeASCII(regs[JobPathRegs:]), nil
}

// ---- GCODE MAILBOX ----

// EnqueueGcode offers one line to the controller's gcode mailbox.
// Implements background.Interpreter.
func (c *Controller) EnqueueGcode(line []byte) error {
	if len(line) > GcodeMaxLine {
		return fmt.Errorf("%w: line of %d bytes", background.ErrAborted, len(line))
	}

	pending, err := c.cli.ReadRegisters(c.unitID, c.base+RegGcodeLen, 1)
	if err != nil {
		return fmt.Errorf("device: gcode mailbox: %w", err)
	}
	if len(pending) != 1 {
		return fmt.Errorf("device: gcode mailbox: got %d registers", len(pending))
	}
	if pending[0] != 0 {
		return background.ErrNotReady
	}

	// line first, length last: the length is the commit
	if err := c.write(RegGcodeLine, encodeASCII(string(line), (len(line)+1)/2)); err != nil {
		return fmt.Errorf("device: gcode line: %w", err)
	}
	if err := c.write(RegGcodeLen, []uint16{uint16(len(line))}); err != nil {
		return fmt.Errorf("device: gcode commit: %w", err)
	}
	return nil
}

// write splits regs into Modbus-sized writes at base+rel.
func (c *Controller) write(rel uint16, regs []uint16) error {
	addr := c.base + rel
	for len(regs) > 0 {
		n := len(regs)
		if n > maxRegsPerWrite {
			n = maxRegsPerWrite
		}
		if err := c.cli.WriteRegisters(c.unitID, addr, regs[:n]); err != nil {
			return err
		}
		addr += uint16(n)
		regs = regs[n:]
	}
	return nil
}
