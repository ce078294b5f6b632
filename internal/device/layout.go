// internal/device/layout.go
package device

// Controller register layout (holding registers, relative to base address).
// These values define the protocol and MUST NOT be configurable.

// ---- TELEMETRY BLOCK (read) ----

const (
	RegTempNozzle    = 0 // int16, x10
	RegTempBed       = 1 // int16, x10
	RegTargetNozzle  = 2 // int16, x10
	RegTargetBed     = 3 // int16, x10
	RegAxisZ         = 4 // int16, x100
	RegFanExtruder   = 5 // rpm
	RegFanPrint      = 6 // rpm
	RegPrintSpeed    = 7 // percent
	RegFlow          = 8 // percent
	RegState         = 9 // State
	RegJobID         = 10
	RegProgress      = 11 // percent
	RegTimePrinting  = 12 // uint32, hi word first
	RegTimeRemaining = 14 // uint32, hi word first

	// TelemetryRegs is the size of the telemetry block.
	TelemetryRegs = 16
)

// ---- CURRENT JOB PATH (read) ----

const (
	RegJobPath    = 16
	JobPathRegs   = 64 // 128 ASCII chars
	RegJobName    = RegJobPath + JobPathRegs
	JobNameRegs   = 16 // 32 ASCII chars
	JobBlockRegs  = JobPathRegs + JobNameRegs
	JobPathMaxLen = JobPathRegs * 2
	JobNameMaxLen = JobNameRegs * 2
)

// ---- CONTROL (write) ----

const (
	RegControl = 100

	// RegStartPath holds the path for ControlStartPrint.
	RegStartPath    = 104
	StartPathRegs   = 128 // 256 ASCII chars
	StartPathMaxLen = StartPathRegs * 2
)

// Control codes written to RegControl.
const (
	ControlNone uint16 = iota
	ControlPause
	ControlResume
	ControlStop
	ControlStartPrint
	ControlSetReady
	ControlCancelReady
)

// ---- GCODE MAILBOX ----

const (
	// RegGcodeLen is 0 while the mailbox is empty. The host writes the
	// line first, then its length; the controller clears it when consumed.
	RegGcodeLen  = 300
	RegGcodeLine = 301
	GcodeRegs    = 64
	GcodeMaxLine = GcodeRegs * 2
)

// maxRegsPerWrite is the Modbus limit for write multiple registers.
const maxRegsPerWrite = 123
