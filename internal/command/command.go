// internal/command/command.go
package command

import (
	"fmt"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
)

// ID identifies a server command. Replies (Accepted / Rejected events)
// echo it back.
type ID uint32

// Command is a decoded server instruction.
type Command struct {
	ID   ID
	Data Data
}

// Data is the closed set of command variants.
// Every variant lives in this package; dispatch with a type switch and
// panic in default, so a new variant cannot fall through silently.
type Data interface {
	isData()
	Name() string
}

// ---- ERROR-ISH VARIANTS ----

// Unknown is a command we do not understand (unknown name or content type).
type Unknown struct{}

// Broken is a command we understand enough to know it is malformed.
type Broken struct {
	Reason string
}

// ProcessingOther means the buffer is held by something else. Retry later.
type ProcessingOther struct{}

// ProcessingThis means the command is already being worked on.
type ProcessingThis struct{}

// GcodeTooLarge means the gcode body exceeds the staging capacity.
type GcodeTooLarge struct{}

// ---- PAYLOAD VARIANTS ----

// Gcode is a gcode body staged in the shared buffer.
// Size excludes any terminator.
type Gcode struct {
	Size   int
	Buffer *bigbuffer.Shared
}

type SendInfo struct{}

type SendJobInfo struct {
	JobID uint16
}

// SendFileInfo carries the requested path in the shared buffer.
type SendFileInfo struct {
	Buffer *bigbuffer.Shared
}

type SendTransferInfo struct{}

type PausePrint struct{}

type ResumePrint struct{}

type StopPrint struct{}

// StartPrint carries the path to print in the shared buffer.
type StartPrint struct {
	Buffer *bigbuffer.Shared
}

type SetPrinterReady struct{}

type CancelPrinterReady struct{}

// StartConnectDownload carries path and file hash in the shared buffer.
type StartConnectDownload struct {
	Team   uint64
	Buffer *bigbuffer.Shared
}

func (Unknown) isData()              {}
func (Broken) isData()               {}
func (ProcessingOther) isData()      {}
func (ProcessingThis) isData()       {}
func (GcodeTooLarge) isData()        {}
func (Gcode) isData()                {}
func (SendInfo) isData()             {}
func (SendJobInfo) isData()          {}
func (SendFileInfo) isData()         {}
func (SendTransferInfo) isData()     {}
func (PausePrint) isData()           {}
func (ResumePrint) isData()          {}
func (StopPrint) isData()            {}
func (StartPrint) isData()           {}
func (SetPrinterReady) isData()      {}
func (CancelPrinterReady) isData()   {}
func (StartConnectDownload) isData() {}

func (Unknown) Name() string              { return "unknown" }
func (Broken) Name() string               { return "broken" }
func (ProcessingOther) Name() string      { return "processing_other" }
func (ProcessingThis) Name() string       { return "processing_this" }
func (GcodeTooLarge) Name() string        { return "gcode_too_large" }
func (Gcode) Name() string                { return "gcode" }
func (SendInfo) Name() string             { return "send_info" }
func (SendJobInfo) Name() string          { return "send_job_info" }
func (SendFileInfo) Name() string         { return "send_file_info" }
func (SendTransferInfo) Name() string     { return "send_transfer_info" }
func (PausePrint) Name() string           { return "pause_print" }
func (ResumePrint) Name() string          { return "resume_print" }
func (StopPrint) Name() string            { return "stop_print" }
func (StartPrint) Name() string           { return "start_print" }
func (SetPrinterReady) Name() string      { return "set_printer_ready" }
func (CancelPrinterReady) Name() string   { return "cancel_printer_ready" }
func (StartConnectDownload) Name() string { return "start_connect_download" }

// Buffer returns the shared buffer reference held by the command, if any.
func (c Command) Buffer() *bigbuffer.Shared {
	switch d := c.Data.(type) {
	case Gcode:
		return d.Buffer
	case SendFileInfo:
		return d.Buffer
	case StartPrint:
		return d.Buffer
	case StartConnectDownload:
		return d.Buffer
	case Unknown, Broken, ProcessingOther, ProcessingThis, GcodeTooLarge,
		SendInfo, SendJobInfo, SendTransferInfo, PausePrint, ResumePrint,
		StopPrint, SetPrinterReady, CancelPrinterReady:
		return nil
	default:
		panic(fmt.Sprintf("command: unhandled variant %T", c.Data))
	}
}

// Release drops the command's buffer reference. Consumers call it when done
// with the command; it is a no-op for variants without payload.
func (c Command) Release() {
	c.Buffer().Release()
}

func (c Command) String() string {
	if b, ok := c.Data.(Broken); ok {
		return fmt.Sprintf("%d:%s(%s)", c.ID, b.Name(), b.Reason)
	}
	return fmt.Sprintf("%d:%s", c.ID, c.Data.Name())
}
