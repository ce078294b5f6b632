// internal/planner/action.go
package planner

import (
	"fmt"
	"time"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
	"github.com/tamzrod/connect-client/internal/command"
)

// Action is the closed set of things the planner can ask for.
type Action interface {
	isAction()
}

// Sleep asks the loop to wait without touching the network.
type Sleep struct {
	Duration time.Duration
}

// SendTelemetry sends a device snapshot, or "{}" when Empty is set.
type SendTelemetry struct {
	Empty bool
}

// Event reports something to the events endpoint.
type Event struct {
	Type EventType

	// CommandID is set when the event answers a command.
	CommandID *command.ID

	// JobID is set for JobInfo.
	JobID *uint16

	// Path is set for FileInfo; it references the shared buffer.
	Path *bigbuffer.Shared
}

func (Sleep) isAction()         {}
func (SendTelemetry) isAction() {}
func (Event) isAction()         {}

// Release drops any buffer reference held by the event.
func (e Event) Release() {
	e.Path.Release()
}

// ---- EVENT TYPES ----

type EventType uint8

const (
	EventInfo EventType = iota + 1
	EventJobInfo
	EventFileInfo
	EventAccepted
	EventRejected
)

// String is the on-wire event name.
func (t EventType) String() string {
	switch t {
	case EventInfo:
		return "INFO"
	case EventJobInfo:
		return "JOB_INFO"
	case EventFileInfo:
		return "FILE_INFO"
	case EventAccepted:
		return "ACCEPTED"
	case EventRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("EVENT_%d", uint8(t))
	}
}

// ---- OUTCOMES ----

// Outcome is how an action ended, as seen by the communication loop.
type Outcome uint8

const (
	// Ok: the server acknowledged the action.
	Ok Outcome = iota + 1
	// Failed: transport or server failure; worth retrying.
	Failed
	// Refused: the server answered but not in a way we can use.
	Refused
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Failed:
		return "failed"
	case Refused:
		return "refused"
	default:
		return "invalid"
	}
}

// Describe renders an action for logs.
func Describe(a Action) string {
	switch v := a.(type) {
	case Sleep:
		return "sleep(" + v.Duration.String() + ")"
	case SendTelemetry:
		if v.Empty {
			return "telemetry(empty)"
		}
		return "telemetry"
	case Event:
		if v.CommandID != nil {
			return fmt.Sprintf("event(%s, cmd=%d)", v.Type, *v.CommandID)
		}
		return "event(" + v.Type.String() + ")"
	default:
		panic(fmt.Sprintf("planner: unhandled action %T", a))
	}
}
