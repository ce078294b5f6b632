// internal/planner/planner.go
package planner

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/connect-client/internal/background"
	"github.com/tamzrod/connect-client/internal/command"
	"github.com/tamzrod/connect-client/internal/device"
)

const (
	// FullTelemetryEvery forces a full snapshot even when nothing changed.
	FullTelemetryEvery = time.Minute

	// backgroundPoll is the sleep cap while a background command runs.
	backgroundPoll = 100 * time.Millisecond

	// retryBase is the first back-off after a failure.
	retryBase = 250 * time.Millisecond
)

// TelemetrySource supplies the live device snapshot.
type TelemetrySource interface {
	Telemetry() device.Telemetry
}

// Controls are the printer controls commands map to.
// Satisfied by device.Controller.
type Controls interface {
	Pause() error
	Resume() error
	Stop() error
	StartPrint(path string) error
	SetReady() error
	CancelReady() error
}

type Options struct {
	TelemetryInterval time.Duration
	RetryMax          time.Duration

	Device      TelemetrySource
	Controls    Controls
	Interpreter background.Interpreter

	Log zerolog.Logger
	Now func() time.Time
}

// Planner decides what the communication loop does next.
//
// Not safe for concurrent use; it lives on the loop's goroutine.
type Planner struct {
	opts Options
	log  zerolog.Logger

	infoSent     bool
	lastSend     time.Time // last telemetry exchange of either kind
	lastFull     time.Time
	lastSnapshot device.Telemetry

	// events waiting to be sent, oldest first
	queue []Event

	inflight       Action
	inflightState  device.Telemetry
	inflightQueued bool

	failures     int
	backoffUntil time.Time

	bg   *background.Gcode
	bgID command.ID
}

func New(opts Options) *Planner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Planner{
		opts: opts,
		log:  opts.Log.With().Str("component", "planner").Logger(),
	}
}

// ---- ACTIONS ----

// NextAction returns the next thing to do. The returned Event owns its own
// buffer reference; the caller releases it.
func (p *Planner) NextAction() Action {
	now := p.opts.Now()

	// gcode is fed locally, network back-off must not stall it
	p.stepBackground()

	if now.Before(p.backoffUntil) {
		wait := p.backoffUntil.Sub(now)
		if p.bg != nil && wait > backgroundPoll {
			wait = backgroundPoll
		}
		return Sleep{Duration: wait}
	}

	switch {
	case len(p.queue) > 0:
		ev := p.queue[0]
		ev.Path = ev.Path.Clone()
		p.inflightQueued = true
		return p.send(ev)

	case !p.infoSent:
		return p.send(Event{Type: EventInfo})

	case !now.Before(p.lastSend.Add(p.opts.TelemetryInterval)):
		snap := p.opts.Device.Telemetry()
		p.inflightState = snap
		empty := snap == p.lastSnapshot && now.Sub(p.lastFull) < FullTelemetryEvery
		return p.send(SendTelemetry{Empty: empty})
	}

	wait := p.lastSend.Add(p.opts.TelemetryInterval).Sub(now)
	if p.bg != nil && wait > backgroundPoll {
		wait = backgroundPoll
	}
	return Sleep{Duration: wait}
}

func (p *Planner) send(a Action) Action {
	p.inflight = a
	return a
}

// ActionDone records how the last sent action ended.
func (p *Planner) ActionDone(o Outcome) {
	a := p.inflight
	queued := p.inflightQueued
	p.inflight = nil
	p.inflightQueued = false
	if a == nil {
		p.log.Warn().Str("outcome", o.String()).Msg("outcome without action")
		return
	}

	now := p.opts.Now()

	if o == Failed {
		p.failures++
		delay := retryBase << min(p.failures-1, 16)
		if p.opts.RetryMax > 0 && delay > p.opts.RetryMax {
			delay = p.opts.RetryMax
		}
		p.backoffUntil = now.Add(delay)
		p.log.Debug().Str("action", Describe(a)).Dur("backoff", delay).Msg("action failed")
		return
	}
	p.failures = 0

	switch v := a.(type) {
	case Event:
		// Refused events are dropped too; resending will not help.
		if queued {
			p.popEvent()
		}
		if v.Type == EventInfo && o == Ok {
			p.infoSent = true
		}
	case SendTelemetry:
		p.lastSend = now
		if !v.Empty && o == Ok {
			p.lastFull = now
			p.lastSnapshot = p.inflightState
		}
	case Sleep:
		panic("planner: sleep has no outcome")
	default:
		panic(fmt.Sprintf("planner: unhandled action %T", a))
	}
}

// ---- COMMANDS ----

// Command takes over a received command and its buffer reference.
func (p *Planner) Command(cmd command.Command) {
	id := cmd.ID
	p.log.Debug().Str("command", cmd.String()).Msg("command")

	// The server re-sent the command still running in the background.
	if p.bg != nil && id == p.bgID {
		cmd.Release()
		cmd = command.Command{ID: id, Data: command.ProcessingThis{}}
	}

	switch d := cmd.Data.(type) {
	case command.Unknown, command.Broken, command.GcodeTooLarge,
		command.ProcessingOther, command.SendTransferInfo:
		p.reply(id, false)

	case command.ProcessingThis:
		p.reply(id, true)

	case command.Gcode:
		if p.bg != nil {
			cmd.Release()
			p.reply(id, false)
			return
		}
		p.bg = background.NewGcode(d.Buffer, d.Size)
		p.bgID = id

	case command.SendInfo:
		p.queue = append(p.queue, Event{Type: EventInfo, CommandID: &id})

	case command.SendJobInfo:
		job := d.JobID
		p.queue = append(p.queue, Event{Type: EventJobInfo, CommandID: &id, JobID: &job})

	case command.SendFileInfo:
		p.queue = append(p.queue, Event{Type: EventFileInfo, CommandID: &id, Path: d.Buffer})

	case command.PausePrint:
		p.control(id, p.opts.Controls.Pause)
	case command.ResumePrint:
		p.control(id, p.opts.Controls.Resume)
	case command.StopPrint:
		p.control(id, p.opts.Controls.Stop)
	case command.SetPrinterReady:
		p.control(id, p.opts.Controls.SetReady)
	case command.CancelPrinterReady:
		p.control(id, p.opts.Controls.CancelReady)

	case command.StartPrint:
		defer cmd.Release()
		path, ok := d.Buffer.Path()
		if !ok {
			p.reply(id, false)
			return
		}
		p.control(id, func() error { return p.opts.Controls.StartPrint(path) })

	case command.StartConnectDownload:
		// downloads are not supported on this device
		cmd.Release()
		p.reply(id, false)

	default:
		panic(fmt.Sprintf("planner: unhandled command %T", cmd.Data))
	}
}

func (p *Planner) control(id command.ID, fn func() error) {
	if err := fn(); err != nil {
		p.log.Warn().Err(err).Uint32("command_id", uint32(id)).Msg("printer control failed")
		p.reply(id, false)
		return
	}
	p.reply(id, true)
}

func (p *Planner) reply(id command.ID, accepted bool) {
	t := EventRejected
	if accepted {
		t = EventAccepted
	}
	p.queue = append(p.queue, Event{Type: t, CommandID: &id})
}

// ---- BACKGROUND ----

func (p *Planner) stepBackground() {
	if p.bg == nil {
		return
	}
	switch r := p.bg.Step(p.opts.Interpreter); r {
	case background.More, background.Later:
		return
	case background.Success:
		p.reply(p.bgID, true)
	case background.Failure:
		p.log.Warn().Uint32("command_id", uint32(p.bgID)).Msg("gcode command failed")
		p.reply(p.bgID, false)
	default:
		panic(fmt.Sprintf("planner: unhandled background result %v", r))
	}
	p.bg.Release()
	p.bg = nil
}

// Background reports whether a gcode command is still being fed.
func (p *Planner) Background() bool {
	return p.bg != nil
}

// ---- RESET ----

// Reset forgets everything, releasing any buffer references held.
func (p *Planner) Reset() {
	for _, ev := range p.queue {
		ev.Release()
	}
	p.bg.Release()

	*p = Planner{opts: p.opts, log: p.log}
}

func (p *Planner) popEvent() {
	if len(p.queue) == 0 {
		return
	}
	p.queue[0].Release()
	p.queue = p.queue[1:]
}
