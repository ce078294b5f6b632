// internal/request/request.go
package request

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
	"github.com/tamzrod/connect-client/internal/command"
	"github.com/tamzrod/connect-client/internal/device"
	"github.com/tamzrod/connect-client/internal/httpc"
	"github.com/tamzrod/connect-client/internal/planner"
)

// Server endpoints.
const (
	TelemetryURL = "/p/telemetry"
	EventsURL    = "/p/events"
)

// Identity headers, sent with every request.
const (
	FingerprintHeader = "Fingerprint"
	TokenHeader       = "Token"
)

// ErrBufferTooSmall means the rendered body does not fit the destination.
var ErrBufferTooSmall = errors.New("request: body does not fit buffer")

// DeviceData is what the renderer reads from the device.
// Satisfied by device.Provider.
type DeviceData interface {
	Telemetry() device.Telemetry
	PrinterInfo() device.PrinterInfo
	CurrentJob() uint16
	JobPath() (path, name string, err error)
}

// Basic renders exactly one action. Not reusable: the first
// WriteBodyChunk renders the whole body, later calls report the end.
type Basic struct {
	action  planner.Action
	data    DeviceData
	buf     *bigbuffer.Buffer
	headers []httpc.Header
	done    bool
}

// New prepares the request for action. A Sleep action never reaches the
// network and is rejected here.
func New(action planner.Action, data DeviceData, buf *bigbuffer.Buffer, fingerprint, token string) *Basic {
	if _, ok := action.(planner.Sleep); ok {
		panic("request: sleep action cannot be rendered")
	}
	return &Basic{
		action: action,
		data:   data,
		buf:    buf,
		headers: []httpc.Header{
			{Name: FingerprintHeader, Value: fingerprint},
			{Name: TokenHeader, Value: token},
		},
	}
}

// ---- httpc.Request ----

func (r *Basic) URL() string {
	switch r.action.(type) {
	case planner.SendTelemetry:
		return TelemetryURL
	case planner.Event:
		return EventsURL
	case planner.Sleep:
		panic("request: sleep action has no url")
	default:
		panic(fmt.Sprintf("request: unhandled action %T", r.action))
	}
}

func (r *Basic) Method() string {
	return "POST"
}

func (r *Basic) ContentType() httpc.ContentType {
	return httpc.ContentJSON
}

func (r *Basic) ExtraHeaders() []httpc.Header {
	return r.headers
}

func (r *Basic) WriteBodyChunk(dst []byte) (int, error) {
	if r.done {
		return 0, nil
	}
	r.done = true

	switch a := r.action.(type) {
	case planner.SendTelemetry:
		return r.renderTelemetry(a, dst)
	case planner.Event:
		return r.renderEvent(a, dst)
	case planner.Sleep:
		panic("request: sleep action has no body")
	default:
		panic(fmt.Sprintf("request: unhandled action %T", r.action))
	}
}

// ---- TELEMETRY ----

func (r *Basic) renderTelemetry(a planner.SendTelemetry, dst []byte) (int, error) {
	if a.Empty {
		return put(dst, []byte("{}"))
	}
	body, err := json.Marshal(r.data.Telemetry())
	if err != nil {
		return 0, fmt.Errorf("request: telemetry: %w", err)
	}
	return put(dst, body)
}

// ---- EVENTS ----

type eventBody struct {
	Event     string      `json:"event"`
	CommandID *command.ID `json:"command_id,omitempty"`
	JobID     *uint16     `json:"job_id,omitempty"`
	Data      any         `json:"data,omitempty"`
}

type jobInfo struct {
	Path          string       `json:"path,omitempty"`
	DisplayName   string       `json:"display_name,omitempty"`
	State         device.State `json:"state"`
	Progress      int          `json:"progress"`
	TimePrinting  uint32       `json:"time_printing"`
	TimeRemaining uint32       `json:"time_remaining"`
}

type fileInfo struct {
	Path string `json:"path"`
}

func (r *Basic) renderEvent(e planner.Event, dst []byte) (int, error) {
	switch e.Type {
	case planner.EventInfo:
		return r.renderJSON(dst, eventBody{
			Event:     e.Type.String(),
			CommandID: e.CommandID,
			Data:      r.data.PrinterInfo(),
		})

	case planner.EventJobInfo:
		// Job 0 means no job on this device, so a request for it never
		// matches, even while idle.
		if e.JobID == nil || *e.JobID == 0 || *e.JobID != r.data.CurrentJob() {
			return r.renderFixed(e, dst)
		}
		return r.renderJSON(dst, eventBody{
			Event:     e.Type.String(),
			CommandID: e.CommandID,
			JobID:     e.JobID,
			Data:      r.jobInfo(),
		})

	case planner.EventFileInfo:
		path, ok := e.Path.Path()
		if !ok {
			return r.renderFixed(e, dst)
		}
		return r.renderJSON(dst, eventBody{
			Event:     e.Type.String(),
			CommandID: e.CommandID,
			Data:      fileInfo{Path: path},
		})

	case planner.EventAccepted, planner.EventRejected:
		return r.renderFixed(e, dst)

	default:
		panic(fmt.Sprintf("request: unhandled event type %d", e.Type))
	}
}

// jobInfo stages the job path in the shared buffer while rendering. A busy
// buffer or an unreadable path leaves the path out.
func (r *Basic) jobInfo() jobInfo {
	t := r.data.Telemetry()
	info := jobInfo{
		State:         t.State,
		Progress:      t.Progress,
		TimePrinting:  t.TimePrinting,
		TimeRemaining: t.TimeRemaining,
	}

	tok, err := r.buf.Claim()
	if err != nil {
		return info
	}
	defer tok.Release()

	path, name, err := r.data.JobPath()
	if err != nil {
		return info
	}
	if err := tok.SetPathInfo(path, name); err != nil {
		return info
	}
	info.Path, info.DisplayName, _ = tok.PathInfo()
	return info
}

// renderFixed emits {"event":...,"command_id":...}, truncated to leave
// room for a terminator. Only replies to a command have this shape.
func (r *Basic) renderFixed(e planner.Event, dst []byte) (int, error) {
	if e.CommandID == nil {
		panic("request: " + e.Type.String() + " without command id")
	}
	if len(dst) == 0 {
		return 0, nil
	}
	s := fmt.Sprintf(`{"event":%q,"command_id":%d}`, e.Type.String(), *e.CommandID)
	return copy(dst[:len(dst)-1], s), nil
}

func (r *Basic) renderJSON(dst []byte, v any) (int, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("request: event: %w", err)
	}
	return put(dst, body)
}

func put(dst, body []byte) (int, error) {
	if len(body) > len(dst) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, len(body), len(dst))
	}
	return copy(dst, body), nil
}
