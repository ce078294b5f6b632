// internal/device/types.go
package device

// State is the printer state as reported in telemetry.
type State uint16

const (
	StateUnknown State = iota
	StateIdle
	StateReady
	StateBusy
	StatePrinting
	StatePaused
	StateFinished
	StateStopped
	StateError
	StateAttention
)

// String is the on-wire state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateBusy:
		return "BUSY"
	case StatePrinting:
		return "PRINTING"
	case StatePaused:
		return "PAUSED"
	case StateFinished:
		return "FINISHED"
	case StateStopped:
		return "STOPPED"
	case StateError:
		return "ERROR"
	case StateAttention:
		return "ATTENTION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText makes State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Telemetry is one device snapshot. Comparable; equal snapshots mean
// nothing changed.
type Telemetry struct {
	TempNozzle   float64 `json:"temp_nozzle"`
	TempBed      float64 `json:"temp_bed"`
	TargetNozzle float64 `json:"target_nozzle"`
	TargetBed    float64 `json:"target_bed"`
	AxisZ        float64 `json:"axis_z"`
	FanExtruder  int     `json:"fan_extruder"`
	FanPrint     int     `json:"fan_print"`
	PrintSpeed   int     `json:"speed"`
	Flow         int     `json:"flow"`
	State        State   `json:"state"`

	// Job fields; JobID 0 means no job.
	JobID         uint16 `json:"job_id,omitempty"`
	Progress      int    `json:"progress,omitempty"`
	TimePrinting  uint32 `json:"time_printing,omitempty"`
	TimeRemaining uint32 `json:"time_remaining,omitempty"`
}

// Printing reports whether a job is running or paused.
func (t Telemetry) Printing() bool {
	return t.State == StatePrinting || t.State == StatePaused
}

// PrinterInfo is the static identity of the printer.
type PrinterInfo struct {
	Fingerprint string `json:"fingerprint"`
	Serial      string `json:"sn,omitempty"`
	PrinterType string `json:"printer_type,omitempty"`
	Firmware    string `json:"firmware,omitempty"`
}
