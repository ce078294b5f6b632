// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// CONNECT
	// ------------------------------------------------------------

	c := cfg.Connect

	// a disabled link may be half-filled (registration not done yet)
	if c.Enabled && c.Host == "" {
		return errors.New("connect: host is required when enabled")
	}
	if err := headerSafe("connect.host", c.Host); err != nil {
		return err
	}
	if err := headerSafe("connect.token", c.Token); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// PRINTER IDENTITY
	// ------------------------------------------------------------

	if err := headerSafe("printer.fingerprint", cfg.Printer.Fingerprint); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// DEVICE SOURCE
	// ------------------------------------------------------------

	d := cfg.Device
	if d.Endpoint == "" {
		return errors.New("device: endpoint is required")
	}
	if d.TimeoutMs < 0 {
		return fmt.Errorf("device: timeout_ms must be >= 0, got %d", d.TimeoutMs)
	}
	if d.PollIntervalMs < 0 {
		return fmt.Errorf("device: poll_interval_ms must be >= 0, got %d", d.PollIntervalMs)
	}

	// ------------------------------------------------------------
	// STATUS MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if s := cfg.Status; s != nil {
		if s.Endpoint == "" {
			return errors.New("status: endpoint is required when status is set")
		}
		if s.TimeoutMs < 0 {
			return fmt.Errorf("status: timeout_ms must be >= 0, got %d", s.TimeoutMs)
		}
		// the whole block must stay addressable
		if int(s.BaseSlot)*statusBlockSlots+statusBlockSlots > 1<<16 {
			return fmt.Errorf("status: base_slot %d out of range", s.BaseSlot)
		}
	}

	// ------------------------------------------------------------
	// PLANNER
	// ------------------------------------------------------------

	if cfg.Planner.TelemetryIntervalMs < 0 || cfg.Planner.RetryMaxMs < 0 {
		return errors.New("planner: intervals must be >= 0")
	}

	return nil
}

// statusBlockSlots mirrors status.SlotsPerBlock; config stays a leaf package.
const statusBlockSlots = 20

// headerSafe rejects values that would break an HTTP header line.
func headerSafe(field, v string) error {
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] > 0x7E {
			return fmt.Errorf("%s: must contain printable ASCII only", field)
		}
	}
	return nil
}
