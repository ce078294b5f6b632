// internal/config/normalize.go
package config

import "github.com/google/uuid"

// Defaults applied by Normalize.
const (
	DefaultPortPlain           = 80
	DefaultPortTLS             = 443
	DefaultTimeoutMs           = 2000
	DefaultPollIntervalMs      = 1000
	DefaultTelemetryIntervalMs = 4000
	DefaultRetryMaxMs          = 8000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Connect.Port == 0 {
		if cfg.Connect.TLS {
			cfg.Connect.Port = DefaultPortTLS
		} else {
			cfg.Connect.Port = DefaultPortPlain
		}
	}

	// A printer without a fingerprint gets a random one. It is only stable
	// for the lifetime of the process unless written back to the file.
	if cfg.Printer.Fingerprint == "" {
		cfg.Printer.Fingerprint = uuid.NewString()
	}

	if cfg.Device.TimeoutMs == 0 {
		cfg.Device.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Device.PollIntervalMs == 0 {
		cfg.Device.PollIntervalMs = DefaultPollIntervalMs
	}

	if cfg.Status != nil && cfg.Status.TimeoutMs == 0 {
		cfg.Status.TimeoutMs = DefaultTimeoutMs
	}

	if cfg.Planner.TelemetryIntervalMs == 0 {
		cfg.Planner.TelemetryIntervalMs = DefaultTelemetryIntervalMs
	}
	if cfg.Planner.RetryMaxMs == 0 {
		cfg.Planner.RetryMaxMs = DefaultRetryMaxMs
	}
}
