// internal/config/config.go
package config

type Config struct {
	Connect Connect       `yaml:"connect"`
	Printer PrinterConfig `yaml:"printer"`
	Device  DeviceConfig  `yaml:"device"`
	Status  *StatusConfig `yaml:"status"`
	API     APIConfig     `yaml:"api"`
	Planner PlannerConfig `yaml:"planner"`
}

// ---- CONNECT ----

// Connect is the per-cycle link configuration.
// It is re-read every communication cycle; see Fingerprint.
type Connect struct {
	Host    string `yaml:"host"`
	Token   string `yaml:"token"`
	Port    uint16 `yaml:"port"`
	TLS     bool   `yaml:"tls"`
	Enabled bool   `yaml:"enabled"`
}

// ---- PRINTER IDENTITY ----

type PrinterConfig struct {
	Fingerprint string `yaml:"fingerprint"`
	Serial      string `yaml:"serial"`
	PrinterType string `yaml:"printer_type"`
	Firmware    string `yaml:"firmware"`
}

// ---- DEVICE (MODBUS SOURCE) ----

type DeviceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	UnitID         uint8  `yaml:"unit_id"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`

	// BaseAddress shifts the whole register layout.
	BaseAddress uint16 `yaml:"base_address"`
}

// ---- STATUS MIRROR (OPTIONAL) ----

type StatusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- LOCAL API (OPTIONAL) ----

type APIConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
}

// ---- PLANNER ----

type PlannerConfig struct {
	TelemetryIntervalMs int `yaml:"telemetry_interval_ms"`
	RetryMaxMs          int `yaml:"retry_max_ms"`
}
