// internal/device/provider.go
package device

import "github.com/tamzrod/connect-client/internal/config"

// IdentitySource supplies the printer identity.
// Satisfied by config.FileSource.
type IdentitySource interface {
	Current() *config.Config
}

// Provider is the device-data view handed to the communication side:
// live telemetry, printer identity and the current job.
type Provider struct {
	store *Store
	ctl   *Controller
	ids   IdentitySource
}

func NewProvider(store *Store, ctl *Controller, ids IdentitySource) *Provider {
	return &Provider{store: store, ctl: ctl, ids: ids}
}

func (p *Provider) Telemetry() Telemetry {
	return p.store.Telemetry()
}

func (p *Provider) PrinterInfo() PrinterInfo {
	pc := p.ids.Current().Printer
	return PrinterInfo{
		Fingerprint: pc.Fingerprint,
		Serial:      pc.Serial,
		PrinterType: pc.PrinterType,
		Firmware:    pc.Firmware,
	}
}

// CurrentJob returns the running job id, zero when idle.
func (p *Provider) CurrentJob() uint16 {
	t := p.store.Telemetry()
	if !t.Printing() {
		return 0
	}
	return t.JobID
}

func (p *Provider) JobPath() (path, name string, err error) {
	return p.ctl.JobPath()
}

// Controller exposes the printer controls.
func (p *Provider) Controller() *Controller {
	return p.ctl
}

// PrinterState is the telemetry state code, for the status mirror.
func (p *Provider) PrinterState() uint16 {
	return uint16(p.store.Telemetry().State)
}
