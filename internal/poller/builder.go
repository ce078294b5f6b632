// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/connect-client/internal/config"
	pmodbus "github.com/tamzrod/connect-client/internal/poller/modbus"
)

// Build constructs a Poller over the device source and wires the Modbus
// client lifecycle.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
// Startup does not require the device to be reachable.
func Build(d cfg.DeviceConfig, name string, reads []ReadBlock) (*Poller, func() error, error) {
	var last *pmodbus.Client

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		c, err := pmodbus.New(pmodbus.Config{
			Endpoint: d.Endpoint,
			UnitID:   d.UnitID,
			Timeout:  time.Duration(d.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		last = c
		return c, nil
	}

	p, err := New(
		Config{
			Name:     name,
			Interval: time.Duration(d.PollIntervalMs) * time.Millisecond,
			Reads:    reads,
		},
		nil,
		factory,
	)
	if err != nil {
		return nil, nil, err
	}

	closer := func() error {
		if last == nil {
			return nil
		}
		return last.Close()
	}
	return p, closer, nil
}
