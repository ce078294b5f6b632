// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/connect-client/internal/config"
	wmodbus "github.com/tamzrod/connect-client/internal/writer/modbus"
)

// BuildPlan converts the status config into a plan.
// Returns nil when the mirror is disabled.
// Assumes config has already passed validation.
func BuildPlan(sc *cfg.StatusConfig, printerName string) (*StatusPlan, error) {
	if sc == nil {
		return nil, nil
	}
	if sc.Endpoint == "" {
		return nil, errors.New("writer: status.endpoint required")
	}
	return &StatusPlan{
		Endpoint:    sc.Endpoint,
		UnitID:      sc.UnitID,
		BaseSlot:    sc.BaseSlot,
		PrinterName: printerName,
	}, nil
}

// BuildEndpointClient creates the TCP client for the status endpoint.
// The endpoint does not have to be reachable at startup.
func BuildEndpointClient(sc *cfg.StatusConfig) (*wmodbus.EndpointClient, func() error, error) {
	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: sc.Endpoint,
		Timeout:  time.Duration(sc.TimeoutMs) * time.Millisecond,
		Lazy:     true,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
