// internal/cli/run.go
package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/connect-client/internal/api"
	"github.com/tamzrod/connect-client/internal/bigbuffer"
	"github.com/tamzrod/connect-client/internal/config"
	"github.com/tamzrod/connect-client/internal/connect"
	"github.com/tamzrod/connect-client/internal/device"
	"github.com/tamzrod/connect-client/internal/planner"
	"github.com/tamzrod/connect-client/internal/poller"
	"github.com/tamzrod/connect-client/internal/transport"
	"github.com/tamzrod/connect-client/internal/writer"
	wmodbus "github.com/tamzrod/connect-client/internal/writer/modbus"
)

var startupDelay time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the client until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runClient(ctx)
	},
}

func init() {
	runCmd.Flags().DurationVar(&startupDelay, "startup-delay", 0, "Wait before the first exchange")
	RootCmd.AddCommand(runCmd)
}

func runClient(ctx context.Context) error {
	logger := log.Logger

	// --------------------
	// Config
	// --------------------

	src, err := config.NewFileSource(configPath, logger)
	if err != nil {
		return err
	}
	cfg := src.Current()
	dc := cfg.Device

	// --------------------
	// Device: telemetry poller + controller
	// --------------------

	devLog := logger.With().Str("component", "device").Logger()

	store := device.NewStore(dc.BaseAddress, devLog)
	p, closePoller, err := poller.Build(dc, "printer", device.TelemetryReads(dc.BaseAddress))
	if err != nil {
		return err
	}
	defer closePoller()

	ctlClient, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: dc.Endpoint,
		Timeout:  time.Duration(dc.TimeoutMs) * time.Millisecond,
		Lazy:     true,
	})
	if err != nil {
		return err
	}
	defer ctlClient.Close()

	ctl := device.NewController(ctlClient, dc.UnitID, dc.BaseAddress, devLog)
	prov := device.NewProvider(store, ctl, src)

	// --------------------
	// Communication loop
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pl := planner.New(planner.Options{
		TelemetryInterval: time.Duration(cfg.Planner.TelemetryIntervalMs) * time.Millisecond,
		RetryMax:          time.Duration(cfg.Planner.RetryMaxMs) * time.Millisecond,
		Device:            prov,
		Controls:          ctl,
		Interpreter:       ctl,
		Log:               logger,
	})

	client := connect.New(connect.Options{
		Config:  src,
		Planner: pl,
		Device:  prov,
		Dialer: &transport.Dialer{
			ConnectTimeout: 10 * time.Second,
			IOTimeout:      10 * time.Second,
		},
		Buffer:  bigbuffer.New(),
		Log:     logger,
		Metrics: connect.NewMetrics(reg),
	})

	// --------------------
	// Optional status mirror
	// --------------------

	plan, err := writer.BuildPlan(cfg.Status, printerName(cfg.Printer))
	if err != nil {
		return err
	}
	var mirror *writer.Mirror
	if plan != nil {
		statusClient, closeStatus, err := writer.BuildEndpointClient(cfg.Status)
		if err != nil {
			return err
		}
		defer closeStatus()

		sw, ok := writer.NewStatusWriter(plan, statusClient)
		if !ok {
			return errors.New("status: mirror plan rejected")
		}
		mirror = writer.NewMirror(sw, client, prov, logger.With().Str("component", "status").Logger())
	}

	g, ctx := errgroup.WithContext(ctx)

	polls := make(chan poller.PollResult)
	g.Go(func() error { p.Run(ctx, polls); return nil })
	g.Go(func() error { store.Run(ctx, polls); return nil })

	g.Go(func() error {
		if startupDelay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(startupDelay):
			}
		}
		client.Run(ctx)
		return nil
	})

	if mirror != nil {
		g.Go(func() error { mirror.Run(ctx); return nil })
	}

	// --------------------
	// Optional local API
	// --------------------

	if cfg.API.Listen != "" {
		h := api.NewHandler(client, prov, reg)
		g.Go(func() error {
			return api.Serve(ctx, cfg.API.Listen, h, logger.With().Str("component", "api").Logger())
		})
	}

	logger.Info().Str("config", configPath).Msg("client started")
	err = g.Wait()
	logger.Info().Msg("client stopped")
	return err
}

// printerName is what the status block shows for this printer.
func printerName(pc config.PrinterConfig) string {
	if pc.Serial != "" {
		return pc.Serial
	}
	return pc.Fingerprint
}
