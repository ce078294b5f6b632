// internal/connect/client.go
package connect

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
	"github.com/tamzrod/connect-client/internal/command"
	"github.com/tamzrod/connect-client/internal/config"
	"github.com/tamzrod/connect-client/internal/conncache"
	"github.com/tamzrod/connect-client/internal/httpc"
	"github.com/tamzrod/connect-client/internal/planner"
	"github.com/tamzrod/connect-client/internal/request"
	"github.com/tamzrod/connect-client/internal/status"
)

// DisabledBackoff is how long a cycle idles while the link is disabled.
const DisabledBackoff = 10 * time.Second

// ---- COLLABORATORS ----

// Planner decides what to send and interprets the outcomes.
type Planner interface {
	NextAction() planner.Action
	ActionDone(planner.Outcome)
	Command(command.Command)
	Reset()
}

// ConfigSource supplies the link configuration, read fresh every cycle.
// Satisfied by config.FileSource.
type ConfigSource interface {
	Connect() config.Connect
}

// Dialer establishes plain or TLS transports.
// Satisfied by transport.Dialer.
type Dialer interface {
	Dial(ctx context.Context, host string, port uint16, secure bool) (conncache.Conn, error)
}

// Options wires a Client.
type Options struct {
	Config  ConfigSource
	Planner Planner
	Device  request.DeviceData
	Dialer  Dialer
	Buffer  *bigbuffer.Buffer

	Log     zerolog.Logger
	Metrics *Metrics // optional

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Client is the communication loop.
//
// One cooperative goroutine drives it; only Status may be called from
// elsewhere.
type Client struct {
	cfg     ConfigSource
	planner Planner
	device  request.DeviceData
	dialer  Dialer
	buf     *bigbuffer.Buffer

	log     zerolog.Logger
	metrics *Metrics
	sleep   func(ctx context.Context, d time.Duration)

	cache  *conncache.Cache
	online *tracker
}

func New(o Options) *Client {
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Buffer == nil {
		o.Buffer = bigbuffer.New()
	}
	return &Client{
		cfg:     o.Config,
		planner: o.Planner,
		device:  o.Device,
		dialer:  o.Dialer,
		buf:     o.Buffer,
		log:     o.Log.With().Str("component", "connect").Logger(),
		metrics: o.Metrics,
		sleep:   o.Sleep,
		cache:   conncache.New(),
		online:  newTracker(o.Now),
	}
}

// Status is the last observed link status. Safe for concurrent use.
func (c *Client) Status() status.Online {
	return c.online.get()
}

// Communicate runs one cycle. Errors are per cycle and never fatal.
func (c *Client) Communicate(ctx context.Context) error {
	cfg := c.cfg.Connect()

	if !cfg.Enabled {
		c.setLink(status.LinkOff)
		c.cache.Invalidate()
		c.planner.Reset()
		c.sleep(ctx, DisabledBackoff)
		return nil
	}

	action := c.planner.NextAction()

	// Sleeping does not need the connection.
	if s, ok := action.(planner.Sleep); ok {
		c.sleep(ctx, s.Duration)
		return nil
	}
	defer releaseAction(action)

	// Reconnect on any configuration change (1:2^64 collisions ignored).
	if fp := cfg.Fingerprint(); fp != c.cache.Fingerprint {
		if c.cache.State() != conncache.Empty {
			c.log.Info().Str("host", cfg.Host).Bool("tls", cfg.TLS).Msg("configuration changed, reconnecting")
		}
		c.cache.Fingerprint = fp
		c.cache.Invalidate()
	}

	c.cache.Ensure(cfg.Host, func() (conncache.Conn, error) {
		c.setLink(status.LinkConnecting)
		c.metrics.connect()
		conn, err := c.dialer.Dial(ctx, cfg.Host, cfg.Port, cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoConnection, err)
		}
		c.log.Info().Str("host", cfg.Host).Uint16("port", cfg.Port).Bool("tls", cfg.TLS).Msg("connected")
		return conn, nil
	})

	req := request.New(action, c.device, c.buf, c.device.PrinterInfo().Fingerprint, cfg.Token)
	resp, err := httpc.New(c.cache).Send(req)
	if err != nil {
		c.done(planner.Failed)
		c.cache.Invalidate()
		return c.cycleError(err)
	}

	// Close only after the body was consumed; it may still be on the wire.
	if !resp.CanKeepAlive {
		defer c.cache.Invalidate()
	}

	log := c.log.Debug().Str("action", planner.Describe(action)).Int("status", resp.Status)

	switch resp.Status {
	// The server has nothing to tell us
	case http.StatusNoContent:
		log.Msg("exchange")
		c.done(planner.Ok)
		return nil

	case http.StatusOK:
		if resp.CommandID == nil {
			// Nothing better to do than throw it away.
			log.Msg("command without id")
			c.done(planner.Refused)
			c.cache.Invalidate()
			return c.cycleError(fmt.Errorf("%w: success without %s", ErrUnexpectedResponse, httpc.CommandIDHeader))
		}

		id := command.ID(*resp.CommandID)
		cmd, err := decodeCommand(resp, resp.ContentType, id, c.buf)
		if err != nil {
			log.Uint32("command_id", uint32(id)).Msg("command body failed")
			c.done(planner.Failed)
			c.planner.Command(command.Command{ID: id, Data: command.Broken{Reason: "failed to receive"}})
			c.cache.Invalidate()
			return c.cycleError(err)
		}

		log.Str("command", cmd.String()).Msg("command received")
		c.done(planner.Ok)
		c.metrics.command(cmd.Data.Name())
		c.planner.Command(cmd)
		return nil

	default:
		log.Msg("unexpected status")
		c.cache.Invalidate()
		c.done(planner.Failed)
		return c.cycleError(fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.Status))
	}
}

// Run calls Communicate until ctx is done.
func (c *Client) Run(ctx context.Context) {
	c.log.Info().Msg("connect client starts")
	defer c.cache.Invalidate()

	for ctx.Err() == nil {
		if err := c.Communicate(ctx); err != nil {
			c.log.Warn().Err(err).Msg("communication cycle failed")
		}
	}
}

// ---- helpers ----

// done reports the single terminal outcome of a cycle.
func (c *Client) done(o planner.Outcome) {
	c.metrics.outcome(o)
	if o == planner.Ok {
		c.setLink(status.LinkOK)
	}
	c.planner.ActionDone(o)
}

func (c *Client) cycleError(err error) error {
	c.online.fail(err)
	c.metrics.setLink(status.LinkError)
	c.metrics.cycleError(Classify(err))
	return err
}

func (c *Client) setLink(l status.Link) {
	c.online.set(l)
	c.metrics.setLink(l)
}

func releaseAction(a planner.Action) {
	if e, ok := a.(planner.Event); ok {
		e.Release()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var _ httpc.ConnectionFactory = (*conncache.Cache)(nil)
