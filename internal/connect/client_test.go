// internal/connect/client_test.go
package connect

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
	"github.com/tamzrod/connect-client/internal/command"
	"github.com/tamzrod/connect-client/internal/conncache"
	"github.com/tamzrod/connect-client/internal/planner"
	"github.com/tamzrod/connect-client/internal/status"
)

type harness struct {
	client  *Client
	cfg     *fakeConfig
	planner *fakePlanner
	dialer  *fakeDialer
	sleeps  *sleepRecorder
	buf     *bigbuffer.Buffer
	metrics *Metrics
}

func newHarness(script ...[]string) *harness {
	h := &harness{
		cfg:     enabledConfig(),
		planner: &fakePlanner{},
		dialer:  &fakeDialer{script: script},
		sleeps:  &sleepRecorder{},
		buf:     bigbuffer.New(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	h.client = New(Options{
		Config:  h.cfg,
		Planner: h.planner,
		Device:  fakeDevice{},
		Dialer:  h.dialer,
		Buffer:  h.buf,
		Log:     zerolog.Nop(),
		Metrics: h.metrics,
		Sleep:   h.sleeps.sleep,
	})
	return h
}

func (h *harness) cycle(t *testing.T) error {
	t.Helper()
	return h.client.Communicate(context.Background())
}

// ---- no network ----

func TestCommunicate_DisabledDoesNothing(t *testing.T) {
	h := newHarness()
	h.cfg.cur.Enabled = false

	require.NoError(t, h.cycle(t))
	assert.Empty(t, h.dialer.calls)
	assert.Equal(t, 1, h.planner.resets)
	assert.Empty(t, h.planner.outcomes)
	assert.Equal(t, []time.Duration{DisabledBackoff}, h.sleeps.got)
	assert.Equal(t, status.LinkOff, h.client.Status().Link)
}

func TestCommunicate_SleepLeavesConnectionAlone(t *testing.T) {
	h := newHarness()
	h.planner.actions = []planner.Action{planner.Sleep{Duration: 3 * time.Second}}

	require.NoError(t, h.cycle(t))
	assert.Empty(t, h.dialer.calls)
	assert.Empty(t, h.planner.outcomes)
	assert.Equal(t, []time.Duration{3 * time.Second}, h.sleeps.got)
	assert.Equal(t, conncache.Empty, h.client.cache.State())
}

// ---- exchanges ----

func TestCommunicate_NoContentIsOkAndReusesConnection(t *testing.T) {
	h := newHarness([]string{noContent, noContent})

	require.NoError(t, h.cycle(t))
	require.NoError(t, h.cycle(t))

	assert.Len(t, h.dialer.calls, 1)
	assert.Equal(t, []planner.Outcome{planner.Ok, planner.Ok}, h.planner.outcomes)
	assert.Equal(t, 2, h.dialer.conns[0].requests)
	assert.Equal(t, status.LinkOK, h.client.Status().Link)

	req := h.dialer.conns[0].written.String()
	assert.True(t, strings.HasPrefix(req, "POST /p/telemetry HTTP/1.1\r\n"))
	assert.Contains(t, req, "Fingerprint: fp-1\r\n")
	assert.Contains(t, req, "Token: tok\r\n")
	assert.Contains(t, req, "Host: connect.example.com\r\n")
}

func TestCommunicate_SendInfoCommand(t *testing.T) {
	h := newHarness([]string{commandResponse("7", "application/json", `{"command":"SEND_INFO"}`)})

	require.NoError(t, h.cycle(t))

	assert.Equal(t, []planner.Outcome{planner.Ok}, h.planner.outcomes)
	require.Len(t, h.planner.commands, 1)
	assert.Equal(t, command.Command{ID: 7, Data: command.SendInfo{}}, h.planner.commands[0])
	assert.Equal(t, conncache.LivePlain, h.client.cache.State(), "drained body keeps the connection")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.commands.WithLabelValues("send_info")))
}

func TestCommunicate_BrokenBodyKeepsID(t *testing.T) {
	h := newHarness([]string{commandResponse("11", "application/json", `This is not a JSON`)})

	require.NoError(t, h.cycle(t))

	assert.Equal(t, []planner.Outcome{planner.Ok}, h.planner.outcomes)
	require.Len(t, h.planner.commands, 1)
	assert.Equal(t, command.ID(11), h.planner.commands[0].ID)
	assert.IsType(t, command.Broken{}, h.planner.commands[0].Data)
}

func TestCommunicate_UnknownContentTypeIsUnknownCommand(t *testing.T) {
	h := newHarness([]string{commandResponse("5", "image/png", "xx")})

	require.NoError(t, h.cycle(t))
	require.Len(t, h.planner.commands, 1)
	assert.Equal(t, command.Command{ID: 5, Data: command.Unknown{}}, h.planner.commands[0])
}

func TestCommunicate_GcodeCommandClaimsBuffer(t *testing.T) {
	h := newHarness([]string{
		commandResponse("1", "text/x.gcode", "G28\nM84\n"),
		commandResponse("2", "text/x.gcode", "M104 S0\n"),
	})

	require.NoError(t, h.cycle(t))
	require.NoError(t, h.cycle(t))

	require.Len(t, h.planner.commands, 2)
	first, ok := h.planner.commands[0].Data.(command.Gcode)
	require.True(t, ok)
	assert.Equal(t, 8, first.Size)
	assert.Equal(t, "G28\nM84\n", string(first.Buffer.Gcode()))

	// the first gcode still holds the buffer
	assert.Equal(t, command.Command{ID: 2, Data: command.ProcessingOther{}}, h.planner.commands[1])

	h.planner.commands[0].Release()
	assert.False(t, h.buf.Claimed())
}

func TestCommunicate_ResponseTooLong(t *testing.T) {
	body := strings.Repeat("x", 300)
	h := newHarness([]string{commandResponse("9", "application/json", body)})

	err := h.cycle(t)
	require.ErrorIs(t, err, ErrResponseTooLong)

	assert.Equal(t, []planner.Outcome{planner.Failed}, h.planner.outcomes)
	require.Len(t, h.planner.commands, 1)
	assert.Equal(t, command.ID(9), h.planner.commands[0].ID)
	assert.IsType(t, command.Broken{}, h.planner.commands[0].Data)

	assert.True(t, h.dialer.conns[0].closed)
	assert.Equal(t, conncache.Empty, h.client.cache.State())
	assert.False(t, h.buf.Claimed())

	st := h.client.Status()
	assert.Equal(t, status.LinkError, st.Link)
	assert.Equal(t, status.CodeResponseTooLong, st.Code)
}

func TestCommunicate_TruncatedBodyIsDecodeFailure(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nCommand-Id: 4\r\nContent-Length: 50\r\n\r\n{\"comm"
	h := newHarness([]string{resp})

	err := h.cycle(t)
	require.Error(t, err)
	assert.Equal(t, []planner.Outcome{planner.Failed}, h.planner.outcomes)
	require.Len(t, h.planner.commands, 1)
	assert.IsType(t, command.Broken{}, h.planner.commands[0].Data)
	assert.Equal(t, conncache.Empty, h.client.cache.State())
}

func TestCommunicate_SuccessWithoutCommandIDIsRefused(t *testing.T) {
	h := newHarness([]string{"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n{}"})

	err := h.cycle(t)
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Equal(t, []planner.Outcome{planner.Refused}, h.planner.outcomes)
	assert.Empty(t, h.planner.commands)
	assert.Equal(t, conncache.Empty, h.client.cache.State())
	assert.Equal(t, status.CodeUnexpectedResponse, h.client.Status().Code)
}

func TestCommunicate_OtherStatusFails(t *testing.T) {
	h := newHarness([]string{"HTTP/1.1 500 Internal Server Error\r\nContent-Length: 0\r\n\r\n"})

	err := h.cycle(t)
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Equal(t, []planner.Outcome{planner.Failed}, h.planner.outcomes)
	assert.True(t, h.dialer.conns[0].closed)
}

func TestCommunicate_KeepAliveRefusedInvalidates(t *testing.T) {
	h := newHarness(
		[]string{"HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n"},
		[]string{noContent},
	)

	require.NoError(t, h.cycle(t))
	assert.Equal(t, []planner.Outcome{planner.Ok}, h.planner.outcomes)
	assert.True(t, h.dialer.conns[0].closed)

	require.NoError(t, h.cycle(t))
	assert.Len(t, h.dialer.calls, 2)
}

func TestCommunicate_KeepAliveRefusedCommandIsStillRead(t *testing.T) {
	body := `{"command":"SEND_INFO"}`
	h := newHarness([]string{"HTTP/1.1 200 OK\r\n" +
		"Content-Type: application/json\r\n" +
		"Command-Id: 7\r\n" +
		"Content-Length: 23\r\n" +
		"Connection: close\r\n\r\n" + segmentBreak + body})

	require.NoError(t, h.cycle(t))
	assert.Equal(t, []planner.Outcome{planner.Ok}, h.planner.outcomes)
	require.Len(t, h.planner.commands, 1)
	assert.Equal(t, command.ID(7), h.planner.commands[0].ID)
	assert.IsType(t, command.SendInfo{}, h.planner.commands[0].Data)

	assert.True(t, h.dialer.conns[0].closed)
	assert.Equal(t, conncache.Empty, h.client.cache.State())
}

// ---- connection lifecycle ----

func TestCommunicate_DialFailureIsReportedOnceThenRetried(t *testing.T) {
	h := newHarness()
	h.dialer.err = errors.New("connection refused")

	err := h.cycle(t)
	require.ErrorIs(t, err, ErrNoConnection)
	assert.Equal(t, []planner.Outcome{planner.Failed}, h.planner.outcomes)
	assert.Equal(t, status.CodeConnect, Classify(err))
	assert.Equal(t, conncache.Empty, h.client.cache.State())

	h.dialer.err = nil
	h.dialer.script = [][]string{{noContent}}
	require.NoError(t, h.cycle(t))
	assert.Len(t, h.dialer.calls, 2)
	assert.Equal(t, planner.Ok, h.planner.outcomes[1])
}

func TestCommunicate_TLSFlipReconnects(t *testing.T) {
	h := newHarness([]string{noContent}, []string{noContent})

	require.NoError(t, h.cycle(t))
	assert.Equal(t, conncache.LivePlain, h.client.cache.State())

	h.cfg.cur.TLS = true
	require.NoError(t, h.cycle(t))

	require.Len(t, h.dialer.calls, 2)
	assert.False(t, h.dialer.calls[0].secure)
	assert.True(t, h.dialer.calls[1].secure)
	assert.True(t, h.dialer.conns[0].closed)
	assert.Equal(t, conncache.LiveTLS, h.client.cache.State())
}

func TestCommunicate_AnyConfigChangeReconnects(t *testing.T) {
	changes := []func(*fakeConfig){
		func(c *fakeConfig) { c.cur.Host = "other.example.com" },
		func(c *fakeConfig) { c.cur.Token = "tok2" },
		func(c *fakeConfig) { c.cur.Port = 8080 },
	}
	for _, change := range changes {
		h := newHarness([]string{noContent}, []string{noContent})
		require.NoError(t, h.cycle(t))
		change(h.cfg)
		require.NoError(t, h.cycle(t))
		assert.Len(t, h.dialer.calls, 2)
		assert.True(t, h.dialer.conns[0].closed)
	}
}

func TestCommunicate_ReenableReconnects(t *testing.T) {
	h := newHarness([]string{noContent}, []string{noContent})
	require.NoError(t, h.cycle(t))

	h.cfg.cur.Enabled = false
	require.NoError(t, h.cycle(t))
	h.cfg.cur.Enabled = true
	require.NoError(t, h.cycle(t))

	assert.Len(t, h.dialer.calls, 2)
}

// ---- actions ----

func TestCommunicate_EventPathReleasedAfterSend(t *testing.T) {
	h := newHarness([]string{noContent})

	tok, err := h.buf.Claim()
	require.NoError(t, err)
	require.NoError(t, tok.SetCommandPath("usb/a.gcode"))
	id := command.ID(3)
	h.planner.actions = []planner.Action{
		planner.Event{Type: planner.EventFileInfo, CommandID: &id, Path: tok.Share()},
	}

	require.NoError(t, h.cycle(t))
	assert.Contains(t, h.dialer.conns[0].written.String(), `"path":"usb/a.gcode"`)
	assert.Contains(t, h.dialer.conns[0].written.String(), "POST /p/events ")
	assert.False(t, h.buf.Claimed())
}

func TestCommunicate_UnknownEventTypePanics(t *testing.T) {
	h := newHarness([]string{noContent})
	h.planner.actions = []planner.Action{
		planner.Event{Type: planner.EventType(99)},
	}
	assert.Panics(t, func() { _ = h.cycle(t) })
}

// ---- run ----

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness()
	h.cfg.cur.Enabled = false

	ctx, cancel := context.WithCancel(context.Background())
	h.client.sleep = func(context.Context, time.Duration) { cancel() }

	done := make(chan struct{})
	go func() {
		h.client.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 1, h.planner.resets)
}

func TestMetrics_Outcomes(t *testing.T) {
	h := newHarness([]string{noContent})

	require.NoError(t, h.cycle(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.actions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.connects))
	assert.Equal(t, float64(status.LinkOK), testutil.ToFloat64(h.metrics.link))
}
