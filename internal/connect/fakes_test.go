// internal/connect/fakes_test.go
package connect

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/connect-client/internal/command"
	"github.com/tamzrod/connect-client/internal/config"
	"github.com/tamzrod/connect-client/internal/conncache"
	"github.com/tamzrod/connect-client/internal/device"
	"github.com/tamzrod/connect-client/internal/planner"
)

// ---- planner ----

type fakePlanner struct {
	actions  []planner.Action
	outcomes []planner.Outcome
	commands []command.Command
	resets   int
}

func (p *fakePlanner) NextAction() planner.Action {
	if len(p.actions) == 0 {
		return planner.SendTelemetry{Empty: true}
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a
}

func (p *fakePlanner) ActionDone(o planner.Outcome) { p.outcomes = append(p.outcomes, o) }
func (p *fakePlanner) Command(c command.Command)    { p.commands = append(p.commands, c) }
func (p *fakePlanner) Reset()                       { p.resets++ }

// ---- config ----

type fakeConfig struct{ cur config.Connect }

func (f *fakeConfig) Connect() config.Connect { return f.cur }

func enabledConfig() *fakeConfig {
	return &fakeConfig{cur: config.Connect{
		Host: "connect.example.com", Token: "tok", Port: 80, Enabled: true,
	}}
}

// ---- device ----

type fakeDevice struct{}

func (fakeDevice) Telemetry() device.Telemetry { return device.Telemetry{State: device.StateIdle} }
func (fakeDevice) PrinterInfo() device.PrinterInfo {
	return device.PrinterInfo{Fingerprint: "fp-1"}
}
func (fakeDevice) CurrentJob() uint16               { return 0 }
func (fakeDevice) JobPath() (string, string, error) { return "", "", nil }

// ---- transport ----

// segmentBreak splits a scripted response into separate reads.
const segmentBreak = "\x00"

// segments hands out at most one segment per Read.
type segments struct{ parts []string }

func (s *segments) Read(p []byte) (int, error) {
	for len(s.parts) > 0 && s.parts[0] == "" {
		s.parts = s.parts[1:]
	}
	if len(s.parts) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.parts[0])
	s.parts[0] = s.parts[0][n:]
	return n, nil
}

// fakeConn answers each written request with the next scripted response.
type fakeConn struct {
	secure    bool
	responses []string
	cur       io.Reader
	written   bytes.Buffer
	requests  int
	closed    bool
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("write on closed connection")
	}
	c.written.Write(p)
	c.requests++
	if len(c.responses) > 0 {
		c.cur = &segments{parts: strings.Split(c.responses[0], segmentBreak)}
		c.responses = c.responses[1:]
	} else {
		c.cur = strings.NewReader("")
	}
	return len(p), nil
}

func (c *fakeConn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("read on closed connection")
	}
	if c.cur == nil {
		return 0, io.EOF
	}
	return c.cur.Read(p)
}

func (c *fakeConn) Close() error { c.closed = true; return nil }
func (c *fakeConn) Secure() bool { return c.secure }

type dialCall struct {
	host   string
	port   uint16
	secure bool
}

// fakeDialer hands out a connection per dial, each answering with the
// given responses.
type fakeDialer struct {
	script [][]string
	err    error
	calls  []dialCall
	conns  []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, host string, port uint16, secure bool) (conncache.Conn, error) {
	d.calls = append(d.calls, dialCall{host, port, secure})
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{secure: secure}
	if len(d.script) > 0 {
		c.responses = d.script[0]
		d.script = d.script[1:]
	}
	d.conns = append(d.conns, c)
	return c, nil
}

// ---- sleep ----

type sleepRecorder struct{ got []time.Duration }

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) {
	s.got = append(s.got, d)
}

// ---- responses ----

const noContent = "HTTP/1.1 204 No Content\r\n\r\n"

func commandResponse(id, contentType, body string) string {
	return "HTTP/1.1 200 OK\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"Command-Id: " + id + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
}
