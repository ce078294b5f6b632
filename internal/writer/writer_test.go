// internal/writer/writer_test.go
package writer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tamzrod/connect-client/internal/status"
)

type fakeOnline struct{ cur status.Online }

func (f *fakeOnline) Status() status.Online { return f.cur }

type fakePrinter struct{ state uint16 }

func (f *fakePrinter) PrinterState() uint16 { return f.state }

type recordingWriter struct{ got []status.Snapshot }

func (r *recordingWriter) WriteStatus(s status.Snapshot) error {
	r.got = append(r.got, s)
	return nil
}

func TestMirror_SecondsInErrorCountsAndResets(t *testing.T) {
	on := &fakeOnline{cur: status.Online{Link: status.LinkOK}}
	m := NewMirror(&recordingWriter{}, on, nil, zerolog.Nop())

	assert.True(t, m.Tick())
	assert.Equal(t, status.LinkOK, m.Snapshot().Link)

	on.cur = status.Online{Link: status.LinkError, Code: status.CodeConnect}
	assert.True(t, m.Tick())
	assert.Equal(t, uint16(0), m.Snapshot().SecondsInError, "no increment on the transition")
	assert.Equal(t, status.CodeConnect, m.Snapshot().LastErrorCode)

	m.Tick()
	m.Tick()
	assert.Equal(t, uint16(2), m.Snapshot().SecondsInError)

	on.cur = status.Online{Link: status.LinkOK}
	assert.True(t, m.Tick())
	assert.Equal(t, status.Snapshot{Link: status.LinkOK}, m.Snapshot())

	assert.False(t, m.Tick())
}

func TestMirror_SecondsInErrorSaturates(t *testing.T) {
	on := &fakeOnline{cur: status.Online{Link: status.LinkError}}
	m := NewMirror(&recordingWriter{}, on, nil, zerolog.Nop())
	m.snap = status.Snapshot{Link: status.LinkError, SecondsInError: status.SecondsInErrorMax}

	assert.False(t, m.Tick())
	assert.Equal(t, uint16(status.SecondsInErrorMax), m.Snapshot().SecondsInError)
}

func TestMirror_ConnectingKeepsLastCode(t *testing.T) {
	on := &fakeOnline{cur: status.Online{Link: status.LinkError, Code: status.CodeTransport}}
	m := NewMirror(&recordingWriter{}, on, nil, zerolog.Nop())
	m.Tick()

	on.cur = status.Online{Link: status.LinkConnecting}
	m.Tick()
	assert.Equal(t, status.LinkConnecting, m.Snapshot().Link)
	assert.Equal(t, status.CodeTransport, m.Snapshot().LastErrorCode)
}

func TestMirror_PrinterState(t *testing.T) {
	on := &fakeOnline{cur: status.Online{Link: status.LinkOK}}
	pr := &fakePrinter{state: 4}
	m := NewMirror(&recordingWriter{}, on, pr, zerolog.Nop())

	m.Tick()
	assert.Equal(t, uint16(4), m.Snapshot().PrinterState)

	pr.state = 5
	assert.True(t, m.Tick())
	assert.Equal(t, uint16(5), m.Snapshot().PrinterState)
}
