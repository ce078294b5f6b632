// internal/background/background.go
package background

import (
	"bytes"
	"errors"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
)

// Result of one step.
type Result uint8

const (
	// Success: everything consumed.
	Success Result = iota + 1
	// Failure: the interpreter rejected or aborted.
	Failure
	// More: progress made, call again soon.
	More
	// Later: interpreter not ready, nothing consumed.
	Later
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case More:
		return "more"
	case Later:
		return "later"
	default:
		return "invalid"
	}
}

// Interpreter errors.
var (
	// ErrNotReady means try again later; nothing was consumed.
	ErrNotReady = errors.New("interpreter: not ready")

	// ErrAborted means the interpreter gave up on the command.
	ErrAborted = errors.New("interpreter: aborted")
)

// Interpreter accepts gcode one line at a time.
type Interpreter interface {
	// EnqueueGcode takes one trimmed, non-empty line.
	// ErrNotReady leaves the line for a later attempt; any other error
	// aborts the whole command.
	EnqueueGcode(line []byte) error
}

// Gcode is an incremental cursor over gcode staged in the shared buffer.
// It is done when Position == Size.
type Gcode struct {
	Buffer   *bigbuffer.Shared
	Size     int
	Position int
}

// NewGcode takes over a buffer reference.
func NewGcode(buf *bigbuffer.Shared, size int) *Gcode {
	return &Gcode{Buffer: buf, Size: size}
}

// Done reports whether the cursor reached the end.
func (g *Gcode) Done() bool {
	return g.Position >= g.Size
}

// Step pushes the next line to the interpreter.
func (g *Gcode) Step(in Interpreter) Result {
	if g.Done() {
		return Success
	}

	body := g.Buffer.Gcode()
	if len(body) < g.Size {
		// the buffer was reset under us
		return Failure
	}

	rest := body[g.Position:g.Size]
	line := rest
	advance := len(rest)
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
		advance = i + 1
	}

	line = stripComment(line)
	if len(line) > 0 {
		switch err := in.EnqueueGcode(line); {
		case err == nil:
		case errors.Is(err, ErrNotReady):
			return Later
		default:
			return Failure
		}
	}

	g.Position += advance
	if g.Done() {
		return Success
	}
	return More
}

// Release drops the buffer reference. Safe to call more than once.
func (g *Gcode) Release() {
	if g == nil {
		return
	}
	g.Buffer.Release()
}

// stripComment drops a ';' comment and surrounding whitespace.
func stripComment(line []byte) []byte {
	if i := bytes.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return bytes.TrimSpace(line)
}
