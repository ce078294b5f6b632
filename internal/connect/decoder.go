// internal/connect/decoder.go
package connect

import (
	"errors"
	"fmt"
	"io"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
	"github.com/tamzrod/connect-client/internal/command"
	"github.com/tamzrod/connect-client/internal/httpc"
)

// MaxResponseLen is the receive buffer capacity for command bodies.
const MaxResponseLen = 256

// bodyReader is the part of httpc.Response the decoder needs.
type bodyReader interface {
	ContentLength() int64
	ReadBody(p []byte) (int, error)
}

// decodeCommand turns a command-bearing response into a Command.
//
// Any returned Command, Unknown and Broken included, means the body was
// fully consumed and the connection may be reused. An error means the
// read position is unknown.
func decodeCommand(resp bodyReader, ct httpc.ContentType, id command.ID, buf *bigbuffer.Buffer) (command.Command, error) {
	if resp.ContentLength() > MaxResponseLen {
		return command.Command{}, fmt.Errorf("%w: %d bytes", ErrResponseTooLong, resp.ContentLength())
	}

	// one spare byte detects an oversized body of unknown length
	var recv [MaxResponseLen + 1]byte
	pos := 0
	for {
		if pos == len(recv) {
			return command.Command{}, fmt.Errorf("%w: body exceeds %d bytes", ErrResponseTooLong, MaxResponseLen)
		}
		n, err := resp.ReadBody(recv[pos:])
		pos += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return command.Command{}, fmt.Errorf("connect: read body: %w", err)
		}
	}
	body := recv[:pos]

	switch ct {
	case httpc.ContentGcode:
		return command.ParseGcode(id, body, claim(buf)), nil
	case httpc.ContentJSON:
		return command.ParseJSON(id, body, claim(buf)), nil
	default:
		// no idea how to even parse it
		return command.Command{ID: id, Data: command.Unknown{}}, nil
	}
}

// claim returns nil when the buffer is busy; the parser degrades to
// ProcessingOther where it needs the buffer.
func claim(buf *bigbuffer.Buffer) *bigbuffer.Token {
	tok, err := buf.Claim()
	if err != nil {
		return nil
	}
	return tok
}
