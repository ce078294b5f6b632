// internal/httpc/httpc.go
package httpc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// Minimal HTTP/1.1 exchange over a connection owned by someone else.
//
// One request, one response, in order. The connection is reused while the
// caller keeps it; whether that is safe is the caller's decision based on
// Response.CanKeepAlive and on draining the body.

// MaxBodyLen caps the rendered request body.
const MaxBodyLen = 1024

var (
	// ErrBodyTooLarge means the request body did not fit MaxBodyLen.
	ErrBodyTooLarge = errors.New("httpc: request body too large")

	// ErrMalformedResponse covers responses we cannot interpret.
	ErrMalformedResponse = errors.New("httpc: malformed response")
)

// ---- CONTENT TYPES ----

type ContentType uint8

const (
	ContentUnknown ContentType = iota
	ContentJSON
	ContentGcode
	ContentText
)

func (c ContentType) String() string {
	switch c {
	case ContentJSON:
		return "application/json"
	case ContentGcode:
		return "text/x.gcode"
	case ContentText:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// ParseContentType maps a Content-Type header value.
func ParseContentType(v string) ContentType {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ContentUnknown
	}
	switch mt {
	case "application/json":
		return ContentJSON
	case "text/x.gcode", "text/x-gcode":
		return ContentGcode
	case "text/plain":
		return ContentText
	default:
		return ContentUnknown
	}
}

// ---- REQUEST ----

type Header struct {
	Name  string
	Value string
}

// Request is one outgoing exchange.
type Request interface {
	URL() string
	Method() string
	ContentType() ContentType
	ExtraHeaders() []Header

	// WriteBodyChunk renders the next part of the body into dst.
	// Zero length means end of body.
	WriteBodyChunk(dst []byte) (int, error)
}

// ---- RESPONSE ----

// CommandIDHeader carries the id of a command pushed in the response body.
const CommandIDHeader = "Command-Id"

type Response struct {
	Status       int
	ContentType  ContentType
	CommandID    *uint32
	CanKeepAlive bool

	body      io.Reader
	remaining int64 // -1 when unknown
}

// ContentLength is the body length still to be read, or -1 when unknown.
func (r *Response) ContentLength() int64 {
	return r.remaining
}

// ReadBody reads the next part of the body.
func (r *Response) ReadBody(p []byte) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	if r.remaining > 0 && int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.body.Read(p)
	if r.remaining > 0 {
		r.remaining -= int64(n)
	}
	if err == io.EOF {
		if r.remaining > 0 {
			return n, io.ErrUnexpectedEOF
		}
		r.remaining = 0
		if n > 0 {
			err = nil
		}
	}
	return n, err
}

// ---- CLIENT ----

// Connection is the raw byte stream.
type Connection interface {
	io.Reader
	io.Writer
}

// ConnectionFactory hands out the current connection.
type ConnectionFactory interface {
	Connection() (Connection, error)
	Host() string
	Invalidate()
}

type Client struct {
	factory ConnectionFactory
}

func New(factory ConnectionFactory) *Client {
	return &Client{factory: factory}
}

// Send performs one exchange. The response body is left unread.
func (c *Client) Send(req Request) (*Response, error) {
	conn, err := c.factory.Connection()
	if err != nil {
		return nil, err
	}

	body, err := renderBody(req)
	if err != nil {
		return nil, err
	}

	var head bytes.Buffer
	fmt.Fprintf(&head, "%s %s HTTP/1.1\r\n", req.Method(), req.URL())
	fmt.Fprintf(&head, "Host: %s\r\n", c.factory.Host())
	fmt.Fprintf(&head, "Content-Type: %s\r\n", req.ContentType())
	fmt.Fprintf(&head, "Content-Length: %d\r\n", len(body))
	for _, h := range req.ExtraHeaders() {
		fmt.Fprintf(&head, "%s: %s\r\n", h.Name, h.Value)
	}
	head.WriteString("\r\n")
	head.Write(body)

	if err := writeAll(conn, head.Bytes()); err != nil {
		return nil, fmt.Errorf("httpc: write: %w", err)
	}

	// A fresh reader per response is fine: requests are not pipelined,
	// so nothing past this response is buffered once its body is drained.
	hr, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		return nil, fmt.Errorf("httpc: read response: %w", err)
	}

	resp := &Response{
		Status:       hr.StatusCode,
		ContentType:  ParseContentType(hr.Header.Get("Content-Type")),
		CanKeepAlive: !hr.Close,
		body:         hr.Body,
		remaining:    hr.ContentLength,
	}

	if v := hr.Header.Get(CommandIDHeader); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad %s %q", ErrMalformedResponse, CommandIDHeader, v)
		}
		id32 := uint32(id)
		resp.CommandID = &id32
	}

	return resp, nil
}

func renderBody(req Request) ([]byte, error) {
	buf := make([]byte, MaxBodyLen)
	pos := 0
	for {
		if pos == len(buf) {
			// one more call must report the end
			var probe [1]byte
			n, err := req.WriteBodyChunk(probe[:])
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return nil, ErrBodyTooLarge
			}
			return buf[:pos], nil
		}
		n, err := req.WriteBodyChunk(buf[pos:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return buf[:pos], nil
		}
		pos += n
	}
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
