// internal/conncache/conncache.go
package conncache

import (
	"errors"
	"io"

	"github.com/tamzrod/connect-client/internal/httpc"
)

// Conn is a live transport.
type Conn interface {
	io.ReadWriteCloser

	// Secure reports whether the transport is TLS.
	Secure() bool
}

// State is the cache variant. At most one holds at a time.
type State uint8

const (
	Empty State = iota
	LiveTLS
	LivePlain
	LastError
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case LiveTLS:
		return "live_tls"
	case LivePlain:
		return "live_plain"
	case LastError:
		return "last_error"
	default:
		return "invalid"
	}
}

// ErrEmpty is returned by Get when nothing was established.
var ErrEmpty = errors.New("conncache: no connection")

// Cache holds at most one transport for the device.
//
// The connection is reused while healthy. A failed establish is stored and
// returned exactly once by Get, after which the cache is Empty again, so the
// next cycle reconnects instead of failing forever.
type Cache struct {
	host string
	conn Conn
	err  error

	// Fingerprint is the configuration checksum the live entry was built
	// for. The owner compares and updates it.
	Fingerprint uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// State reports the current variant.
func (c *Cache) State() State {
	switch {
	case c.conn != nil && c.conn.Secure():
		return LiveTLS
	case c.conn != nil:
		return LivePlain
	case c.err != nil:
		return LastError
	default:
		return Empty
	}
}

// Get returns the live transport. A stored error is returned once and the
// cache reverts to Empty.
func (c *Cache) Get() (Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	if c.err != nil {
		err := c.err
		c.err = nil
		return nil, err
	}
	return nil, ErrEmpty
}

// Invalidate drops whatever the cache holds. A live transport is closed
// without draining; its read position is unknown anyway.
func (c *Cache) Invalidate() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.err = nil
}

// Ensure establishes a transport when the cache is Empty. establish must
// return either a transport or an error; the outcome is stored.
func (c *Cache) Ensure(host string, establish func() (Conn, error)) {
	c.host = host
	if c.State() != Empty {
		return
	}

	conn, err := establish()
	switch {
	case err != nil:
		if conn != nil {
			_ = conn.Close()
		}
		c.err = err
	case conn != nil:
		c.conn = conn
	}

	if c.State() == Empty {
		panic("conncache: establish left the cache empty")
	}
}

// ---- httpc.ConnectionFactory ----

func (c *Cache) Connection() (httpc.Connection, error) {
	conn, err := c.Get()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Cache) Host() string {
	return c.host
}
