// internal/transport/transport.go
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tamzrod/connect-client/internal/conncache"
)

// Dialer opens plain or TLS connections to the server.
type Dialer struct {
	// ConnectTimeout bounds establishing the connection (and TLS handshake).
	ConnectTimeout time.Duration

	// IOTimeout bounds every single read or write. Zero disables it.
	IOTimeout time.Duration

	// TLSConfig is cloned per connection; ServerName is filled from host.
	TLSConfig *tls.Config
}

// Dial connects to host:port. Timeouts surface as ordinary errors.
func (d *Dialer) Dial(ctx context.Context, host string, port uint16, secure bool) (conncache.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	if d.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ConnectTimeout)
		defer cancel()
	}

	var (
		c   net.Conn
		err error
	)
	if secure {
		cfg := &tls.Config{MinVersion: tls.VersionTLS12}
		if d.TLSConfig != nil {
			cfg = d.TLSConfig.Clone()
		}
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
		td := &tls.Dialer{Config: cfg}
		c, err = td.DialContext(ctx, "tcp", addr)
	} else {
		var nd net.Dialer
		c, err = nd.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	return &Conn{conn: c, secure: secure, ioTimeout: d.IOTimeout}, nil
}

// Conn is a live connection with per-operation deadlines.
type Conn struct {
	conn      net.Conn
	secure    bool
	ioTimeout time.Duration
}

func (c *Conn) Read(p []byte) (int, error) {
	if c.ioTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.ioTimeout)); err != nil {
			return 0, err
		}
	}
	return c.conn.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	if c.ioTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.ioTimeout)); err != nil {
			return 0, err
		}
	}
	return c.conn.Write(p)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) Secure() bool {
	return c.secure
}
