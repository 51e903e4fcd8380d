package connection

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/yndnr/respkv/internal/protocol/resp"
)

// DefaultTimeout bounds dialing and each request round trip.
const DefaultTimeout = 5 * time.Second

// Client sends commands to a respkv server over one TCP connection.
// It is not safe for concurrent use.
type Client struct {
	addr      string
	timeout   time.Duration
	tlsConfig *tls.Config
	conn      net.Conn
	br        *bufio.Reader
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTLS connects over TLS using cfg.
func WithTLS(cfg *tls.Config) ClientOption {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

// NewClient creates a client for addr. A zero timeout uses DefaultTimeout.
func NewClient(addr string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{addr: addr, timeout: timeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect opens the connection if it is not open yet.
func (c *Client) Connect() error {
	if c.conn != nil {
		return nil
	}
	var (
		conn net.Conn
		err  error
	)
	dialer := &net.Dialer{Timeout: c.timeout}
	if c.tlsConfig != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, c.tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", c.addr)
	}
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

// Do sends one command and waits for its reply, connecting first if
// needed. Any transport error closes the connection so the next call
// reconnects. An error reply from the server is returned as a Reply, not
// an error.
func (c *Client) Do(args ...string) (Reply, error) {
	if err := c.Connect(); err != nil {
		return Reply{}, err
	}

	parts := make([][]byte, len(args))
	for i, a := range args {
		parts[i] = []byte(a)
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		_ = c.Close()
		return Reply{}, err
	}
	if _, err := c.conn.Write(resp.EncodeCommand(parts...)); err != nil {
		_ = c.Close()
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	reply, err := ReadReply(c.br)
	if err != nil {
		_ = c.Close()
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if reply.Kind == KindError {
		// The server closes the connection after a protocol error.
		_ = c.Close()
	}
	return reply, nil
}
