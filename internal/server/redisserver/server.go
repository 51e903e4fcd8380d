package redisserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv/internal/protocol/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadBuffer is the number of bytes requested from the socket per read.
	ReadBuffer int
	// IdleTimeout closes a connection that sent nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
	// WriteTimeout bounds writing the replies of one read batch.
	// Zero disables it.
	WriteTimeout time.Duration
	// RateLimit is the sustained commands per second allowed per
	// connection. Zero disables limiting.
	RateLimit float64
	// MaxBulkLen and MaxArrayLen are the decoder limits.
	MaxBulkLen  int
	MaxArrayLen int
	// TLS, when set, serves clients over TLS.
	TLS *tls.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadBuffer:   1024,
		WriteTimeout: 30 * time.Second,
		MaxBulkLen:   resp.DefaultMaxBulkLen,
		MaxArrayLen:  resp.DefaultMaxArrayLen,
	}
}

// maxIdleBuffer is the capacity above which an emptied connection buffer
// is released instead of reused.
const maxIdleBuffer = 64 * 1024

// Server is the RESP protocol server.
type Server struct {
	cfg        *Config
	dispatcher *Dispatcher
	decoder    resp.Decoder
	logger     *slog.Logger
	metrics    *metric.Registry

	mu     sync.Mutex
	ln     net.Listener
	conns  map[*conn]struct{}
	cancel context.CancelFunc

	running atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records connection and command metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// WithClock sets the clock used for expiry. Defaults to the system clock.
func WithClock(clock memory.Clock) Option {
	return func(s *Server) {
		s.dispatcher.clock = clock
	}
}

// New creates a server backed by store.
func New(cfg *Config, store *memory.Store, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = DefaultConfig().ReadBuffer
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: NewDispatcher(store, nil),
		decoder: resp.Decoder{
			MaxBulkLen:  cfg.MaxBulkLen,
			MaxArrayLen: cfg.MaxArrayLen,
		},
		logger: slog.Default(),
		conns:  make(map[*conn]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// conn is one client connection.
type conn struct {
	id      string
	netConn net.Conn
	bw      *bufio.Writer
	limiter *rate.Limiter

	// buf holds received bytes not yet decoded into a frame.
	buf []byte
	// out is scratch space for encoding one reply.
	out []byte

	closed atomic.Bool
}

func (s *Server) newConn(nc net.Conn) *conn {
	c := &conn{
		id:      "conn-" + strings.ToLower(ulid.Make().String()),
		netConn: nc,
		bw:      bufio.NewWriter(nc),
	}
	if s.cfg.RateLimit > 0 {
		burst := int(s.cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)
	}
	return c
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// Start binds the listener and serves connections in the background.
// Cancelling ctx stops accepting; Shutdown also closes open connections.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	if s.cfg.TLS != nil {
		ln = tls.NewListener(ln, s.cfg.TLS)
	}

	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.ln = ln
	s.cancel = cancel
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("redis server listening", "addr", ln.Addr().String(), "tls", s.cfg.TLS != nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("redis server accept loop stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	return nil
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Shutdown stops accepting, closes every open connection and waits for
// connection goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	ln := s.ln
	if s.cancel != nil {
		s.cancel()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	var firstErr error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("redis server stopped")
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}

			// Retry transient failures such as running out of file
			// descriptors.
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff < time.Second {
				backoff *= 2
			}
			s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		c := s.newConn(nc)
		if !s.track(c) {
			_ = c.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

// track registers c unless the server is shutting down.
func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// serveConn reads from c until it closes, decoding and answering every
// complete frame. Bytes of a partial frame are kept for the next read.
func (s *Server) serveConn(ctx context.Context, c *conn) {
	log := s.logger.With("conn_id", c.id, "remote", c.netConn.RemoteAddr().String())
	log.Debug("connection opened")
	s.metrics.ConnOpened()
	defer func() {
		_ = c.Close()
		s.metrics.ConnClosed()
		log.Debug("connection closed")
	}()

	chunk := make([]byte, s.cfg.ReadBuffer)
	for {
		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}

		n, err := c.netConn.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			if !s.processBuffer(ctx, c, log) {
				return
			}
		}
		if err != nil {
			logReadError(log, err)
			return
		}
	}
}

// processBuffer answers every complete frame at the front of c.buf, flushes
// the replies and keeps the unconsumed tail. It reports whether the
// connection should stay open.
func (s *Server) processBuffer(ctx context.Context, c *conn, log *slog.Logger) bool {
	if !s.armWrite(c) {
		return false
	}

	pending := c.buf
	for len(pending) > 0 {
		frame, rest, err := s.decoder.Decode(pending)
		if errors.Is(err, resp.ErrIncomplete) {
			break
		}
		if err != nil {
			s.protocolError(c, log, err)
			return false
		}

		if c.limiter != nil {
			// Replies already encoded go out before the limiter blocks.
			if c.bw.Buffered() > 0 && !s.flush(c, log) {
				return false
			}
			if err := c.limiter.Wait(ctx); err != nil {
				return false
			}
			if !s.armWrite(c) {
				return false
			}
		}

		start := time.Now()
		label, reply := s.dispatcher.Execute(frame)
		s.metrics.ObserveCommand(label, time.Since(start))

		// The reply may alias pending, so encode it before compacting.
		c.out = resp.AppendValue(c.out[:0], reply)
		if _, err := c.bw.Write(c.out); err != nil {
			log.Debug("write failed", "error", err)
			return false
		}
		pending = rest
	}

	if !s.flush(c, log) {
		return false
	}

	c.buf = append(c.buf[:0], pending...)
	if len(c.buf) == 0 && cap(c.buf) > maxIdleBuffer {
		c.buf = nil
	}
	return true
}

// armWrite starts a new write deadline window. bufio may write to the
// socket before an explicit flush, so the window is also renewed after the
// limiter blocks.
func (s *Server) armWrite(c *conn) bool {
	if s.cfg.WriteTimeout <= 0 {
		return true
	}
	return c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)) == nil
}

// flush writes buffered replies under a fresh write deadline.
func (s *Server) flush(c *conn, log *slog.Logger) bool {
	if !s.armWrite(c) {
		return false
	}
	if err := c.bw.Flush(); err != nil {
		log.Debug("flush failed", "error", err)
		return false
	}
	return true
}

// protocolError reports an undecodable frame to the client. The caller
// closes the connection afterwards.
func (s *Server) protocolError(c *conn, log *slog.Logger, err error) {
	kind := metric.ErrKindMalformed
	if errors.Is(err, resp.ErrLimitExceeded) {
		kind = metric.ErrKindLimit
	}
	s.metrics.ProtocolError(kind)
	log.Debug("protocol error", "error", err)

	_, _ = c.bw.WriteString(protocolErrorLine(err))
	_ = s.flush(c, log)
}

func protocolErrorLine(err error) string {
	detail := strings.TrimPrefix(err.Error(), "resp: ")
	detail = strings.NewReplacer("\r", " ", "\n", " ").Replace(detail)
	return "-ERR Protocol error: " + detail + "\r\n"
}

func logReadError(log *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Debug("connection idle timeout")
	default:
		log.Debug("connection read error", "error", err)
	}
}
