package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mohitkumar/busframe/frame"
	"go.uber.org/zap"
)

// BatchHandler answers one received frame batch with the frames to send back.
type BatchHandler func(ctx context.Context, frames []frame.Frame) ([]frame.Frame, error)

// Transport manages TCP connections with a length-prefixed message protocol.
// Frame batches travel as one message each.
type Transport struct {
	MaxMessageSize int
	logger         *zap.Logger
}

type Option func(*Transport)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMaxMessageSize overrides DefaultMaxMessageSize. Values <= 0 are ignored.
func WithMaxMessageSize(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.MaxMessageSize = n
		}
	}
}

func NewTransport(opts ...Option) *Transport {
	t := &Transport{MaxMessageSize: DefaultMaxMessageSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("transport")
	return t
}

// Listener accepts transport connections.
type Listener struct {
	ln net.Listener
	t  *Transport
}

func (t *Transport) Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, t: t}, nil
}

func (l *Listener) Accept() (*Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return l.t.newConn(c), nil
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func (l *Listener) Close() error { return l.ln.Close() }

func (t *Transport) Connect(addr string) (*Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return t.newConn(c), nil
}

func (t *Transport) newConn(c net.Conn) *Conn {
	return &Conn{
		conn:    c,
		r:       bufio.NewReader(c),
		w:       bufio.NewWriter(c),
		maxSize: t.MaxMessageSize,
	}
}

// Serve accepts connections until ln is closed or ctx is done, answering
// every batch with handler. A handler error closes that connection.
func (t *Transport) Serve(ctx context.Context, ln *Listener, handler BatchHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.handleConn(ctx, conn, handler)
		}()
	}
}

func (t *Transport) handleConn(ctx context.Context, conn *Conn, handler BatchHandler) {
	logger := t.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	logger.Debug("connection opened")
	defer conn.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	for {
		frames, err := conn.ReceiveFrames()
		if err != nil {
			if err != io.EOF && !errors.Is(err, ErrClosed) && ctx.Err() == nil {
				logger.Warn("receive failed", zap.Error(err))
			}
			return
		}
		resp, err := handler(ctx, frames)
		if err != nil {
			logger.Error("handler failed", zap.Int("frames", len(frames)), zap.Error(err))
			return
		}
		if err := conn.SendFrames(resp...); err != nil {
			logger.Warn("send failed", zap.Error(err))
			return
		}
	}
}

// Conn is one side of a transport connection. Sends are serialized; a
// single goroutine should receive.
type Conn struct {
	conn    net.Conn
	r       *bufio.Reader
	mu      sync.Mutex
	w       *bufio.Writer
	maxSize int
	closed  atomic.Bool
}

func (c *Conn) Send(payload []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return EncodeMessage(c.w, payload, c.maxSize)
}

func (c *Conn) Receive() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	payload, err := DecodeMessage(c.r, c.maxSize)
	if err != nil && c.closed.Load() {
		return nil, ErrClosed
	}
	return payload, err
}

// SendFrames sends frames as one CRC-checked batch.
func (c *Conn) SendFrames(frames ...frame.Frame) error {
	batch, err := EncodeBatch(frames)
	if err != nil {
		return err
	}
	return c.Send(batch)
}

// ReceiveFrames reads and verifies one batch.
func (c *Conn) ReceiveFrames() ([]frame.Frame, error) {
	data, err := c.Receive()
	if err != nil {
		return nil, err
	}
	return DecodeBatch(data)
}

func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetDeadline bounds pending and future I/O; the zero time clears it.
func (c *Conn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
