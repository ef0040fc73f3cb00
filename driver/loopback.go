package driver

import (
	"context"
	"sync"
	"time"

	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/protocol"
)

// LoopbackBus is an in-memory bus. A buffer written by one endpoint is
// delivered to every other endpoint, with driver timestamps applied.
type LoopbackBus struct {
	mu        sync.RWMutex
	closed    bool
	clock     func() uint64
	tsMu      sync.Mutex
	lastTS    uint64
	endpoints map[*Endpoint]struct{}
}

type BusOption func(*LoopbackBus)

// WithClock replaces the timestamp source (100 ns ticks by default).
func WithClock(clock func() uint64) BusOption {
	return func(b *LoopbackBus) { b.clock = clock }
}

func NewLoopbackBus(opts ...BusOption) *LoopbackBus {
	b := &LoopbackBus{
		clock:     func() uint64 { return uint64(time.Now().UnixNano() / 100) },
		endpoints: make(map[*Endpoint]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open attaches a new endpoint. With echo set, the endpoint also reads back
// its own CAN and LIN transmissions marked with the transmit-echo flag.
func (b *LoopbackBus) Open(echo bool) *Endpoint {
	ep := &Endpoint{
		bus:    b,
		echo:   echo,
		ch:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.dead = true
		close(ep.closed)
		close(ep.ch)
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// stamp returns the next timestamp, strictly greater than the last one.
func (b *LoopbackBus) stamp() uint64 {
	b.tsMu.Lock()
	defer b.tsMu.Unlock()
	now := b.clock()
	if now <= b.lastTS {
		now = b.lastTS + 1
	}
	b.lastTS = now
	return now
}

func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.closeNoLock()
	}
	b.endpoints = nil
	return nil
}

// Endpoint is one interface attached to a LoopbackBus.
type Endpoint struct {
	bus    *LoopbackBus
	echo   bool
	ch     chan []byte
	mu     sync.Mutex
	dead   bool
	closed chan struct{}
}

var _ Driver = (*Endpoint)(nil)

// Write decodes buf, gives each frame its own bus timestamp and delivers
// the result. Timestamps increase strictly from frame to frame.
func (e *Endpoint) Write(ctx context.Context, buf []byte) error {
	frames, err := frame.DecodeAll(buf)
	if err != nil {
		return err
	}
	e.mu.Lock()
	dead := e.dead
	e.mu.Unlock()
	if dead {
		return ErrClosed
	}

	e.bus.mu.RLock()
	if e.bus.closed {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*Endpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e {
			targets = append(targets, ep)
		}
	}
	e.bus.mu.RUnlock()

	for i := range frames {
		frames[i].Timestamp = e.bus.stamp()
	}
	if len(targets) > 0 {
		rx, err := frame.EncodeAll(frames...)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if err := t.deliver(ctx, rx); err != nil {
				return err
			}
		}
	}
	if e.echo {
		for i := range frames {
			if echoable(frames[i].Type) {
				frames[i].Flags |= protocol.FlagTransmitEcho
			}
		}
		tx, err := frame.EncodeAll(frames...)
		if err != nil {
			return err
		}
		return e.deliver(ctx, tx)
	}
	return nil
}

func echoable(t frame.Type) bool {
	switch t {
	case frame.TypeCANData, frame.TypeCANRemote, frame.TypeCAN20Data, frame.TypeCANFDData, frame.TypeCANFDBRSData, frame.TypeLINData:
		return true
	}
	return false
}

func (e *Endpoint) deliver(ctx context.Context, buf []byte) error {
	select {
	case e.ch <- buf:
		return nil
	case <-e.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Read waits for the next buffer. It returns ErrClosed once the endpoint
// or its bus is closed.
func (e *Endpoint) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-e.closed:
		return nil, ErrClosed
	default:
	}
	select {
	case buf, ok := <-e.ch:
		if !ok {
			return nil, ErrClosed
		}
		return buf, nil
	case <-e.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close detaches the endpoint from the bus.
func (e *Endpoint) Close() error {
	e.bus.mu.Lock()
	e.closeNoLock()
	e.bus.mu.Unlock()
	return nil
}

func (e *Endpoint) closeNoLock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return
	}
	e.dead = true
	close(e.closed)
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
}
