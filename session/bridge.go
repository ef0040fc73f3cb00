package session

import (
	"context"
	"sync"

	"github.com/mohitkumar/busframe/driver"
	"github.com/mohitkumar/busframe/frame"
	"go.uber.org/zap"
)

// Bridge transmits remote batches on a loopback bus. A monitor endpoint
// records what the bus carried; the caller gets either its echoed frames
// or the monitor's copy of them.
type Bridge struct {
	mu      sync.Mutex
	tx      *Session
	monitor *Session
	echo    bool
}

func NewBridge(bus *driver.LoopbackBus, sink Sink, echo bool, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	monitorOpts := []Option{WithLogger(logger.Named("monitor"))}
	if sink != nil {
		monitorOpts = append(monitorOpts, WithCapture(sink))
	}
	return &Bridge{
		tx:      New(bus.Open(echo), WithLogger(logger.Named("tx"))),
		monitor: New(bus.Open(false), monitorOpts...),
		echo:    echo,
	}
}

// Handle writes frames in one driver write and returns what came back.
// Batches are handled one at a time.
func (b *Bridge) Handle(ctx context.Context, frames []frame.Frame) ([]frame.Frame, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.tx.WriteFrames(ctx, frames...); err != nil {
		return nil, err
	}
	seen, err := b.monitor.ReadFrames(ctx)
	if err != nil {
		return nil, err
	}
	if !b.echo {
		return seen, nil
	}
	return b.tx.ReadFrames(ctx)
}

func (b *Bridge) Stats() (tx, monitor Stats) {
	return b.tx.Stats(), b.monitor.Stats()
}
