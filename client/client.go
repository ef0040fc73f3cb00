package client

import (
	"context"
	"time"

	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/protocol"
	"github.com/mohitkumar/busframe/transport"
)

// BridgeClient transmits frame batches to a bridge over one transport
// connection. Calls are serialized by the connection.
type BridgeClient struct {
	addr  string
	conn  *transport.Conn
	codec protocol.Codec
}

func NewBridgeClient(addr string, opts ...transport.Option) (*BridgeClient, error) {
	conn, err := transport.NewTransport(opts...).Connect(addr)
	if err != nil {
		return nil, err
	}
	return &BridgeClient{addr: addr, conn: conn}, nil
}

func (c *BridgeClient) Addr() string { return c.addr }

// Transmit sends frames as one batch and waits for the frames the bridge
// returns. The context deadline bounds the round trip, and cancelling the
// context interrupts it.
func (c *BridgeClient) Transmit(ctx context.Context, frames ...frame.Frame) ([]frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer func() {
		stop()
		c.conn.SetDeadline(time.Time{})
	}()

	reply, err := c.roundTrip(frames)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return reply, err
}

func (c *BridgeClient) roundTrip(frames []frame.Frame) ([]frame.Frame, error) {
	if err := c.conn.SendFrames(frames...); err != nil {
		return nil, err
	}
	return c.conn.ReceiveFrames()
}

// TransmitViews is Transmit for typed views; the reply is converted back
// to views.
func (c *BridgeClient) TransmitViews(ctx context.Context, views ...any) ([]protocol.View, error) {
	buf, err := c.codec.Marshal(views...)
	if err != nil {
		return nil, err
	}
	frames, err := frame.DecodeAll(buf)
	if err != nil {
		return nil, err
	}
	reply, err := c.Transmit(ctx, frames...)
	if err != nil {
		return nil, err
	}
	out := make([]protocol.View, 0, len(reply))
	for _, f := range reply {
		v, err := protocol.FromRecord(f)
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *BridgeClient) Close() error {
	return c.conn.Close()
}
