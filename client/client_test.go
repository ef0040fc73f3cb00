package client

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/protocol"
	"github.com/mohitkumar/busframe/testutil"
	"github.com/mohitkumar/busframe/transport"
	"github.com/stretchr/testify/require"
)

func TestBridgeClientTransmit(t *testing.T) {
	ts := testutil.SetupTestServer(t, true)

	c, err := NewBridgeClient(ts.Addr)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sent := []frame.Frame{
		{Identifier: 0x100, Type: frame.TypeCANData, Payload: []byte{1, 2, 3}},
		{Identifier: 0x18FEF100, Type: frame.TypeJ1939Data, Payload: make([]byte, 2047)},
	}
	got, err := c.Transmit(ctx, sent...)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, protocol.FlagTransmitEcho, got[0].Flags)
	require.Len(t, got[1].Payload, 2047)

	require.Equal(t, uint64(1), ts.Capture.NextOffset())
	captured, err := ts.Capture.Frames(0)
	require.NoError(t, err)
	require.Len(t, captured, 2)
	require.Zero(t, captured[0].Flags)
}

func TestBridgeClientTransmitViews(t *testing.T) {
	ts := testutil.SetupTestServer(t, false)

	c, err := DialAny([]string{"", ts.Addr})
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, ts.Addr, c.Addr())

	views, err := c.TransmitViews(context.Background(),
		protocol.CANFrame{Identifier: 0x1FFFFFFF, Extended: true, Payload: []byte{0xFF}},
		protocol.LINFrame{Identifier: 0x3F, Payload: []byte{1}},
	)
	require.NoError(t, err)
	require.Len(t, views, 2)
	can := views[0].(protocol.CANFrame)
	require.True(t, can.Extended)
	require.Equal(t, uint32(0x1FFFFFFF), can.Identifier)
	require.False(t, can.Echo)
	require.Equal(t, uint32(0x3F), views[1].(protocol.LINFrame).Identifier)

	_, err = c.TransmitViews(context.Background(), protocol.CANFrame{Identifier: 0x800})
	require.ErrorIs(t, err, protocol.ErrUndefinedIdentifier)
}

func TestDialAnyFailure(t *testing.T) {
	_, err := DialAny(nil)
	require.Error(t, err)

	_, err = DialAny([]string{"127.0.0.1:1"})
	require.Error(t, err)
}

func TestShouldReconnect(t *testing.T) {
	require.False(t, ShouldReconnect(nil))
	require.True(t, ShouldReconnect(io.EOF))
	require.True(t, ShouldReconnect(transport.ErrClosed))
	require.True(t, ShouldReconnect(transport.ErrBatchCRC))
	require.False(t, ShouldReconnect(frame.ErrPayloadTooLarge))
	require.False(t, ShouldReconnect(errors.New("other")))
}

func TestTransmitAfterServerStop(t *testing.T) {
	ts := testutil.SetupTestServer(t, true)
	c, err := NewBridgeClient(ts.Addr)
	require.NoError(t, err)
	defer c.Close()

	ts.Cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Transmit(ctx, frame.Frame{Payload: []byte{1}})
	require.Error(t, err)
	require.True(t, ShouldReconnect(err), "err = %v", err)
}

func TestServerDropsCorruptBatch(t *testing.T) {
	ts := testutil.SetupTestServer(t, true)
	conn, err := ts.GetConn()
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, conn.Send([]byte{1, 2, 3}))
	_, err = conn.Receive()
	require.ErrorIs(t, err, io.EOF)
	require.True(t, ts.Capture.IsEmpty())
}

func TestTransmitCancelledWithoutDeadline(t *testing.T) {
	tr := transport.NewTransport()
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Accept and read, never answer.
	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		close(accepted)
		for {
			if _, err := conn.Receive(); err != nil {
				return
			}
		}
	}()

	c, err := NewBridgeClient(ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := c.Transmit(ctx, frame.Frame{Identifier: 1, Payload: []byte{1}})
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Transmit did not return after cancel")
	}
	<-accepted
}
