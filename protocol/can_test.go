package protocol

import (
	"testing"

	"github.com/mohitkumar/busframe/frame"
	"github.com/stretchr/testify/require"
)

func TestCANFrameRoundTrip(t *testing.T) {
	c := CANFrame{Identifier: 1, Extended: true, Type: frame.TypeCANData, Payload: []byte{}}
	rec, err := c.Record()
	require.NoError(t, err)
	require.Equal(t, uint32(0x20000001), rec.Identifier)
	require.Equal(t, uint8(0), rec.Info)
	require.Equal(t, uint64(0), rec.Timestamp)

	got := CANFrameFromRecord(rec)
	require.Equal(t, c, got)
}

func TestCANFrameEcho(t *testing.T) {
	c := CANFrame{Identifier: 0x7FF, Echo: true, Type: frame.TypeCANFDData, Payload: []byte{1, 2, 3}}
	rec, err := c.Record()
	require.NoError(t, err)
	require.Equal(t, FlagTransmitEcho, rec.Flags)
	require.Equal(t, uint32(0x7FF), rec.Identifier)
	require.Equal(t, c, CANFrameFromRecord(rec))
}

func TestCANFrameTimestampNotEncoded(t *testing.T) {
	rec, err := CANFrame{Identifier: 5, Timestamp: 99}.Record()
	require.NoError(t, err)
	require.Zero(t, rec.Timestamp)

	c := CANFrameFromRecord(frame.Frame{Timestamp: 99, Identifier: 5, Type: frame.TypeCANData})
	require.Equal(t, uint64(99), c.Timestamp)
}

func TestCANFrameUndefinedIdentifier(t *testing.T) {
	_, err := CANFrame{Identifier: 0x20000000, Extended: false, Type: frame.TypeCANData}.Record()
	require.ErrorIs(t, err, ErrUndefinedIdentifier)

	_, err = CANFrame{Identifier: 0x800}.Record()
	require.ErrorIs(t, err, ErrUndefinedIdentifier)

	_, err = CANFrame{Identifier: 0x20000000, Extended: true}.Record()
	require.ErrorIs(t, err, ErrUndefinedIdentifier)

	_, err = CANFrame{Identifier: CANExtendedMask, Extended: true}.Record()
	require.NoError(t, err)
}

func TestCANFrameThroughCodec(t *testing.T) {
	want := CANFrame{Identifier: 0x18DAF110, Extended: true, Echo: true, Type: frame.TypeCANFDBRSData, Payload: make([]byte, 64)}
	buf, err := (&Codec{}).Marshal(want)
	require.NoError(t, err)

	views, err := (&Codec{}).Decode(buf)
	require.NoError(t, err)
	require.Equal(t, []View{want}, views)
}

func TestCANBusErrorFrame(t *testing.T) {
	e := CANBusErrorFrame{
		Timestamp:        77,
		State:            CANErrorPassive,
		TransceiverError: true,
		LastError:        CANLastErrAck,
		TxErrorCount:     128,
		RxErrorCount:     3,
	}
	rec, err := e.Record()
	require.NoError(t, err)
	require.Equal(t, frame.TypeCANBusError, rec.Type)
	require.Equal(t, []byte{1, 1, 3, 128, 3}, rec.Payload)

	got, err := CANBusErrorFrameFromRecord(rec)
	require.NoError(t, err)
	require.Equal(t, e, got)

	_, err = CANBusErrorFrameFromRecord(frame.Frame{Type: frame.TypeCANBusError, Payload: []byte{1}})
	require.ErrorIs(t, err, frame.ErrMalformedBuffer)

	_, err = CANBusErrorFrameFromRecord(frame.Frame{Type: frame.TypeCANData})
	require.ErrorIs(t, err, ErrWrongFrameType)
}
