package protocol

import "github.com/mohitkumar/busframe/frame"

// LINFrame is the LIN view of a frame record.
type LINFrame struct {
	Identifier uint32
	Echo       bool
	Timestamp  uint64
	Payload    []byte
}

func LINFrameFromRecord(f frame.Frame) LINFrame {
	return LINFrame{
		Identifier: f.Identifier,
		Echo:       f.Flags&FlagTransmitEcho != 0,
		Timestamp:  f.Timestamp,
		Payload:    f.Payload,
	}
}

func (l LINFrame) Record() (frame.Frame, error) {
	if l.Identifier > LINIdentifierMax {
		return frame.Frame{}, ErrUndefinedIdentifierf(l.Identifier, linIdentifierBits)
	}
	if len(l.Payload) > linMaxPayload {
		return frame.Frame{}, frame.ErrPayloadTooLargef(frame.TypeLINData, len(l.Payload), linMaxPayload)
	}
	var flags uint8
	if l.Echo {
		flags |= FlagTransmitEcho
	}
	return frame.Frame{
		Identifier: l.Identifier,
		Type:       frame.TypeLINData,
		Flags:      flags,
		Payload:    l.Payload,
	}, nil
}

type LINCommState uint8

const (
	LINSleep  LINCommState = 0
	LINActive LINCommState = 1
	LINIdle   LINCommState = 2
)

type LINLastError uint8

const (
	LINLastErrNone      LINLastError = 0
	LINLastErrUnknownID LINLastError = 1
	LINLastErrForm      LINLastError = 2
	LINLastErrFraming   LINLastError = 3
	LINLastErrReadback  LINLastError = 4
	LINLastErrTimeout   LINLastError = 5
	LINLastErrCRC       LINLastError = 6
)

const linBusErrorPayload = 5

// LINBusErrorFrame reports a LIN interface error. Its payload is
// [state, last error, error id, received byte, expected byte].
type LINBusErrorFrame struct {
	Timestamp uint64
	State     LINCommState
	LastError LINLastError
	ErrorID   uint8
	Received  uint8
	Expected  uint8
}

func LINBusErrorFrameFromRecord(f frame.Frame) (LINBusErrorFrame, error) {
	if f.Type != frame.TypeLINBusError {
		return LINBusErrorFrame{}, ErrWrongFrameTypef("LINBusErrorFrame", f.Type)
	}
	if len(f.Payload) < linBusErrorPayload {
		return LINBusErrorFrame{}, ErrShortViewPayloadf("LINBusErrorFrame", linBusErrorPayload, len(f.Payload))
	}
	p := f.Payload
	return LINBusErrorFrame{
		Timestamp: f.Timestamp,
		State:     LINCommState(p[0]),
		LastError: LINLastError(p[1]),
		ErrorID:   p[2],
		Received:  p[3],
		Expected:  p[4],
	}, nil
}

func (e LINBusErrorFrame) Record() (frame.Frame, error) {
	return frame.Frame{
		Timestamp: e.Timestamp,
		Type:      frame.TypeLINBusError,
		Payload:   []byte{uint8(e.State), uint8(e.LastError), e.ErrorID, e.Received, e.Expected},
	}, nil
}
