package protocol

import "github.com/mohitkumar/busframe/frame"

// CANFrame is the CAN view of a frame record. Identifier holds only the
// arbitration bits; Extended selects the 29-bit form.
type CANFrame struct {
	Identifier uint32
	Extended   bool
	Echo       bool
	Type       frame.Type
	Timestamp  uint64
	Payload    []byte
}

func CANFrameFromRecord(f frame.Frame) CANFrame {
	c := CANFrame{
		Extended:  f.Identifier&CANExtendedFlag != 0,
		Echo:      f.Flags&FlagTransmitEcho != 0,
		Type:      f.Type,
		Timestamp: f.Timestamp,
		Payload:   f.Payload,
	}
	if c.Extended {
		c.Identifier = f.Identifier & CANExtendedMask
	} else {
		c.Identifier = f.Identifier & CANStandardMask
	}
	return c
}

// Record encodes the view. Timestamp and Info are always zero: timestamps
// are assigned by the driver on receive.
func (c CANFrame) Record() (frame.Frame, error) {
	id := c.Identifier
	if c.Extended {
		if id&^CANExtendedMask != 0 {
			return frame.Frame{}, ErrUndefinedIdentifierf(id, canExtendedBits)
		}
		id |= CANExtendedFlag
	} else if id&^CANStandardMask != 0 {
		return frame.Frame{}, ErrUndefinedIdentifierf(id, canStandardBits)
	}
	var flags uint8
	if c.Echo {
		flags |= FlagTransmitEcho
	}
	return frame.Frame{
		Identifier: id,
		Type:       c.Type,
		Flags:      flags,
		Payload:    c.Payload,
	}, nil
}

// CANCommState is the controller state reported in a bus error frame.
type CANCommState uint8

const (
	CANErrorActive  CANCommState = 0
	CANErrorPassive CANCommState = 1
	CANBusOff       CANCommState = 2
	CANInit         CANCommState = 3
)

// CANLastError is the last bus error detected by the controller.
type CANLastError uint8

const (
	CANLastErrNone  CANLastError = 0
	CANLastErrStuff CANLastError = 1
	CANLastErrForm  CANLastError = 2
	CANLastErrAck   CANLastError = 3
	CANLastErrBit1  CANLastError = 4
	CANLastErrBit0  CANLastError = 5
	CANLastErrCRC   CANLastError = 6
)

const canBusErrorPayload = 5

// CANBusErrorFrame reports a CAN controller error. Its payload is
// [state, transceiver error, last error, tx error count, rx error count].
type CANBusErrorFrame struct {
	Timestamp        uint64
	State            CANCommState
	TransceiverError bool
	LastError        CANLastError
	TxErrorCount     uint8
	RxErrorCount     uint8
}

func CANBusErrorFrameFromRecord(f frame.Frame) (CANBusErrorFrame, error) {
	if f.Type != frame.TypeCANBusError {
		return CANBusErrorFrame{}, ErrWrongFrameTypef("CANBusErrorFrame", f.Type)
	}
	if len(f.Payload) < canBusErrorPayload {
		return CANBusErrorFrame{}, ErrShortViewPayloadf("CANBusErrorFrame", canBusErrorPayload, len(f.Payload))
	}
	p := f.Payload
	return CANBusErrorFrame{
		Timestamp:        f.Timestamp,
		State:            CANCommState(p[0]),
		TransceiverError: p[1] != 0,
		LastError:        CANLastError(p[2]),
		TxErrorCount:     p[3],
		RxErrorCount:     p[4],
	}, nil
}

func (e CANBusErrorFrame) Record() (frame.Frame, error) {
	var tcvr uint8
	if e.TransceiverError {
		tcvr = 1
	}
	return frame.Frame{
		Timestamp: e.Timestamp,
		Type:      frame.TypeCANBusError,
		Payload:   []byte{uint8(e.State), tcvr, uint8(e.LastError), e.TxErrorCount, e.RxErrorCount},
	}, nil
}
