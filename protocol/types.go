package protocol

import "github.com/mohitkumar/busframe/frame"

// View is a typed projection of a frame record. Record converts it back to
// the record the codec writes to the driver.
type View interface {
	Record() (frame.Frame, error)
}

// Flag and identifier bits shared by the views.
const (
	FlagTransmitEcho uint8 = 0x01

	CANExtendedFlag uint32 = 0x20000000
	CANExtendedMask uint32 = 0x1FFFFFFF
	CANStandardMask uint32 = 0x000007FF

	canExtendedBits = 29
	canStandardBits = 11

	LINIdentifierMax  uint32 = 0x3F
	linIdentifierBits        = 6
	linMaxPayload            = 8
)

// RawFrame wraps records no typed view claims (FlexRay, J1939, unknown codes).
type RawFrame struct {
	frame.Frame
}

func (r RawFrame) Record() (frame.Frame, error) {
	return r.Frame, nil
}

// FromRecord picks the view for f's type.
func FromRecord(f frame.Frame) (View, error) {
	switch f.Type {
	case frame.TypeCANData, frame.TypeCANRemote, frame.TypeCAN20Data, frame.TypeCANFDData, frame.TypeCANFDBRSData:
		return CANFrameFromRecord(f), nil
	case frame.TypeCANBusError:
		return CANBusErrorFrameFromRecord(f)
	case frame.TypeLINData:
		return LINFrameFromRecord(f), nil
	case frame.TypeLINBusError:
		return LINBusErrorFrameFromRecord(f)
	case frame.TypeSpecialDelay:
		return DelayFrame{Delay: f.Timestamp}, nil
	case frame.TypeSpecialLogTrigger:
		return LogTriggerFrame{Timestamp: f.Timestamp}, nil
	case frame.TypeSpecialStartTrigger:
		return StartTriggerFrame{Timestamp: f.Timestamp}, nil
	default:
		return RawFrame{Frame: f}, nil
	}
}
