package frame

import (
	"fmt"
	"strconv"
)

// Type is the driver's numeric frame type code. Values are part of the
// driver ABI and are carried verbatim, including codes not listed here.
type Type uint8

const (
	TypeCANData             Type = 0x00
	TypeCANRemote           Type = 0x01
	TypeCANBusError         Type = 0x02
	TypeCAN20Data           Type = 0x08
	TypeCANFDData           Type = 0x10
	TypeCANFDBRSData        Type = 0x18
	TypeFlexRayData         Type = 0x20
	TypeFlexRayNull         Type = 0x21
	TypeFlexRaySymbol       Type = 0x22
	TypeLINData             Type = 0x40
	TypeLINBusError         Type = 0x41
	TypeLINNoResponse       Type = 0x42
	TypeJ1939Data           Type = 0xC0
	TypeSpecialDelay        Type = 0xE1
	TypeSpecialLogTrigger   Type = 0xE2
	TypeSpecialStartTrigger Type = 0xE3
)

var typeNames = map[Type]string{
	TypeCANData:             "CAN_DATA",
	TypeCANRemote:           "CAN_REMOTE",
	TypeCANBusError:         "CAN_BUS_ERROR",
	TypeCAN20Data:           "CAN20_DATA",
	TypeCANFDData:           "CANFD_DATA",
	TypeCANFDBRSData:        "CANFDBRS_DATA",
	TypeFlexRayData:         "FLEXRAY_DATA",
	TypeFlexRayNull:         "FLEXRAY_NULL",
	TypeFlexRaySymbol:       "FLEXRAY_SYMBOL",
	TypeLINData:             "LIN_DATA",
	TypeLINBusError:         "LIN_BUS_ERROR",
	TypeLINNoResponse:       "LIN_NO_RESPONSE",
	TypeJ1939Data:           "J1939_DATA",
	TypeSpecialDelay:        "SPECIAL_DELAY",
	TypeSpecialLogTrigger:   "SPECIAL_LOG_TRIGGER",
	TypeSpecialStartTrigger: "SPECIAL_START_TRIGGER",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(t))
}

// ParseType maps a name such as "CAN_DATA" back to its code. Numeric forms
// ("0xC0", "192") are accepted for codes without a name.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	if v, err := strconv.ParseUint(s, 0, 8); err == nil {
		return Type(v), nil
	}
	return 0, fmt.Errorf("frame: unknown frame type %q", s)
}

// Frame is one bus event as exchanged with the driver.
//
// For J1939 frames the low 3 bits of Info are owned by the codec; they hold
// the high bits of the payload length on the wire and are zero here.
//
// Decoded payloads are never nil: an empty payload decodes as []byte{}.
type Frame struct {
	Timestamp  uint64
	Identifier uint32
	Type       Type
	Flags      uint8
	Info       uint8
	Payload    []byte
}

// MaxPayload returns the longest payload the codec can carry for t.
func MaxPayload(t Type) int {
	if t == TypeJ1939Data {
		return MaxJ1939PayloadLength
	}
	return MaxPayloadLength
}
