package protocol

import (
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/mohitkumar/busframe/frame"
)

// Script is a TOML description of frames to transmit:
//
//	[[frame]]
//	type = "CAN_DATA"
//	identifier = 0x123
//	extended = false
//	payload = "0102030405"
type Script struct {
	Frames []ScriptFrame `toml:"frame"`
}

type ScriptFrame struct {
	Type       string `toml:"type"`
	Identifier uint32 `toml:"identifier"`
	Extended   bool   `toml:"extended"`
	Echo       bool   `toml:"echo"`
	Flags      uint8  `toml:"flags"`
	Info       uint8  `toml:"info"`
	Timestamp  uint64 `toml:"timestamp"`
	Payload    string `toml:"payload"`
}

// LoadScript reads a script file and returns its views.
func LoadScript(path string) ([]View, error) {
	var s Script
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, err
	}
	return s.Views()
}

// ParseScript decodes script text and returns its views.
func ParseScript(data string) ([]View, error) {
	var s Script
	if _, err := toml.Decode(data, &s); err != nil {
		return nil, err
	}
	return s.Views()
}

func (s Script) Views() ([]View, error) {
	views := make([]View, 0, len(s.Frames))
	for i, sf := range s.Frames {
		v, err := sf.View()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// View builds the typed view for one script entry. CAN and LIN entries go
// through their views so identifier widths are checked on encode.
func (sf ScriptFrame) View() (View, error) {
	typeName := sf.Type
	if typeName == "" {
		typeName = frame.TypeCANData.String()
	}
	t, err := frame.ParseType(typeName)
	if err != nil {
		return nil, err
	}
	payload, err := hex.DecodeString(sf.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	if payload == nil {
		payload = []byte{}
	}
	switch t {
	case frame.TypeCANData, frame.TypeCANRemote, frame.TypeCAN20Data, frame.TypeCANFDData, frame.TypeCANFDBRSData:
		return CANFrame{Identifier: sf.Identifier, Extended: sf.Extended, Echo: sf.Echo, Type: t, Payload: payload}, nil
	case frame.TypeLINData:
		return LINFrame{Identifier: sf.Identifier, Echo: sf.Echo, Payload: payload}, nil
	default:
		return RawFrame{Frame: frame.Frame{
			Timestamp:  sf.Timestamp,
			Identifier: sf.Identifier,
			Type:       t,
			Flags:      sf.Flags,
			Info:       sf.Info,
			Payload:    payload,
		}}, nil
	}
}
