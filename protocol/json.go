package protocol

import (
	"encoding/hex"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"github.com/mohitkumar/busframe/frame"
)

// HexBytes renders as a hex string in JSON and as a byte string in CBOR.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// ExportRecord is the self-describing form of a frame record used for
// JSON and CBOR exports.
type ExportRecord struct {
	Timestamp  uint64   `json:"timestamp" cbor:"1,keyasint"`
	Identifier uint32   `json:"identifier" cbor:"2,keyasint"`
	Type       string   `json:"type" cbor:"3,keyasint"`
	Flags      uint8    `json:"flags" cbor:"4,keyasint"`
	Info       uint8    `json:"info" cbor:"5,keyasint"`
	Payload    HexBytes `json:"payload" cbor:"6,keyasint"`
}

func Export(f frame.Frame) ExportRecord {
	return ExportRecord{
		Timestamp:  f.Timestamp,
		Identifier: f.Identifier,
		Type:       f.Type.String(),
		Flags:      f.Flags,
		Info:       f.Info,
		Payload:    HexBytes(f.Payload),
	}
}

// Frame converts the export back to a record.
func (e ExportRecord) Frame() (frame.Frame, error) {
	t, err := frame.ParseType(e.Type)
	if err != nil {
		return frame.Frame{}, err
	}
	payload := []byte(e.Payload)
	if payload == nil {
		payload = []byte{}
	}
	return frame.Frame{
		Timestamp:  e.Timestamp,
		Identifier: e.Identifier,
		Type:       t,
		Flags:      e.Flags,
		Info:       e.Info,
		Payload:    payload,
	}, nil
}

var cborEnc, _ = cbor.CoreDetEncOptions().EncMode()

// MarshalJSON marshals v to JSON (wrapper for encoding/json.Marshal).
func MarshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalCBOR encodes frames as a deterministic CBOR array of ExportRecord.
func MarshalCBOR(frames []frame.Frame) ([]byte, error) {
	out := make([]ExportRecord, 0, len(frames))
	for _, f := range frames {
		out = append(out, Export(f))
	}
	return cborEnc.Marshal(out)
}

// UnmarshalCBOR decodes the output of MarshalCBOR.
func UnmarshalCBOR(data []byte) ([]frame.Frame, error) {
	var in []ExportRecord
	if err := cbor.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	frames := make([]frame.Frame, 0, len(in))
	for _, e := range in {
		f, err := e.Frame()
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}
