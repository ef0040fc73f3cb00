package frame

import "encoding/binary"

// Base unit physical layout (little-endian, driver native):
// +-----------+------------+------+-------+------+--------+----------------+
// | Timestamp | Identifier | Type | Flags | Info | Length | Inline payload |
// +-----------+------------+------+-------+------+--------+----------------+
// |  8 bytes  |  4 bytes   |  1   |   1   |  1   |   1    |    8 bytes     |
// +-----------+------------+------+-------+------+--------+----------------+
// Payload bytes past the first 8 follow in an extension unit padded to a
// multiple of 8 bytes.

const (
	BaseUnitSize      = 24
	InlinePayloadSize = 8
	unitAlign         = 8

	MaxPayloadLength      = 0xFF
	MaxJ1939PayloadLength = 0x7FF

	timestampOff  = 0
	identifierOff = 8
	typeOff       = 12
	flagsOff      = 13
	infoOff       = 14
	lengthOff     = 15
	payloadOff    = 16

	// j1939LengthMask selects the Info bits that carry payload length bits 8..10.
	j1939LengthMask  = 0x07
	j1939LengthShift = 8
)

var byteOrder = binary.LittleEndian

// BaseUnit is the fixed 24-byte header of a frame record.
type BaseUnit struct {
	Timestamp  uint64
	Identifier uint32
	Type       Type
	Flags      uint8
	Info       uint8
	Length     uint8
	Inline     [InlinePayloadSize]byte
}

// ReadBaseUnit unpacks the first BaseUnitSize bytes of src.
func ReadBaseUnit(src []byte) BaseUnit {
	_ = src[BaseUnitSize-1]
	b := BaseUnit{
		Timestamp:  byteOrder.Uint64(src[timestampOff:identifierOff]),
		Identifier: byteOrder.Uint32(src[identifierOff:typeOff]),
		Type:       Type(src[typeOff]),
		Flags:      src[flagsOff],
		Info:       src[infoOff],
		Length:     src[lengthOff],
	}
	copy(b.Inline[:], src[payloadOff:BaseUnitSize])
	return b
}

// Put packs b into the first BaseUnitSize bytes of dst.
func (b BaseUnit) Put(dst []byte) {
	_ = dst[BaseUnitSize-1]
	byteOrder.PutUint64(dst[timestampOff:identifierOff], b.Timestamp)
	byteOrder.PutUint32(dst[identifierOff:typeOff], b.Identifier)
	dst[typeOff] = uint8(b.Type)
	dst[flagsOff] = b.Flags
	dst[infoOff] = b.Info
	dst[lengthOff] = b.Length
	copy(dst[payloadOff:BaseUnitSize], b.Inline[:])
}

// PayloadLength reconstructs the payload length declared by the base unit.
func (b BaseUnit) PayloadLength() int {
	if b.Type == TypeJ1939Data {
		return int(b.Length) | int(j1939LengthHigh(b.Info))<<j1939LengthShift
	}
	return int(b.Length)
}

// FrameInfo returns Info with the codec-owned J1939 length bits cleared.
func (b BaseUnit) FrameInfo() uint8 {
	if b.Type == TypeJ1939Data {
		return b.Info &^ j1939LengthMask
	}
	return b.Info
}

func j1939LengthHigh(info uint8) uint8 {
	return info & j1939LengthMask
}

// withJ1939Length folds bits 8..10 of the payload length n into info. The
// caller's info must leave those bits clear.
func withJ1939Length(info uint8, n int) (uint8, error) {
	if j1939LengthHigh(info) != 0 {
		return 0, ErrJ1939InfoBitsf(info)
	}
	high := n >> j1939LengthShift
	if high&^j1939LengthMask != 0 {
		return 0, ErrPayloadTooLargef(TypeJ1939Data, n, MaxJ1939PayloadLength)
	}
	return info | uint8(high), nil
}

// TotalUnitSize is the padded storage used by a payload of length n across
// the inline slot and the extension unit.
func TotalUnitSize(n int) int {
	if n <= InlinePayloadSize {
		return InlinePayloadSize
	}
	return (n + unitAlign - 1) &^ (unitAlign - 1)
}

// ExtensionUnitSize is the number of bytes physically following the base
// unit for a payload of length n. Zero when the payload fits inline.
func ExtensionUnitSize(n int) int {
	return TotalUnitSize(n) - InlinePayloadSize
}

// SplitPayloadLength reports how many unpadded payload bytes sit inline and
// in the extension unit.
func SplitPayloadLength(n int) (inline, extension int) {
	extension = max(n-InlinePayloadSize, 0)
	return n - extension, extension
}

// RecordSize is the full on-wire size of a frame with a payload of length n.
func RecordSize(n int) int {
	return BaseUnitSize + ExtensionUnitSize(n)
}
