package frame

// Encode serializes f into its base unit and, when the payload exceeds the
// inline slot, a zero-padded extension unit. The concatenation of the
// returned chunks is one frame record.
func Encode(f Frame) ([][]byte, error) {
	base, err := baseUnitFor(f)
	if err != nil {
		return nil, err
	}
	head := make([]byte, BaseUnitSize)
	base.Put(head)
	if len(f.Payload) <= InlinePayloadSize {
		return [][]byte{head}, nil
	}
	ext := make([]byte, ExtensionUnitSize(len(f.Payload)))
	copy(ext, f.Payload[InlinePayloadSize:])
	return [][]byte{head, ext}, nil
}

// AppendFrame appends the encoded record for f to dst.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	base, err := baseUnitFor(f)
	if err != nil {
		return dst, err
	}
	start := len(dst)
	dst = append(dst, make([]byte, RecordSize(len(f.Payload)))...)
	base.Put(dst[start:])
	if len(f.Payload) > InlinePayloadSize {
		copy(dst[start+BaseUnitSize:], f.Payload[InlinePayloadSize:])
	}
	return dst, nil
}

// EncodeAll concatenates the records for frames into one driver buffer.
func EncodeAll(frames ...Frame) ([]byte, error) {
	size := 0
	for _, f := range frames {
		size += RecordSize(len(f.Payload))
	}
	buf := make([]byte, 0, size)
	var err error
	for _, f := range frames {
		if buf, err = AppendFrame(buf, f); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func baseUnitFor(f Frame) (BaseUnit, error) {
	n := len(f.Payload)
	info := f.Info
	if f.Type == TypeJ1939Data {
		var err error
		if info, err = withJ1939Length(info, n); err != nil {
			return BaseUnit{}, err
		}
	} else if n > MaxPayloadLength {
		return BaseUnit{}, ErrPayloadTooLargef(f.Type, n, MaxPayloadLength)
	}
	base := BaseUnit{
		Timestamp:  f.Timestamp,
		Identifier: f.Identifier,
		Type:       f.Type,
		Flags:      f.Flags,
		Info:       info,
		Length:     uint8(n & 0xFF),
	}
	copy(base.Inline[:], f.Payload)
	return base, nil
}
