package frame

import (
	"iter"

	"github.com/mohitkumar/busframe/errs"
)

// Decoder walks a buffer of concatenated frame records. It never modifies
// the buffer; payloads returned by Next are fresh copies.
type Decoder struct {
	buf []byte
	pos int
	err error
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// More reports whether another record (or a decode error) is pending.
func (d *Decoder) More() bool {
	return d.err == nil && d.pos < len(d.buf)
}

// Offset is the byte position of the next record.
func (d *Decoder) Offset() int {
	return d.pos
}

// Err returns the error that stopped the decoder, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Next decodes the record at the cursor and advances past its padded
// extension unit. Once an error is returned the decoder stays stopped.
func (d *Decoder) Next() (Frame, error) {
	if d.err != nil {
		return Frame{}, d.err
	}
	remaining := len(d.buf) - d.pos
	if remaining < BaseUnitSize {
		d.err = errs.ErrTruncatedBaseUnitf(d.pos, remaining)
		return Frame{}, d.err
	}
	base := ReadBaseUnit(d.buf[d.pos:])
	n := base.PayloadLength()
	inline, extension := SplitPayloadLength(n)
	extSize := ExtensionUnitSize(n)

	extStart := d.pos + BaseUnitSize
	if len(d.buf)-extStart < extSize {
		d.err = errs.ErrTruncatedExtensionUnitf(extStart, extSize, len(d.buf)-extStart)
		return Frame{}, d.err
	}

	payload := make([]byte, n)
	copy(payload, base.Inline[:inline])
	copy(payload[inline:], d.buf[extStart:extStart+extension])

	d.pos = extStart + extSize
	return Frame{
		Timestamp:  base.Timestamp,
		Identifier: base.Identifier,
		Type:       base.Type,
		Flags:      base.Flags,
		Info:       base.FrameInfo(),
		Payload:    payload,
	}, nil
}

// Frames returns a lazy sequence of the records in buf, in buffer order.
// The sequence can be ranged over any number of times. A malformed record
// is yielded as a non-nil error and ends the sequence.
func Frames(buf []byte) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		d := NewDecoder(buf)
		for d.More() {
			f, err := d.Next()
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// DecodeAll decodes every record in buf. On a malformed record it returns
// the records decoded before the fault together with the error.
func DecodeAll(buf []byte) ([]Frame, error) {
	var frames []Frame
	for f, err := range Frames(buf) {
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Count returns the number of records in buf without copying payloads.
func Count(buf []byte) (int, error) {
	count := 0
	pos := 0
	for pos < len(buf) {
		remaining := len(buf) - pos
		if remaining < BaseUnitSize {
			return count, errs.ErrTruncatedBaseUnitf(pos, remaining)
		}
		n := ReadBaseUnit(buf[pos:]).PayloadLength()
		size := RecordSize(n)
		if size > remaining {
			return count, errs.ErrTruncatedExtensionUnitf(pos+BaseUnitSize, size-BaseUnitSize, remaining-BaseUnitSize)
		}
		pos += size
		count++
	}
	return count, nil
}
