package protocol

import (
	"io"

	"github.com/mohitkumar/busframe/frame"
)

// Codec converts between typed views and driver buffers.
type Codec struct{}

// Encode writes the frame record for v to w. v may be any View (value or
// pointer) or a bare frame.Frame.
func (c *Codec) Encode(w io.Writer, v any) error {
	rec, err := c.record(v)
	if err != nil {
		return err
	}
	chunks, err := frame.Encode(rec)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Marshal concatenates the records for views into one driver buffer.
func (c *Codec) Marshal(views ...any) ([]byte, error) {
	records := make([]frame.Frame, 0, len(views))
	for _, v := range views {
		rec, err := c.record(v)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return frame.EncodeAll(records...)
}

// Decode walks buf and returns one view per record, in buffer order.
func (c *Codec) Decode(buf []byte) ([]View, error) {
	var views []View
	for f, err := range frame.Frames(buf) {
		if err != nil {
			return views, err
		}
		v, err := FromRecord(f)
		if err != nil {
			return views, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (c *Codec) record(v any) (frame.Frame, error) {
	switch v := v.(type) {
	case frame.Frame:
		return v, nil
	case *frame.Frame:
		return *v, nil
	case View:
		return v.Record()
	default:
		return frame.Frame{}, ErrUnknownViewf(v)
	}
}
