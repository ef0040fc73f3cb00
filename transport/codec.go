package transport

import (
	"encoding/binary"
	"io"

	"github.com/mohitkumar/busframe/errs"
)

var byteOrder = binary.BigEndian

// messageHeaderSize is the length prefix size.
const messageHeaderSize = 4

// DefaultMaxMessageSize caps a message payload (4MB).
const DefaultMaxMessageSize = 4 * 1024 * 1024

// EncodeMessage writes length-prefixed data to w: 4-byte big-endian length + payload.
// It flushes only if w has a Flush method (e.g. *bufio.Writer).
func EncodeMessage(w io.Writer, payload []byte, maxSize int) error {
	if len(payload) > maxSize {
		return errs.ErrMessageTooLargef(len(payload), maxSize)
	}
	header := make([]byte, messageHeaderSize)
	byteOrder.PutUint32(header, uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// DecodeMessage reads a length-prefixed message from r and returns the payload.
// A length above maxSize fails before any payload is read.
func DecodeMessage(r io.Reader, maxSize int) ([]byte, error) {
	header := make([]byte, messageHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := byteOrder.Uint32(header)
	if uint64(length) > uint64(maxSize) {
		return nil, errs.ErrMessageTooLargef(int(length), maxSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
