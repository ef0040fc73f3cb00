package transport

import (
	"hash/crc32"

	"github.com/mohitkumar/busframe/errs"
	"github.com/mohitkumar/busframe/frame"
)

// Frame batch format. Header: frameCount (4), crc (4), both big-endian.
// Body: the frames encoded back to back in the driver record layout.
// The CRC is IEEE over the body.

const batchHeaderSize = 4 + 4

// EncodeBatch encodes frames into one batch message body.
func EncodeBatch(frames []frame.Frame) ([]byte, error) {
	buf := make([]byte, batchHeaderSize)
	for _, f := range frames {
		var err error
		if buf, err = frame.AppendFrame(buf, f); err != nil {
			return nil, err
		}
	}
	body := buf[batchHeaderSize:]
	byteOrder.PutUint32(buf[0:4], uint32(len(frames)))
	byteOrder.PutUint32(buf[4:8], crc32.ChecksumIEEE(body))
	return buf, nil
}

// DecodeBatch verifies the batch checksum and decodes its frames.
func DecodeBatch(data []byte) ([]frame.Frame, error) {
	if len(data) < batchHeaderSize {
		return nil, ErrBatchTooShort
	}
	count := int(byteOrder.Uint32(data[0:4]))
	crcStored := byteOrder.Uint32(data[4:8])
	body := data[batchHeaderSize:]
	if crc32.ChecksumIEEE(body) != crcStored {
		return nil, ErrBatchCRC
	}
	frames, err := frame.DecodeAll(body)
	if err != nil {
		return nil, err
	}
	if len(frames) != count {
		return nil, errs.ErrBatchCountf(count, len(frames))
	}
	return frames, nil
}
