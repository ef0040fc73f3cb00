package segment

import (
	"io"

	"github.com/mohitkumar/busframe/frame"
)

// Record is one stored driver buffer.
type Record struct {
	Offset     uint64
	Buffer     []byte
	Frames     int
	FirstFrame uint64 // set by lookups that know the capture-wide ordinal
}

// ReadRecord reads one record in segment format [Offset 8][Len 4][Buffer]
// from r. A buffer that no longer decodes is reported as an error.
func ReadRecord(r io.Reader) (Record, error) {
	header := make([]byte, totalHeaderWidth)
	if _, err := io.ReadFull(r, header); err != nil {
		return Record{}, err
	}
	rec := Record{Offset: endian.Uint64(header[0:offWidth])}
	size := endian.Uint32(header[offWidth:totalHeaderWidth])
	rec.Buffer = make([]byte, size)
	if _, err := io.ReadFull(r, rec.Buffer); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Record{}, err
	}
	n, err := frame.Count(rec.Buffer)
	if err != nil {
		return Record{}, err
	}
	rec.Frames = n
	return rec, nil
}

// Decode parses a single record held in data.
func Decode(data []byte) (Record, error) {
	if len(data) < totalHeaderWidth {
		return Record{}, io.ErrUnexpectedEOF
	}
	size := endian.Uint32(data[offWidth:totalHeaderWidth])
	if len(data) < totalHeaderWidth+int(size) {
		return Record{}, io.ErrUnexpectedEOF
	}
	buf := make([]byte, size)
	copy(buf, data[totalHeaderWidth:])
	n, err := frame.Count(buf)
	if err != nil {
		return Record{}, err
	}
	return Record{Offset: endian.Uint64(data[0:offWidth]), Buffer: buf, Frames: n}, nil
}
