package capture

import (
	"io"
	"testing"

	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/segment"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestLog(t *testing.T, config segment.Config) (*Log, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := Open(dir, config, zaptest.NewLogger(t))
	require.NoError(t, err)
	return l, dir
}

func encode(t *testing.T, frames ...frame.Frame) []byte {
	t.Helper()
	buf, err := frame.EncodeAll(frames...)
	require.NoError(t, err)
	return buf
}

func TestLogAppendFrames(t *testing.T) {
	l, _ := setupTestLog(t, segment.Config{})
	defer l.Close()

	a := frame.Frame{Timestamp: 1, Identifier: 0x10, Payload: []byte{1, 2}}
	b := frame.Frame{Timestamp: 2, Identifier: 0x18FEF100, Type: frame.TypeJ1939Data, Payload: make([]byte, 400)}
	off, err := l.Append(encode(t, a, b))
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)

	got, err := l.Frames(off)
	require.NoError(t, err)
	require.Equal(t, []frame.Frame{a, b}, got)
	require.Equal(t, uint64(2), l.FrameCount())
	require.False(t, l.IsEmpty())
}

func TestLogRejectsMalformed(t *testing.T) {
	l, _ := setupTestLog(t, segment.Config{})
	defer l.Close()

	_, err := l.Append(make([]byte, 23))
	require.ErrorIs(t, err, frame.ErrMalformedBuffer)
	require.True(t, l.IsEmpty())
}

func TestLogOutOfRangeRead(t *testing.T) {
	l, _ := setupTestLog(t, segment.Config{})
	defer l.Close()

	_, err := l.Read(999)
	require.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestLogSegmentRotationAndReopen(t *testing.T) {
	config := segment.Config{MaxSegmentBytes: 1024, IndexIntervalBytes: 256}
	l, dir := setupTestLog(t, config)

	const buffers = 200
	for i := 0; i < buffers; i++ {
		_, err := l.Append(encode(t,
			frame.Frame{Timestamp: uint64(2 * i), Identifier: uint32(2 * i), Payload: []byte{byte(i)}},
			frame.Frame{Timestamp: uint64(2*i + 1), Identifier: uint32(2*i + 1), Payload: make([]byte, 12)},
		))
		require.NoError(t, err)
	}
	require.Greater(t, l.SegmentCount(), 1)
	require.NoError(t, l.Close())

	reopened, err := Open(dir, config, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, uint64(buffers), reopened.NextOffset())
	require.Equal(t, uint64(2*buffers), reopened.FrameCount())

	f, err := reopened.FrameAt(301)
	require.NoError(t, err)
	require.Equal(t, uint32(301), f.Identifier)

	var ids []uint32
	require.NoError(t, reopened.Replay(func(offset uint64, f frame.Frame) error {
		require.Equal(t, uint64(f.Identifier/2), offset)
		ids = append(ids, f.Identifier)
		return nil
	}))
	require.Len(t, ids, 2*buffers)
	for i, id := range ids {
		require.Equal(t, uint32(i), id)
	}
}

func TestLogReaderFrom(t *testing.T) {
	l, _ := setupTestLog(t, segment.Config{MaxSegmentBytes: 200})
	defer l.Close()
	for i := 0; i < 10; i++ {
		_, err := l.Append(encode(t, frame.Frame{Identifier: uint32(i)}))
		require.NoError(t, err)
	}

	r, err := l.ReaderFrom(7)
	require.NoError(t, err)
	var offsets []uint64
	for {
		rec, err := segment.ReadRecord(r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		offsets = append(offsets, rec.Offset)
	}
	require.Equal(t, []uint64{7, 8, 9}, offsets)

	r, err = l.ReaderFrom(10)
	require.NoError(t, err)
	_, err = segment.ReadRecord(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestLogTruncate(t *testing.T) {
	l, _ := setupTestLog(t, segment.Config{MaxSegmentBytes: 100})
	defer l.Close()
	for i := 0; i < 6; i++ {
		_, err := l.Append(encode(t, frame.Frame{Identifier: uint32(i)}, frame.Frame{Identifier: uint32(i)}, frame.Frame{Identifier: uint32(i)}))
		require.NoError(t, err)
	}
	before := l.SegmentCount()
	// Three buffers do not fit one segment, so every segment holds two.
	require.NoError(t, l.Truncate(4))
	require.Equal(t, before-2, l.SegmentCount())
	require.Equal(t, uint64(4), l.LowestOffset())

	_, err := l.Read(0)
	require.ErrorIs(t, err, ErrOffsetOutOfRange)
	got, err := l.Frames(5)
	require.NoError(t, err)
	require.Len(t, got, 3)
}
