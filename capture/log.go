// Package capture keeps a durable, segmented record of raw driver buffers
// and replays the frames they contain.
package capture

import (
	"bytes"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/segment"
	"go.uber.org/zap"
)

type Log struct {
	mu            sync.RWMutex
	Dir           string
	config        segment.Config
	logger        *zap.Logger
	segments      []*segment.Segment
	activeSegment *segment.Segment
}

// Open loads the segments found in dir, or starts an empty capture.
func Open(dir string, config segment.Config, logger *zap.Logger) (*Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Log{
		Dir:    dir,
		config: config,
		logger: logger.Named("capture"),
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	dirEnt, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var baseOffsets []uint64
	for _, entry := range dirEnt {
		if off, ok := segment.ParseLogFileName(entry.Name()); ok {
			baseOffsets = append(baseOffsets, off)
		}
	}
	sort.Slice(baseOffsets, func(i, j int) bool { return baseOffsets[i] < baseOffsets[j] })

	var nextFrame uint64
	for _, baseOffset := range baseOffsets {
		seg, err := segment.LoadExistingSegment(baseOffset, nextFrame, dir, config)
		if err != nil {
			l.closeSegments()
			return nil, err
		}
		l.segments = append(l.segments, seg)
		nextFrame = seg.NextFrame
	}
	if len(l.segments) > 0 {
		l.activeSegment = l.segments[len(l.segments)-1]
		l.logger.Info("capture loaded",
			zap.String("dir", dir),
			zap.Int("segments", len(l.segments)),
			zap.Uint64("next_offset", l.activeSegment.NextOffset),
			zap.Uint64("frames", l.activeSegment.NextFrame))
		return l, nil
	}
	active, err := segment.NewSegment(0, 0, dir, config)
	if err != nil {
		return nil, err
	}
	l.segments = append(l.segments, active)
	l.activeSegment = active
	return l, nil
}

// Append stores one driver read buffer and returns its offset. Buffers that
// do not decode are rejected.
func (l *Log) Append(buf []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	off, err := l.activeSegment.Append(buf)
	if err != nil {
		l.logger.Warn("rejected driver buffer", zap.Int("bytes", len(buf)), zap.Error(err))
		return 0, ErrRejectedBuffer(err)
	}
	if l.activeSegment.IsFull() {
		if err := l.activeSegment.Flush(); err != nil {
			return 0, err
		}
		next, err := segment.NewSegment(l.activeSegment.NextOffset, l.activeSegment.NextFrame, l.Dir, l.config)
		if err != nil {
			return 0, err
		}
		l.logger.Debug("segment rotated", zap.Uint64("base_offset", next.BaseOffset))
		l.segments = append(l.segments, next)
		l.activeSegment = next
	}
	return off, nil
}

func (l *Log) segmentFor(offset uint64) *segment.Segment {
	for _, seg := range l.segments {
		if offset >= seg.BaseOffset && offset < seg.NextOffset {
			return seg
		}
	}
	return nil
}

// Read returns the driver buffer stored at offset.
func (l *Log) Read(offset uint64) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seg := l.segmentFor(offset)
	if seg == nil {
		return nil, ErrOffsetOutOfRangef(offset)
	}
	return seg.Read(offset)
}

// Frames decodes the buffer stored at offset.
func (l *Log) Frames(offset uint64) ([]frame.Frame, error) {
	buf, err := l.Read(offset)
	if err != nil {
		return nil, err
	}
	return frame.DecodeAll(buf)
}

// FrameAt returns the frame with the given capture-wide ordinal.
func (l *Log) FrameAt(ordinal uint64) (frame.Frame, error) {
	l.mu.RLock()
	var target *segment.Segment
	for _, seg := range l.segments {
		if ordinal >= seg.BaseFrame && ordinal < seg.NextFrame {
			target = seg
			break
		}
	}
	l.mu.RUnlock()
	if target == nil {
		return frame.Frame{}, ErrOffsetOutOfRangef(ordinal)
	}
	rec, err := target.FindFrame(ordinal)
	if err != nil {
		return frame.Frame{}, err
	}
	d := frame.NewDecoder(rec.Buffer)
	for i := rec.FirstFrame; ; i++ {
		f, err := d.Next()
		if err != nil {
			return frame.Frame{}, err
		}
		if i == ordinal {
			return f, nil
		}
	}
}

// Replay calls fn for every captured frame in capture order, stopping at the
// first error fn returns.
func (l *Log) Replay(fn func(offset uint64, f frame.Frame) error) error {
	r := l.Reader()
	for {
		rec, err := segment.ReadRecord(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		for f, err := range frame.Frames(rec.Buffer) {
			if err != nil {
				return err
			}
			if err := fn(rec.Offset, f); err != nil {
				return err
			}
		}
	}
}

func (l *Log) LowestOffset() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.segments[0].BaseOffset
}

// NextOffset is the offset the next appended buffer gets.
func (l *Log) NextOffset() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.activeSegment.NextOffset
}

// FrameCount is the number of frames captured, including truncated ones.
func (l *Log) FrameCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.activeSegment.NextFrame
}

func (l *Log) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.segments[0].BaseOffset == l.activeSegment.NextOffset
}

func (l *Log) SegmentCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.segments)
}

// Truncate removes whole segments whose buffers all lie below lowest.
func (l *Log) Truncate(lowest uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var kept []*segment.Segment
	for _, s := range l.segments {
		if s != l.activeSegment && s.NextOffset <= lowest {
			if err := s.Remove(); err != nil {
				return err
			}
			continue
		}
		kept = append(kept, s)
	}
	l.segments = kept
	return nil
}

// Reader streams every stored record in segment format.
func (l *Log) Reader() io.Reader {
	l.mu.RLock()
	defer l.mu.RUnlock()
	readers := make([]io.Reader, 0, len(l.segments))
	for _, seg := range l.segments {
		readers = append(readers, seg.Reader())
	}
	return io.MultiReader(readers...)
}

// ReaderFrom streams stored records starting at startOffset.
func (l *Log) ReaderFrom(startOffset uint64) (io.Reader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if startOffset >= l.activeSegment.NextOffset {
		return bytes.NewReader(nil), nil
	}
	targetIdx := -1
	for i, seg := range l.segments {
		if startOffset >= seg.BaseOffset && startOffset < seg.NextOffset {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, ErrOffsetOutOfRangef(startOffset)
	}
	r, err := l.segments[targetIdx].NewStreamingReader(startOffset)
	if err != nil {
		return nil, err
	}
	readers := []io.Reader{r}
	for _, seg := range l.segments[targetIdx+1:] {
		readers = append(readers, seg.Reader())
	}
	return io.MultiReader(readers...), nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeSegments()
}

func (l *Log) closeSegments() error {
	for _, seg := range l.segments {
		if err := seg.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Delete closes the capture and removes its directory.
func (l *Log) Delete() error {
	if err := l.Close(); err != nil {
		return err
	}
	return os.RemoveAll(l.Dir)
}
