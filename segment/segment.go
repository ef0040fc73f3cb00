package segment

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mohitkumar/busframe/frame"
)

const (
	DefaultIndexIntervalBytes = 4 * 1024    // 4KB
	DefaultMaxSegmentBytes    = 1024 * 1024 // 1MB
	WriteBufferSize           = 64 * 1024   // 64KB

	lenWidth         = 4
	offWidth         = 8
	totalHeaderWidth = offWidth + lenWidth
)

var endian = binary.BigEndian

// Config bounds segment size and index density.
type Config struct {
	MaxSegmentBytes    uint64
	IndexIntervalBytes uint64
}

func (c Config) withDefaults() Config {
	if c.MaxSegmentBytes == 0 {
		c.MaxSegmentBytes = DefaultMaxSegmentBytes
	}
	if c.IndexIntervalBytes == 0 {
		c.IndexIntervalBytes = DefaultIndexIntervalBytes
	}
	return c
}

// Segment is one file of a capture. Each record is a whole driver buffer:
// [Offset 8][Len 4][frame records...]. Files are named {baseOffset}.log and
// {baseOffset}.idx.
type Segment struct {
	BaseOffset uint64 // offset of the first buffer
	NextOffset uint64 // offset the next buffer gets
	BaseFrame  uint64 // capture-wide ordinal of the first frame
	NextFrame  uint64 // ordinal the next frame gets

	config              Config
	logFile             *os.File
	bufWriter           *bufio.Writer
	index               *Index
	bytesSinceLastIndex uint64
	writePos            int64
	mu                  sync.Mutex
}

func NewSegment(baseOffset, baseFrame uint64, dir string, config Config) (*Segment, error) {
	s, err := openSegment(baseOffset, baseFrame, dir, config, os.O_RDWR|os.O_CREATE|os.O_APPEND)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadExistingSegment reopens a segment and recovers its write position,
// dropping any torn or undecodable tail left by a crash.
func LoadExistingSegment(baseOffset, baseFrame uint64, dir string, config Config) (*Segment, error) {
	s, err := openSegment(baseOffset, baseFrame, dir, config, os.O_RDWR|os.O_APPEND)
	if err != nil {
		return nil, err
	}
	if err := s.Recover(); err != nil {
		s.logFile.Close()
		s.index.Close()
		return nil, err
	}
	return s, nil
}

func openSegment(baseOffset, baseFrame uint64, dir string, config Config, flag int) (*Segment, error) {
	logFile, err := os.OpenFile(filepath.Join(dir, formatLogFileName(baseOffset)), flag, 0644)
	if err != nil {
		return nil, err
	}
	index, err := OpenIndex(filepath.Join(dir, formatIndexFileName(baseOffset)))
	if err != nil {
		logFile.Close()
		return nil, err
	}
	return &Segment{
		BaseOffset: baseOffset,
		NextOffset: baseOffset,
		BaseFrame:  baseFrame,
		NextFrame:  baseFrame,
		config:     config.withDefaults(),
		logFile:    logFile,
		bufWriter:  bufio.NewWriterSize(logFile, WriteBufferSize),
		index:      index,
	}, nil
}

func formatLogFileName(baseOffset uint64) string {
	return fmt.Sprintf("%020d.log", baseOffset)
}

func formatIndexFileName(baseOffset uint64) string {
	return fmt.Sprintf("%020d.idx", baseOffset)
}

// ParseLogFileName extracts the base offset from a segment log file name.
func ParseLogFileName(name string) (uint64, bool) {
	var baseOffset uint64
	n, err := fmt.Sscanf(name, "%020d.log", &baseOffset)
	return baseOffset, n == 1 && err == nil && name == formatLogFileName(baseOffset)
}

// Append stores one driver buffer. The buffer must decode cleanly; it is
// rejected otherwise and nothing is written. The index entry, when due, is
// written before the record so a failed index write leaves no record behind.
func (s *Segment) Append(buf []byte) (uint64, error) {
	frames, err := frame.Count(buf)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offset := s.NextOffset
	indexed := false
	if s.bytesSinceLastIndex >= s.config.IndexIntervalBytes || offset == s.BaseOffset {
		if err := s.bufWriter.Flush(); err != nil {
			return 0, err
		}
		entry := IndexEntry{
			RelativeOffset: uint32(offset - s.BaseOffset),
			Position:       uint64(s.writePos),
			FirstFrame:     s.NextFrame,
		}
		if err := s.index.Write(entry); err != nil {
			return 0, err
		}
		indexed = true
	}

	header := make([]byte, totalHeaderWidth)
	endian.PutUint64(header[0:offWidth], offset)
	endian.PutUint32(header[offWidth:totalHeaderWidth], uint32(len(buf)))
	_, err = s.bufWriter.Write(header)
	if err == nil {
		_, err = s.bufWriter.Write(buf)
	}
	if err != nil {
		if indexed {
			s.index.TruncateFrom(uint64(s.writePos))
		}
		return 0, err
	}
	if indexed {
		s.bytesSinceLastIndex = 0
	}
	size := int64(totalHeaderWidth + len(buf))
	s.bytesSinceLastIndex += uint64(size)
	s.writePos += size
	s.NextOffset++
	s.NextFrame += uint64(frames)
	return offset, nil
}

// Read returns the driver buffer stored at offset.
func (s *Segment) Read(offset uint64) ([]byte, error) {
	rec, err := s.seek(offset, func(r Record) bool {
		return r.Offset == offset
	})
	if err != nil {
		return nil, err
	}
	return rec.Buffer, nil
}

// FindFrame returns the buffer holding the frame with the given capture-wide
// ordinal.
func (s *Segment) FindFrame(ordinal uint64) (Record, error) {
	s.mu.Lock()
	next := s.NextFrame
	s.mu.Unlock()
	if ordinal < s.BaseFrame || ordinal >= next {
		return Record{}, ErrFrameOutOfRange(ordinal, s.BaseFrame, next)
	}
	entry, ok := s.index.FindFrame(ordinal)
	if !ok {
		return Record{}, ErrIndexNotFound
	}
	return s.scan(int64(entry.Position), entry.FirstFrame, func(r Record) bool {
		return ordinal < r.FirstFrame+uint64(r.Frames)
	})
}

func (s *Segment) seek(offset uint64, match func(Record) bool) (Record, error) {
	s.mu.Lock()
	next := s.NextOffset
	s.mu.Unlock()
	if offset < s.BaseOffset || offset >= next {
		return Record{}, ErrOffsetOutOfRange(offset, s.BaseOffset, next)
	}
	entry, ok := s.index.Find(uint32(offset - s.BaseOffset))
	if !ok {
		return Record{}, ErrIndexNotFound
	}
	return s.scan(int64(entry.Position), entry.FirstFrame, match)
}

// scan walks records from pos until match accepts one.
func (s *Segment) scan(pos int64, firstFrame uint64, match func(Record) bool) (Record, error) {
	s.mu.Lock()
	if err := s.bufWriter.Flush(); err != nil {
		s.mu.Unlock()
		return Record{}, err
	}
	writePos := s.writePos
	s.mu.Unlock()

	r := bufio.NewReader(io.NewSectionReader(s.logFile, pos, writePos-pos))
	for {
		rec, err := ReadRecord(r)
		if err == io.EOF {
			return Record{}, ErrOffsetNotFound
		}
		if err != nil {
			return Record{}, err
		}
		rec.FirstFrame = firstFrame
		if match(rec) {
			return rec, nil
		}
		firstFrame += uint64(rec.Frames)
	}
}

// Reader streams every record of the segment in storage format.
func (s *Segment) Reader() io.Reader {
	s.mu.Lock()
	next := s.NextOffset
	s.mu.Unlock()
	if s.BaseOffset >= next {
		return bytes.NewReader(nil)
	}
	r, err := s.NewStreamingReader(s.BaseOffset)
	if err != nil {
		return bytes.NewReader(nil)
	}
	return r
}

// NewStreamingReader returns a reader over the records from startOffset to
// the current end of the segment.
func (s *Segment) NewStreamingReader(startOffset uint64) (io.Reader, error) {
	s.mu.Lock()
	if err := s.bufWriter.Flush(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	writePos := s.writePos
	next := s.NextOffset
	s.mu.Unlock()

	if startOffset < s.BaseOffset || startOffset >= next {
		return nil, ErrOffsetOutOfRange(startOffset, s.BaseOffset, next)
	}
	entry, ok := s.index.Find(uint32(startOffset - s.BaseOffset))
	if !ok {
		return nil, ErrIndexNotFound
	}
	section := io.NewSectionReader(s.logFile, int64(entry.Position), writePos-int64(entry.Position))
	return catchUp(section, startOffset)
}

// catchUp skips records before target and returns a reader positioned on it.
func catchUp(r io.Reader, target uint64) (io.Reader, error) {
	for {
		header := make([]byte, totalHeaderWidth)
		if _, err := io.ReadFull(r, header); err != nil {
			return nil, err
		}
		offset := endian.Uint64(header[0:offWidth])
		size := endian.Uint32(header[offWidth:totalHeaderWidth])
		if offset >= target {
			return io.MultiReader(bytes.NewReader(header), r), nil
		}
		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			return nil, err
		}
	}
}

// Recover rebuilds NextOffset, NextFrame and the write position from the
// last index checkpoint, truncating the file after the last intact buffer.
func (s *Segment) Recover() error {
	var (
		startPos   int64
		currOffset = s.BaseOffset
		currFrame  = s.BaseFrame
	)
	if last, ok := s.index.Last(); ok {
		startPos = int64(last.Position)
		currOffset = s.BaseOffset + uint64(last.RelativeOffset)
		currFrame = last.FirstFrame
		if first, ok := s.index.Find(0); ok {
			s.BaseFrame = first.FirstFrame
		}
	}

	if _, err := s.logFile.Seek(startPos, io.SeekStart); err != nil {
		return ErrSeekFailed(err)
	}
	reader := bufio.NewReader(s.logFile)
	currPos := startPos
	for {
		rec, err := ReadRecord(reader)
		if err != nil || rec.Offset != currOffset {
			// EOF, a torn write or a record from a stale checkpoint.
			break
		}
		currPos += int64(totalHeaderWidth + len(rec.Buffer))
		currOffset++
		currFrame += uint64(rec.Frames)
	}

	if err := s.logFile.Truncate(currPos); err != nil {
		return ErrTruncateFailed(err)
	}
	if _, err := s.logFile.Seek(currPos, io.SeekStart); err != nil {
		return ErrSeekFailed(err)
	}
	s.writePos = currPos
	s.NextOffset = currOffset
	s.NextFrame = currFrame
	s.bufWriter.Reset(s.logFile)
	s.index.TruncateFrom(uint64(currPos))
	return nil
}

func (s *Segment) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.writePos) >= s.config.MaxSegmentBytes
}

func (s *Segment) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.NextOffset == s.BaseOffset
}

func (s *Segment) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufWriter.Flush()
}

func (s *Segment) Remove() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.index.Name()); err != nil {
		return err
	}
	return os.Remove(s.logFile.Name())
}

func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bufWriter.Flush(); err != nil {
		return err
	}
	if err := s.logFile.Close(); err != nil {
		return err
	}
	return s.index.Close()
}
