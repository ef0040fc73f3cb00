package segment

import (
	"encoding/binary"
	"os"

	"github.com/tysonmote/gommap"
)

// IndexEntry is one entry of the sparse capture index. A new entry is
// written for the first buffer of a segment and then every IndexIntervalBytes.
// Physical layout:
// +----------------+----------------+----------------+
// |   RelOffset    |    Position    |   FirstFrame   |
// +----------------+----------------+----------------+
// |    4 bytes     |    8 bytes     |    8 bytes     |
// +----------------+----------------+----------------+
// FirstFrame is the capture-wide ordinal of the first frame record inside
// the indexed buffer.

const (
	IndexEntrySize  = 4 + 8 + 8
	initalIndexSize = IndexEntrySize * 1024
)

var indexEndian = binary.BigEndian

type IndexEntry struct {
	RelativeOffset uint32
	Position       uint64
	FirstFrame     uint64
}

// Index is the mmap-backed index file of a segment.
type Index struct {
	file *os.File
	mmap gommap.MMap
	size int64
}

func OpenIndex(filePath string) (*Index, error) {
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	size := stat.Size() - stat.Size()%IndexEntrySize
	mapped := max(size, initalIndexSize)
	if err := file.Truncate(mapped); err != nil {
		file.Close()
		return nil, err
	}
	m, err := gommap.Map(file.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, err
	}
	idx := &Index{file: file, mmap: m, size: size}
	idx.trimZeroTail()
	return idx, nil
}

// trimZeroTail drops zeroed entries left by an unclean shutdown, when the
// file was still at its mapped size. Only the first entry may be all zero.
func (idx *Index) trimZeroTail() {
	for idx.Len() > 1 {
		last := idx.Entry(idx.Len() - 1)
		if last != (IndexEntry{}) {
			return
		}
		idx.size -= IndexEntrySize
	}
}

func (idx *Index) Write(e IndexEntry) error {
	if idx.size+IndexEntrySize > int64(len(idx.mmap)) {
		if err := idx.grow(); err != nil {
			return err
		}
	}
	buf := idx.mmap[idx.size : idx.size+IndexEntrySize]
	indexEndian.PutUint32(buf[0:4], e.RelativeOffset)
	indexEndian.PutUint64(buf[4:12], e.Position)
	indexEndian.PutUint64(buf[12:20], e.FirstFrame)
	idx.size += IndexEntrySize
	return nil
}

func (idx *Index) grow() error {
	newSize := int64(len(idx.mmap)) * 2
	if err := idx.file.Truncate(newSize); err != nil {
		return err
	}
	if err := idx.mmap.UnsafeUnmap(); err != nil {
		return err
	}
	m, err := gommap.Map(idx.file.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return err
	}
	idx.mmap = m
	return nil
}

func (idx *Index) Len() int64 {
	return idx.size / IndexEntrySize
}

func (idx *Index) Entry(i int64) IndexEntry {
	pos := i * IndexEntrySize
	buf := idx.mmap[pos : pos+IndexEntrySize]
	return IndexEntry{
		RelativeOffset: indexEndian.Uint32(buf[0:4]),
		Position:       indexEndian.Uint64(buf[4:12]),
		FirstFrame:     indexEndian.Uint64(buf[12:20]),
	}
}

// Find returns the last entry whose relative offset is <= relOffset.
func (idx *Index) Find(relOffset uint32) (IndexEntry, bool) {
	return idx.search(func(e IndexEntry) bool { return e.RelativeOffset <= relOffset })
}

// FindFrame returns the last entry whose first frame is <= ordinal.
func (idx *Index) FindFrame(ordinal uint64) (IndexEntry, bool) {
	return idx.search(func(e IndexEntry) bool { return e.FirstFrame <= ordinal })
}

// search binary-searches for the last entry satisfying before. Entries are
// ordered by offset, position and frame ordinal alike.
func (idx *Index) search(before func(IndexEntry) bool) (IndexEntry, bool) {
	var (
		result IndexEntry
		found  bool
	)
	low, high := int64(0), idx.Len()-1
	for low <= high {
		mid := (low + high) / 2
		entry := idx.Entry(mid)
		if before(entry) {
			result, found = entry, true
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return result, found
}

func (idx *Index) Last() (IndexEntry, bool) {
	if idx.Len() == 0 {
		return IndexEntry{}, false
	}
	return idx.Entry(idx.Len() - 1), true
}

// TruncateFrom drops entries pointing at or past position.
func (idx *Index) TruncateFrom(position uint64) {
	for idx.size > 0 {
		if idx.Entry(idx.Len()-1).Position < position {
			return
		}
		idx.size -= IndexEntrySize
	}
}

func (idx *Index) Size() int64 {
	return idx.size
}

func (idx *Index) Name() string {
	return idx.file.Name()
}

func (idx *Index) Close() error {
	if err := idx.mmap.Sync(gommap.MS_SYNC); err != nil {
		return err
	}
	if err := idx.mmap.UnsafeUnmap(); err != nil {
		return err
	}
	if err := idx.file.Sync(); err != nil {
		return err
	}
	if err := idx.file.Truncate(idx.size); err != nil {
		return err
	}
	return idx.file.Close()
}
