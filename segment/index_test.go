package segment

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTest(t *testing.T) (index *Index, file string, teardown func()) {
	t.Helper()
	file = filepath.Join(t.TempDir(), "test.idx")
	index, err := OpenIndex(file)
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	return index, file, func() {
		index.Close()
		os.Remove(file)
	}
}

func TestIndexWriteFind(t *testing.T) {
	index, _, teardown := setupTest(t)
	defer teardown()

	entries := []IndexEntry{
		{0, 0, 0},
		{1, 100, 3},
		{2, 205, 9},
		{3, 309, 10},
		{4, 400, 25},
	}
	for _, e := range entries {
		if err := index.Write(e); err != nil {
			t.Fatalf("failed to write index entry: %v", err)
		}
	}
	for _, e := range entries {
		entry, found := index.Find(e.RelativeOffset)
		if !found || entry != e {
			t.Errorf("Find(%d) = %+v, %v; want %+v", e.RelativeOffset, entry, found, e)
		}
	}

	// Frames 10..24 live in the buffer indexed at position 309.
	entry, found := index.FindFrame(24)
	if !found || entry.Position != 309 {
		t.Errorf("FindFrame(24) = %+v, %v", entry, found)
	}
	entry, found = index.FindFrame(2)
	if !found || entry.Position != 0 {
		t.Errorf("FindFrame(2) = %+v, %v", entry, found)
	}
}

func TestIndexGrow(t *testing.T) {
	index, _, teardown := setupTest(t)
	defer teardown()

	initialCap := len(index.mmap)
	count := initialCap/IndexEntrySize + 10
	for i := 0; i < count; i++ {
		if err := index.Write(IndexEntry{RelativeOffset: uint32(i), Position: uint64(i * 100), FirstFrame: uint64(i * 2)}); err != nil {
			t.Fatalf("failed to write index entry: %v", err)
		}
	}
	if len(index.mmap) <= initialCap {
		t.Errorf("index mmap did not grow as expected")
	}
	last, found := index.Last()
	if !found || last.RelativeOffset != uint32(count-1) || last.FirstFrame != uint64((count-1)*2) {
		t.Errorf("last entry = %+v, %v", last, found)
	}
}

func TestIndexReopen(t *testing.T) {
	index, file, _ := setupTest(t)
	for i := 0; i < 3; i++ {
		if err := index.Write(IndexEntry{RelativeOffset: uint32(i), Position: uint64(i * 50), FirstFrame: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := index.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenIndex(file)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", reopened.Len())
	}
	if e := reopened.Entry(2); e.Position != 100 {
		t.Errorf("Entry(2) = %+v", e)
	}
}

func TestIndexTruncateFrom(t *testing.T) {
	index, _, teardown := setupTest(t)
	defer teardown()

	for i := 0; i < 5; i++ {
		if err := index.Write(IndexEntry{RelativeOffset: uint32(i), Position: uint64(i * 100)}); err != nil {
			t.Fatal(err)
		}
	}
	index.TruncateFrom(300)
	if index.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", index.Len())
	}
	index.TruncateFrom(0)
	if _, found := index.Last(); found {
		t.Fatalf("expected empty index")
	}
}

func BenchmarkIndexFind(b *testing.B) {
	index, err := OpenIndex(filepath.Join(b.TempDir(), "test.idx"))
	if err != nil {
		b.Fatalf("failed to create index: %v", err)
	}
	defer index.Close()
	for i := 0; i < b.N; i++ {
		if err := index.Write(IndexEntry{RelativeOffset: uint32(i), Position: uint64(i * 100)}); err != nil {
			b.Fatalf("failed to write index entry: %v", err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, found := index.Find(uint32(i)); !found {
			b.Fatalf("failed to find index entry: %v", i)
		}
	}
}
