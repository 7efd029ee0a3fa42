package indexfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ericzhang631/os-project3/pkg/block"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "index.db")
}

func TestCreateProducesExactlyOneBlockWithHeader(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	if f.RootBlockID != 0 {
		t.Fatalf("RootBlockID = %d, want 0", f.RootBlockID)
	}
	if f.NextBlockID != 1 {
		t.Fatalf("NextBlockID = %d, want 1", f.NextBlockID)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) != block.Size {
		t.Fatalf("file size = %d, want %d", len(raw), block.Size)
	}
	if !bytes.Equal(raw[0:8], Magic[:]) {
		t.Fatalf("magic = %q, want %q", raw[0:8], Magic[:])
	}
	if !bytes.Equal(raw[24:], make([]byte, block.Size-24)) {
		t.Fatal("reserved header bytes are not all zero")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := tempPath(t)
	garbage := make([]byte, block.Size)
	copy(garbage, []byte("GARBAGE!"))
	if err := block.Create(path, garbage); err != nil {
		t.Fatalf("block.Create: %v", err)
	}

	if _, err := Open(path); err != ErrBadMagic {
		t.Fatalf("Open with bad magic: got %v, want ErrBadMagic", err)
	}
}

func TestOpenFailsOnMissingFile(t *testing.T) {
	if _, err := Open(tempPath(t)); err == nil {
		t.Fatal("Open on missing file: want error, got nil")
	}
}

func TestWriteHeaderThenReopenPreservesRootAndNext(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.RootBlockID = 7
	f.NextBlockID = 12
	if err := f.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	if reopened.RootBlockID != 7 || reopened.NextBlockID != 12 {
		t.Fatalf("got root=%d next=%d, want root=7 next=12", reopened.RootBlockID, reopened.NextBlockID)
	}
}

func TestAllocateIsMonotonicAndPersisted(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	first, err := f.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	second, err := f.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("allocated %d, %d; want 1, 2", first, second)
	}
	if f.NextBlockID != 3 {
		t.Fatalf("NextBlockID = %d, want 3", f.NextBlockID)
	}
}
