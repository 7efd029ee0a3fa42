// Package block implements the fixed-size block device the index file
// format is built on. A Device knows nothing about headers, magic
// numbers, or B-trees; it only moves whole 512-byte blocks to and from
// one open file.
package block

import (
	"errors"
	"fmt"
	"io"
	"os"

	metrics "github.com/armon/go-metrics"
)

// Size is the fixed block size in bytes. Every block in the index file
// — header or node — occupies exactly one Size-byte region.
const Size = 512

var (
	// ErrShortRead is returned when fewer than Size bytes could be read
	// for a block.
	ErrShortRead = errors.New("block: short read")
	// ErrShortWrite is returned when fewer than Size bytes were written.
	ErrShortWrite = errors.New("block: short write")
	// ErrBadBlockLen is returned when WriteBlock is given a slice whose
	// length isn't exactly Size.
	ErrBadBlockLen = errors.New("block: data is not one block in size")
)

// Device owns a single open file handle for the lifetime of an index.
type Device struct {
	file *os.File
}

// Create creates or truncates the file at path and writes first as its
// initial block-0 contents, flushing before the handle is released.
// Create never leaves a handle open; callers that want to keep working
// with the file call Open afterward.
func Create(path string, first []byte) error {
	if len(first) != Size {
		return ErrBadBlockLen
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.WriteAt(first, 0)
	if err != nil {
		return err
	}
	if n != Size {
		return ErrShortWrite
	}
	if err := f.Sync(); err != nil {
		return err
	}
	metrics.IncrCounter([]string{"block", "create"}, 1)
	return nil
}

// Open opens an existing file for read/write block access. It fails if
// the file does not exist or cannot be opened read/write.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		return nil, err
	}
	return &Device{file: f}, nil
}

// Close releases the underlying file handle. Close is idempotent.
func (d *Device) Close() error {
	if d == nil || d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// ReadBlock reads exactly one Size-byte block at the given block id.
func (d *Device) ReadBlock(id uint64) ([]byte, error) {
	if d.file == nil {
		return nil, errors.New("block: device not open")
	}

	buf := make([]byte, Size)
	n, err := d.file.ReadAt(buf, int64(id)*Size)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	if n != Size {
		return nil, fmt.Errorf("%w: block %d: read %d of %d bytes", ErrShortRead, id, n, Size)
	}
	metrics.IncrCounter([]string{"block", "read"}, 1)
	return buf, nil
}

// WriteBlock writes exactly one Size-byte block at the given block id
// and flushes it to the OS before returning.
func (d *Device) WriteBlock(id uint64, data []byte) error {
	if d.file == nil {
		return errors.New("block: device not open")
	}
	if len(data) != Size {
		return ErrBadBlockLen
	}

	n, err := d.file.WriteAt(data, int64(id)*Size)
	if err != nil {
		return err
	}
	if n != Size {
		return fmt.Errorf("%w: block %d: wrote %d of %d bytes", ErrShortWrite, id, n, Size)
	}
	if err := d.file.Sync(); err != nil {
		return err
	}
	metrics.IncrCounter([]string{"block", "write"}, 1)
	return nil
}
