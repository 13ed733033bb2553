// Package blockio implements ByteContainer, the local file abstraction each
// sync worker opens its own handle to: each worker goroutine owns its own
// *ByteContainer rather than sharing one across goroutines.
package blockio

import (
	"fmt"
	"io"
	"os"

	"github.com/0xkanth/blocksync/internal/errs"
)

// ByteContainer wraps one open local file handle and the bookkeeping a
// worker needs to stream fixed-size blocks from an arbitrary start offset.
type ByteContainer struct {
	path string
	f    *os.File
	size int64
}

// Open opens path read-write and stats its current size. The destination of
// a local-to-local or local-to-remote sync must already exist unless
// create_dest created it first.
func Open(path string) (*ByteContainer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockio: open %s: %w: %w", path, errs.ErrIO, err)
	}
	size, err := statSize(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ByteContainer{path: path, f: f, size: size}, nil
}

// Create truncates (or creates) path to the given size, then opens it for
// read-write use.
func Create(path string, size int64) (*ByteContainer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockio: create %s: %w: %w", path, errs.ErrIO, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("blockio: truncate %s to %d: %w: %w", path, size, errs.ErrIO, err)
	}
	return &ByteContainer{path: path, f: f, size: size}, nil
}

// Size reports the file size observed at Open/Create time.
func (b *ByteContainer) Size() int64 { return b.size }

// Path reports the underlying path.
func (b *ByteContainer) Path() string { return b.path }

// SeekTo positions the handle at an absolute byte offset.
func (b *ByteContainer) SeekTo(offset int64) error {
	if _, err := b.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("blockio: seek %s to %d: %w: %w", b.path, offset, errs.ErrIO, err)
	}
	return nil
}

// ReadBlock reads up to blockSize bytes sequentially from the current
// offset. A short final block (end of file) is returned without error; io.EOF
// with zero bytes read signals no more blocks. io.ReadFull ensures a short
// read mid-file (rather than at the true end) is still either completed or
// reported as an error, instead of silently misaligning the block the
// caller compares or writes back.
func (b *ByteContainer) ReadBlock(blockSize int64) ([]byte, error) {
	buf := make([]byte, blockSize)
	n, err := io.ReadFull(b.f, buf)
	if n == 0 {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("blockio: read %s: %w: %w", b.path, errs.ErrIO, err)
		}
		return nil, io.EOF
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("blockio: read %s: %w: %w", b.path, errs.ErrIO, err)
	}
	return buf[:n], nil
}

// WriteBlock writes p at the current offset.
func (b *ByteContainer) WriteBlock(p []byte) error {
	if _, err := b.f.Write(p); err != nil {
		return fmt.Errorf("blockio: write %s: %w: %w", b.path, errs.ErrIO, err)
	}
	return nil
}

// Close flushes and closes the handle.
func (b *ByteContainer) Close() error {
	if err := b.f.Sync(); err != nil {
		b.f.Close()
		return fmt.Errorf("blockio: sync %s: %w: %w", b.path, errs.ErrIO, err)
	}
	if err := b.f.Close(); err != nil {
		return fmt.Errorf("blockio: close %s: %w: %w", b.path, errs.ErrIO, err)
	}
	return nil
}

// statSize reports a handle's size. Stat().Size() is 0 for a block device
// on Linux, so a device (or any regular file Stat reports as empty, which
// is cheap to double-check) falls back to a seek-to-end-and-tell, then
// seeks back to the start so the caller's subsequent sequential read
// starts at offset 0.
func statSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("blockio: stat %s: %w: %w", f.Name(), errs.ErrIO, err)
	}
	if info.Mode()&os.ModeDevice == 0 && info.Size() != 0 {
		return info.Size(), nil
	}
	return seekSize(f)
}

// seekSize derives a handle's size by seeking to its end and reading back
// the resulting offset, the only size source that works for a block
// device. It restores the handle to offset 0 before returning.
func seekSize(f *os.File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("blockio: seek-to-end %s: %w: %w", f.Name(), errs.ErrIO, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("blockio: seek-to-start %s: %w: %w", f.Name(), errs.ErrIO, err)
	}
	return size, nil
}
