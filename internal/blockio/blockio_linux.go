//go:build linux

package blockio

import "golang.org/x/sys/unix"

// HintSequential advises the kernel that this container will be read
// sequentially and the pages need not be cached afterward. Call it right
// after opening a source handle.
func (b *ByteContainer) HintSequential() {
	_ = unix.Fadvise(int(b.f.Fd()), 0, 0, unix.FADV_NOREUSE)
}

// HintDontNeed advises the kernel to drop offset..offset+length from the
// page cache once a worker has finished reading a block range.
func (b *ByteContainer) HintDontNeed(offset, length int64) {
	_ = unix.Fadvise(int(b.f.Fd()), offset, length, unix.FADV_DONTNEED)
}
