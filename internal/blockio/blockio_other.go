//go:build !linux

package blockio

// HintSequential is a no-op on platforms without posix_fadvise.
func (b *ByteContainer) HintSequential() {}

// HintDontNeed is a no-op on platforms without posix_fadvise.
func (b *ByteContainer) HintDontNeed(offset, length int64) {}
