// Package hooks provides a four-slot bundle of optional callbacks dispatched
// around and during a sync run. Each slot is a plain function value rather
// than an interface: the set of callback arities is fixed and precisely
// typed, so there's nothing for an interface to abstract over.
package hooks

import "github.com/0xkanth/blocksync/internal/status"

// BeforeFunc runs once per worker, before that worker's first block.
type BeforeFunc func()

// AfterFunc runs once per worker, on every exit path (completion, canceled,
// failed).
type AfterFunc func(snap status.Snapshot)

// MonitorFunc runs on a timer while a worker is active.
type MonitorFunc func(snap status.Snapshot)

// ErrorFunc runs when a worker observes an error other than a cooperative
// cancel.
type ErrorFunc func(err error, snap status.Snapshot)

// Hooks bundles the four optional callbacks. The zero value has every slot
// nil and is safe to use: every Run* method is a no-op when its slot is nil.
type Hooks struct {
	Before  BeforeFunc
	After   AfterFunc
	Monitor MonitorFunc
	OnError ErrorFunc
}

// RunBefore invokes Before if set.
func (h Hooks) RunBefore() {
	if h.Before != nil {
		h.Before()
	}
}

// RunAfter invokes After if set.
func (h Hooks) RunAfter(snap status.Snapshot) {
	if h.After != nil {
		h.After(snap)
	}
}

// RunMonitor invokes Monitor if set.
func (h Hooks) RunMonitor(snap status.Snapshot) {
	if h.Monitor != nil {
		h.Monitor(snap)
	}
}

// RunOnError invokes OnError if set. Callers must never route a canceled
// error here: cancellation is a plain exit signal, not a failure.
func (h Hooks) RunOnError(err error, snap status.Snapshot) {
	if h.OnError != nil {
		h.OnError(err, snap)
	}
}
