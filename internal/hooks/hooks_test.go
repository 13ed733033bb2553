package hooks

import (
	"testing"

	"github.com/0xkanth/blocksync/internal/status"
	"github.com/stretchr/testify/assert"
)

func TestZeroValueIsNoop(t *testing.T) {
	var h Hooks
	assert.NotPanics(t, func() {
		h.RunBefore()
		h.RunAfter(status.Snapshot{})
		h.RunMonitor(status.Snapshot{})
		h.RunOnError(nil, status.Snapshot{})
	})
}

func TestEachSlotInvoked(t *testing.T) {
	var calledBefore, calledAfter, calledMonitor, calledError bool
	h := Hooks{
		Before:  func() { calledBefore = true },
		After:   func(status.Snapshot) { calledAfter = true },
		Monitor: func(status.Snapshot) { calledMonitor = true },
		OnError: func(error, status.Snapshot) { calledError = true },
	}
	h.RunBefore()
	h.RunAfter(status.Snapshot{})
	h.RunMonitor(status.Snapshot{})
	h.RunOnError(nil, status.Snapshot{})

	assert.True(t, calledBefore)
	assert.True(t, calledAfter)
	assert.True(t, calledMonitor)
	assert.True(t, calledError)
}
