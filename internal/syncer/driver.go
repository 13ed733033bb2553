package syncer

import (
	"github.com/0xkanth/blocksync/internal/coordinator"
	"github.com/0xkanth/blocksync/internal/hooks"
	"github.com/0xkanth/blocksync/internal/status"
)

// Driver is the handle a Start* call returns: a Coordinator the caller can
// suspend/resume/cancel/wait on, and a Status it can read at any time.
type Driver struct {
	coord *coordinator.Coordinator
	st    *status.Status
	hooks hooks.Hooks
	done  chan struct{}
}

func newDriver(coord *coordinator.Coordinator, st *status.Status, h hooks.Hooks) *Driver {
	return &Driver{coord: coord, st: st, hooks: h, done: make(chan struct{})}
}

// runWhenDone spawns the goroutine that closes d.done once every worker
// registered with d.coord has called Done, so Finished() never has to
// block.
func (d *Driver) runWhenDone() {
	go func() {
		d.coord.Wait()
		close(d.done)
	}()
}

// Suspend clears the run's suspend latch; every worker blocks at its next
// suspension point until Resume is called.
func (d *Driver) Suspend() { d.coord.Suspend() }

// Resume releases a suspended run.
func (d *Driver) Resume() { d.coord.Resume() }

// Cancel latches cancellation; every worker exits at its next check, after
// finishing any block currently in flight.
func (d *Driver) Cancel() { d.coord.Cancel() }

// Canceled reports whether Cancel has been called.
func (d *Driver) Canceled() bool { return d.coord.Canceled() }

// Wait joins every worker. Once it returns, Finished reports true.
func (d *Driver) Wait() { <-d.done }

// Finished reports whether every worker has already exited, without
// blocking.
func (d *Driver) Finished() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Status returns the shared, thread-safe progress aggregate for this run.
func (d *Driver) Status() *status.Status { return d.st }
