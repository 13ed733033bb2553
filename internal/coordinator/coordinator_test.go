package coordinator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuspendBlocksWorker(t *testing.T) {
	c := New()
	c.Suspend()

	var passed atomic.Bool
	done := make(chan struct{})
	go func() {
		c.WaitIfSuspended()
		passed.Store(true)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("worker should still be parked")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, passed.Load())

	c.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker never released after Resume")
	}
	assert.True(t, passed.Load())
}

func TestCancelReleasesSuspendedWorkers(t *testing.T) {
	c := New()
	c.Suspend()
	done := make(chan struct{})
	go func() {
		c.WaitIfSuspended()
		close(done)
	}()

	c.Cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancel did not release suspended worker")
	}
	assert.True(t, c.Canceled())
}

func TestWaitIfSuspendedNoopWhenReleased(t *testing.T) {
	c := New()
	done := make(chan struct{})
	go func() {
		c.WaitIfSuspended()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("should not block when not suspended")
	}
}

func TestWaitBlocksUntilWorkersDone(t *testing.T) {
	c := New()
	c.Add(2)
	finished := make(chan struct{})
	go func() {
		c.Wait()
		close(finished)
	}()

	c.Done()
	select {
	case <-finished:
		t.Fatal("Wait returned before all workers finished")
	case <-time.After(30 * time.Millisecond):
	}

	c.Done()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after all workers finished")
	}
}

func TestSuspendResumeIdempotent(t *testing.T) {
	c := New()
	c.Suspend()
	c.Suspend()
	c.Resume()
	c.Resume()

	done := make(chan struct{})
	go func() {
		c.WaitIfSuspended()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("double resume left latch closed")
	}
}
