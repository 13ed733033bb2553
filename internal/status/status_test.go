package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddRecomputesDone(t *testing.T) {
	s := New(1, 10, 20, 20)
	s.Add(Same)
	s.Add(Same)
	b := s.Blocks()
	assert.Equal(t, int64(2), b.Same)
	assert.Equal(t, int64(0), b.Diff)
	assert.Equal(t, int64(2), b.Done)
	assert.Equal(t, 100.0, s.Rate())
}

func TestRateZeroBeforeAnyBlock(t *testing.T) {
	s := New(1, 10, 100, 100)
	assert.Equal(t, 0.0, s.Rate())
}

func TestRateClampedAt100(t *testing.T) {
	s := New(1, 1, 1, 1)
	s.Add(Same)
	assert.Equal(t, 100.0, s.Rate())
}

func TestZeroSrcSize(t *testing.T) {
	s := New(1, 10, 0, 0)
	assert.Equal(t, 0.0, s.Rate())
}

func TestConcurrentAdd(t *testing.T) {
	s := New(4, 1, 400, 400)
	var wg sync.WaitGroup
	for i := 0; i < 400; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Add(Same)
			} else {
				s.Add(Diff)
			}
		}(i)
	}
	wg.Wait()
	b := s.Blocks()
	assert.Equal(t, int64(200), b.Same)
	assert.Equal(t, int64(200), b.Diff)
	assert.Equal(t, int64(400), b.Done)
	assert.Equal(t, b.Same+b.Diff, b.Done)
}

func TestSnapConsistent(t *testing.T) {
	s := New(2, 10, 100, 100)
	s.Add(Diff)
	snap := s.Snap()
	assert.Equal(t, snap.Blocks.Done, snap.Blocks.Same+snap.Blocks.Diff)
	assert.InDelta(t, s.Rate(), snap.Rate, 0.0001)
}
