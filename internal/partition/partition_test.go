package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEvenDivision(t *testing.T) {
	r := Split(1, 4, 400, 10)
	assert.Equal(t, int64(0), r.StartPos)
	assert.Equal(t, int64(10), r.MaxBlock)

	r = Split(4, 4, 400, 10)
	assert.Equal(t, int64(300), r.StartPos)
	assert.Equal(t, int64(10), r.MaxBlock)
}

func TestSplitLastWorkerAbsorbsRemainder(t *testing.T) {
	r := Split(3, 3, 100, 10)
	assert.Equal(t, int64(66), r.StartPos)
	assert.Equal(t, int64(4), r.MaxBlock)
}

func TestAllRangesCoverWholeSource(t *testing.T) {
	ranges := All(3, 97, 10)
	assert.Len(t, ranges, 3)
	assert.Equal(t, int64(0), ranges[0].StartPos)
	assert.Equal(t, int64(32), ranges[1].StartPos)
	assert.Equal(t, int64(64), ranges[2].StartPos)
}

func TestSingleWorker(t *testing.T) {
	r := Split(1, 1, 55, 10)
	assert.Equal(t, int64(0), r.StartPos)
	assert.Equal(t, int64(6), r.MaxBlock)
}
