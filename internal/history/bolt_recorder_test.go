package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xkanth/blocksync/pkg/models"
)

func TestBoltRecorderRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := NewBoltRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	run := models.RunSummary{
		RunID:      "run-1",
		Src:        "/tmp/a",
		Dest:       "/tmp/b",
		Mode:       "local_to_local",
		Workers:    2,
		BlockSize:  1024,
		SrcSize:    2048,
		DestSize:   2048,
		Same:       1,
		Diff:       1,
		Done:       2,
		Rate:       100.0,
		StartedAt:  time.Now().Add(-time.Second),
		FinishedAt: time.Now(),
	}
	require.NoError(t, r.Record(context.Background(), run))

	got, err := r.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Rate, got.Rate)
}

func TestBoltRecorderGetMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := NewBoltRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestBoltRecorderList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := NewBoltRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Record(context.Background(), models.RunSummary{RunID: "a"}))
	require.NoError(t, r.Record(context.Background(), models.RunSummary{RunID: "b"}))

	runs, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
