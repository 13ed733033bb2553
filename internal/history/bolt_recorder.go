// Package history records the outcome of sync runs, one RunSummary per
// RunID. Unlike a resumable checkpoint (an explicit Non-goal of the sync
// engines), a RunSummary is never read back to resume anything — it is an
// audit trail a caller can query to answer "what happened to my last ten
// syncs of this path." cmd/blocksync records each run once, after it
// finishes; cmd/blocksync-monitor overwrites a run's record with every
// progress tick it consumes.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/0xkanth/blocksync/pkg/models"
)

const runsBucket = "runs"

// BoltRecorder persists RunSummary records to an embedded BoltDB file,
// keyed by RunID, for single-host deployments with no external database.
type BoltRecorder struct {
	db *bbolt.DB
}

// NewBoltRecorder opens (creating if absent) a BoltDB file at dbPath and
// ensures the runs bucket exists.
func NewBoltRecorder(dbPath string) (*BoltRecorder, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create bucket: %w", err)
	}

	return &BoltRecorder{db: db}, nil
}

// Record stores one RunSummary under its RunID, replacing any record
// already stored for that RunID.
func (r *BoltRecorder) Record(_ context.Context, run models.RunSummary) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("history: marshal run %s: %w", run.RunID, err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return fmt.Errorf("history: runs bucket not found")
		}
		return b.Put([]byte(run.RunID), data)
	})
}

// Get retrieves one RunSummary by RunID.
func (r *BoltRecorder) Get(_ context.Context, runID string) (*models.RunSummary, error) {
	var run models.RunSummary
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return fmt.Errorf("history: runs bucket not found")
		}
		data := b.Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("history: run %s not found", runID)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns every recorded RunSummary in byte order of RunID (BoltDB's
// key order), not in insertion order; callers should sort by FinishedAt if
// a chronological order is needed.
func (r *BoltRecorder) List(_ context.Context) ([]models.RunSummary, error) {
	var runs []models.RunSummary
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return fmt.Errorf("history: runs bucket not found")
		}
		return b.ForEach(func(_, data []byte) error {
			var run models.RunSummary
			if err := json.Unmarshal(data, &run); err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Close closes the underlying database.
func (r *BoltRecorder) Close() error {
	return r.db.Close()
}
