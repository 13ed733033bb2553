package history

import (
	"context"

	"github.com/0xkanth/blocksync/pkg/models"
)

// Recorder is implemented by both BoltRecorder and PostgresRecorder: store
// one RunSummary keyed by RunID, a later Record for the same RunID
// replacing the earlier one; never read back for resumption.
type Recorder interface {
	Record(ctx context.Context, run models.RunSummary) error
}
