package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xkanth/blocksync/pkg/models"
)

// PostgresRecorder persists RunSummary records to a shared Postgres
// database, for deployments that run many blocksync processes across hosts
// and want a single queryable run history.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder opens a connection pool and ensures the runs table
// exists.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connecting to postgres: %w", err)
	}

	const ddl = `
		CREATE TABLE IF NOT EXISTS blocksync_runs (
			run_id       TEXT PRIMARY KEY,
			src          TEXT NOT NULL,
			dest         TEXT NOT NULL,
			mode         TEXT NOT NULL,
			workers      INTEGER NOT NULL,
			block_size   BIGINT NOT NULL,
			src_size     BIGINT NOT NULL,
			dest_size    BIGINT NOT NULL,
			same_blocks  BIGINT NOT NULL,
			diff_blocks  BIGINT NOT NULL,
			done_blocks  BIGINT NOT NULL,
			rate         DOUBLE PRECISION NOT NULL,
			canceled     BOOLEAN NOT NULL,
			failure_msg  TEXT,
			started_at   TIMESTAMPTZ NOT NULL,
			finished_at  TIMESTAMPTZ NOT NULL,
			payload      JSONB NOT NULL
		)
	`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: creating runs table: %w", err)
	}

	return &PostgresRecorder{pool: pool}, nil
}

// Record upserts one RunSummary.
func (r *PostgresRecorder) Record(ctx context.Context, run models.RunSummary) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("history: marshal run %s: %w", run.RunID, err)
	}

	const query = `
		INSERT INTO blocksync_runs (
			run_id, src, dest, mode, workers, block_size, src_size, dest_size,
			same_blocks, diff_blocks, done_blocks, rate, canceled, failure_msg,
			started_at, finished_at, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (run_id) DO UPDATE SET
			same_blocks = EXCLUDED.same_blocks,
			diff_blocks = EXCLUDED.diff_blocks,
			done_blocks = EXCLUDED.done_blocks,
			rate        = EXCLUDED.rate,
			canceled    = EXCLUDED.canceled,
			failure_msg = EXCLUDED.failure_msg,
			finished_at = EXCLUDED.finished_at,
			payload     = EXCLUDED.payload
	`
	_, err = r.pool.Exec(ctx, query,
		run.RunID, run.Src, run.Dest, run.Mode, run.Workers, run.BlockSize,
		run.SrcSize, run.DestSize, run.Same, run.Diff, run.Done, run.Rate,
		run.Canceled, run.FailureMsg, run.StartedAt, run.FinishedAt, payload,
	)
	if err != nil {
		return fmt.Errorf("history: recording run %s: %w", run.RunID, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
