// Package metrics exposes sync progress as Prometheus metrics, in the
// promauto/promhttp style used across the rest of the codebase: package-level
// collectors registered once, updated by whichever run is currently live.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xkanth/blocksync/internal/status"
)

var (
	blocksSame = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blocksync_blocks_same",
		Help: "Number of blocks found identical in the current run",
	}, []string{"run_id"})

	blocksDiff = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blocksync_blocks_diff",
		Help: "Number of blocks found different in the current run",
	}, []string{"run_id"})

	blocksDone = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blocksync_blocks_done",
		Help: "Number of blocks processed so far in the current run",
	}, []string{"run_id"})

	rate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blocksync_rate_percent",
		Help: "Completion rate of the current run, 0-100",
	}, []string{"run_id"})

	syncErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocksync_errors_total",
		Help: "Total number of worker errors observed",
	}, []string{"run_id", "error_type"})

	runsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocksync_runs_completed_total",
		Help: "Total number of sync runs that reached a terminal state",
	}, []string{"outcome"})
)

// Observe records one monitor tick's snapshot for runID.
func Observe(runID string, snap status.Snapshot) {
	blocksSame.WithLabelValues(runID).Set(float64(snap.Blocks.Same))
	blocksDiff.WithLabelValues(runID).Set(float64(snap.Blocks.Diff))
	blocksDone.WithLabelValues(runID).Set(float64(snap.Blocks.Done))
	rate.WithLabelValues(runID).Set(snap.Rate)
}

// RecordError increments the error counter for runID/errorType.
func RecordError(runID, errorType string) {
	syncErrors.WithLabelValues(runID, errorType).Inc()
}

// RecordRunOutcome increments the terminal-outcome counter, one of
// "completed", "canceled", "failed".
func RecordRunOutcome(outcome string) {
	runsCompleted.WithLabelValues(outcome).Inc()
}
