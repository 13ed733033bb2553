// Command blocksync drives a single differential byte-block sync run:
// local-to-local, local-to-remote, or remote-to-local, selected by
// sync.mode in config.toml.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/0xkanth/blocksync/internal/eventbus"
	"github.com/0xkanth/blocksync/internal/history"
	"github.com/0xkanth/blocksync/internal/hooks"
	"github.com/0xkanth/blocksync/internal/metrics"
	"github.com/0xkanth/blocksync/internal/status"
	"github.com/0xkanth/blocksync/internal/syncer"
	"github.com/0xkanth/blocksync/internal/transport"
	"github.com/0xkanth/blocksync/internal/util"
	"github.com/0xkanth/blocksync/pkg/config"
	"github.com/0xkanth/blocksync/pkg/models"
)

const serviceName = "blocksync"

var showProgress = flag.Bool("progress", false, "print a single-line progress meter to stderr")

func main() {
	flag.Parse()

	logger := util.InitLogger(serviceName, os.Stdout)
	logger.Info().Msg("starting blocksync")

	ko := util.InitConfig(logger, "config.toml")
	util.UpdateLogLevel(ko, logger)

	cfg, err := config.Load(ko)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Info().
		Str("src", cfg.Src).
		Str("dest", cfg.Dest).
		Str("mode", cfg.Mode).
		Int64("block_size", cfg.BlockSize).
		Int("workers", cfg.Workers).
		Msg("configuration loaded")

	runID := uuid.NewString()

	recorder, err := newRecorder(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize history recorder")
	}

	var pub *eventbus.Publisher
	if cfg.EventBusURL != "" {
		pub, err = eventbus.NewPublisher(cfg.EventBusURL, 24*time.Hour, cfg.EventBusPrefix, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create eventbus publisher")
		}
		defer pub.Close()
	}

	startedAt := time.Now()
	h := hooks.Hooks{
		Before: func() {
			logger.Debug().Str("run_id", runID).Msg("worker starting")
		},
		Monitor: func(snap status.Snapshot) {
			metrics.Observe(runID, snap)
			logger.Debug().
				Str("run_id", runID).
				Int64("same", snap.Blocks.Same).
				Int64("diff", snap.Blocks.Diff).
				Int64("done", snap.Blocks.Done).
				Float64("rate", snap.Rate).
				Msg("sync progress")
			if pub != nil {
				eventbus.MonitorHook(pub, runID, cfg.Src, cfg.Dest, startedAt)(snap)
			}
		},
		OnError: func(err error, snap status.Snapshot) {
			metrics.RecordError(runID, "worker")
			logger.Error().Err(err).Str("run_id", runID).Msg("sync worker error")
		},
		After: func(snap status.Snapshot) {
			logger.Debug().Str("run_id", runID).Msg("worker finished")
		},
	}

	opts := syncer.Options{
		Src:         cfg.Src,
		Dest:        cfg.Dest,
		BlockSize:   cfg.BlockSize,
		Workers:     cfg.Workers,
		CreateDest:  cfg.CreateDest,
		Wait:        false,
		DryRun:      cfg.DryRun,
		HashAlgo:    cfg.HashAlgo,
		MonitorTick: cfg.MonitorInterval,
		SyncTick:    cfg.SyncInterval,
		Hooks:       h,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := startSync(ctx, cfg, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start sync")
	}

	if *showProgress {
		go runProgressTicker(ctx, driver)
	}

	metricsServer := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		logger.Info().Str("address", cfg.MetricsAddress).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	healthServer := &http.Server{Addr: cfg.HealthAddress, Handler: http.HandlerFunc(healthCheckHandler(driver, pub))}
	go func() {
		logger.Info().Str("address", cfg.HealthAddress).Msg("starting health check server")
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	doneChan := make(chan struct{})
	go func() {
		driver.Wait()
		close(doneChan)
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal, canceling run")
		driver.Cancel()
		<-doneChan
	case <-doneChan:
		logger.Info().Msg("sync run reached terminal state")
	}

	recordRunOutcome(driver, recorder, logger, runID, cfg, startedAt)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("health server shutdown error")
	}

	logger.Info().Msg("shutdown complete")
}

// recordRunOutcome runs exactly once, after the driver reaches a terminal
// state (all workers have returned), logging the run summary, updating the
// run-outcome metric, and persisting the summary to recorder. It must never
// be driven off the per-worker After hook, which fires once per worker.
func recordRunOutcome(d *syncer.Driver, recorder history.Recorder, logger *zerolog.Logger, runID string, cfg config.Config, startedAt time.Time) {
	snap := d.Status().Snap()
	outcome := "completed"
	if d.Canceled() {
		outcome = "canceled"
	}

	logger.Info().
		Str("run_id", runID).
		Str("outcome", outcome).
		Int64("same", snap.Blocks.Same).
		Int64("diff", snap.Blocks.Diff).
		Float64("rate", snap.Rate).
		Msg("sync finished")
	metrics.RecordRunOutcome(outcome)

	run := models.RunSummary{
		RunID:      runID,
		Src:        cfg.Src,
		Dest:       cfg.Dest,
		Mode:       cfg.Mode,
		Workers:    snap.Workers,
		BlockSize:  snap.BlockSize,
		SrcSize:    snap.SrcSize,
		DestSize:   snap.DestSize,
		Same:       snap.Blocks.Same,
		Diff:       snap.Blocks.Diff,
		Done:       snap.Blocks.Done,
		Rate:       snap.Rate,
		Canceled:   d.Canceled(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if recorder != nil {
		if err := recorder.Record(context.Background(), run); err != nil {
			logger.Error().Err(err).Str("run_id", runID).Msg("failed to record run summary")
		}
	}
}

// startSync dispatches to the engine named by cfg.Mode. local_to_remote and
// remote_to_local both drive the configured helper binaries through an
// ExecTransport; wiring a different transport.Transport (e.g. SSH) requires
// no change to the syncer package itself.
func startSync(ctx context.Context, cfg config.Config, opts syncer.Options) (*syncer.Driver, error) {
	switch cfg.Mode {
	case "", "local_to_local":
		return syncer.StartLocalToLocal(opts)
	case "local_to_remote":
		endpoint := remoteEndpoint(cfg)
		return syncer.StartLocalToRemote(ctx, opts, endpoint)
	case "remote_to_local":
		endpoint := remoteEndpoint(cfg)
		return syncer.StartRemoteToLocal(ctx, opts, endpoint)
	default:
		return nil, fmt.Errorf("blocksync: unknown sync.mode %q", cfg.Mode)
	}
}

func remoteEndpoint(cfg config.Config) syncer.RemoteEndpoint {
	readCmd := []string{"blocksync-readhelper"}
	writeCmd := []string{"blocksync-writehelper"}
	if len(cfg.TransportCommand) > 0 {
		readCmd = append(append([]string{}, cfg.TransportCommand...), "blocksync-readhelper")
		writeCmd = append(append([]string{}, cfg.TransportCommand...), "blocksync-writehelper")
	}
	return syncer.RemoteEndpoint{
		Transport:      transport.NewExecTransport(),
		ReadHelperCmd:  readCmd,
		WriteHelperCmd: writeCmd,
	}
}

func newRecorder(cfg config.Config) (history.Recorder, error) {
	switch cfg.HistoryBackend {
	case "postgres":
		return history.NewPostgresRecorder(context.Background(), cfg.HistoryDSN)
	case "bolt", "":
		return history.NewBoltRecorder(cfg.HistoryDSN)
	default:
		return nil, fmt.Errorf("blocksync: unknown history.backend %q", cfg.HistoryBackend)
	}
}

// runProgressTicker renders a single-line, carriage-return-updated
// progress meter to stderr, independent of any monitor hook a caller may
// have wired for metrics or the event bus. It exits once the driver
// finishes or ctx is canceled.
func runProgressTicker(ctx context.Context, d *syncer.Driver) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := d.Status().Snap()
			fmt.Fprintf(os.Stderr, "\rdone=%d same=%d diff=%d rate=%.1f%%",
				snap.Blocks.Done, snap.Blocks.Same, snap.Blocks.Diff, snap.Rate)
			if d.Finished() {
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	}
}

// healthCheckHandler answers 503 once the run is canceled or while the
// event bus connection is down, and 200 with whether the run has finished
// and its current progress counters otherwise.
func healthCheckHandler(d *syncer.Driver, pub *eventbus.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Canceled() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "canceled\n")
			return
		}
		if pub != nil && !pub.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "eventbus unhealthy\n")
			return
		}

		snap := d.Status().Snap()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "healthy\nfinished: %t\nsame: %d\ndiff: %d\ndone: %d\nrate: %.2f\n",
			d.Finished(), snap.Blocks.Same, snap.Blocks.Diff, snap.Blocks.Done, snap.Rate)
	}
}
