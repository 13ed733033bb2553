// Command blocksync-monitor subscribes to the progress stream a fleet of
// blocksync runs publish to and persists each tick's snapshot into a shared
// run history, so many concurrent runs can be watched from one place
// instead of tailing each process's own stdout/logs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xkanth/blocksync/internal/eventbus"
	"github.com/0xkanth/blocksync/internal/history"
	"github.com/0xkanth/blocksync/internal/util"
	"github.com/0xkanth/blocksync/pkg/models"
)

var (
	eventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocksync_monitor_events_consumed_total",
		Help: "Total number of progress events consumed from the event bus",
	}, []string{"run_id"})

	consumeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocksync_monitor_consume_errors_total",
		Help: "Total number of progress event consume errors",
	}, []string{"error_type"})
)

const serviceName = "blocksync-monitor"

func main() {
	logger := util.InitLogger(serviceName, os.Stdout)
	logger.Info().Msg("starting blocksync monitor")

	ko := util.InitConfig(logger, "config.toml")
	util.UpdateLogLevel(ko, logger)

	recorder, err := newRecorder(ko)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize history recorder")
	}

	natsURL := ko.String("eventbus.url")
	nc, err := nats.Connect(natsURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", natsURL).Msg("failed to connect to nats")
	}
	defer nc.Close()
	logger.Info().Str("url", natsURL).Msg("connected to nats")

	js, err := jetstream.New(nc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jetstream context")
	}

	streamName := defaultString(ko.String("eventbus.subject_prefix"), "BLOCKSYNC")
	consumerName := defaultString(ko.String("monitor.consumer_name"), "blocksync-monitor")

	consumer, err := js.CreateOrUpdateConsumer(context.Background(), streamName, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    3,
		AckWait:       30 * time.Second,
		FilterSubject: fmt.Sprintf("%s.>", streamName),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create consumer")
	}
	logger.Info().Str("stream", streamName).Str("consumer", consumerName).Msg("created consumer")

	metricsAddr := defaultString(ko.String("metrics.address"), ":9091")
	metricsServer := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		logger.Info().Str("address", metricsAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	consCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := processProgress(ctx, recorder, msg); err != nil {
			consumeErrors.WithLabelValues("process_progress").Inc()
			logger.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process progress event")
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start consuming")
	}
	defer consCtx.Stop()

	logger.Info().Msg("monitor started, waiting for progress events")

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
	}

	logger.Info().Msg("shutdown complete")
}

// processProgress records one progress tick. Only the latest tick per run
// matters, so Record's upsert semantics make re-delivery harmless.
// StartedAt comes from the event, not from whenever this tick happened to
// be consumed; FinishedAt is left zero until the tick reporting 100% rate
// arrives, so List's "sort by FinishedAt" guidance stays meaningful instead
// of every in-flight run sorting as already finished.
func processProgress(ctx context.Context, recorder history.Recorder, msg jetstream.Msg) error {
	var event eventbus.ProgressEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		return fmt.Errorf("unmarshal progress event: %w", err)
	}

	eventsConsumed.WithLabelValues(event.RunID).Inc()

	run := models.RunSummary{
		RunID:     event.RunID,
		Src:       event.Src,
		Dest:      event.Dest,
		Workers:   event.Snap.Workers,
		BlockSize: event.Snap.BlockSize,
		SrcSize:   event.Snap.SrcSize,
		DestSize:  event.Snap.DestSize,
		Same:      event.Snap.Blocks.Same,
		Diff:      event.Snap.Blocks.Diff,
		Done:      event.Snap.Blocks.Done,
		Rate:      event.Snap.Rate,
		StartedAt: event.StartedAt,
	}
	if event.Snap.Rate >= 100 {
		run.FinishedAt = time.Now()
	}
	return recorder.Record(ctx, run)
}

func newRecorder(ko *koanf.Koanf) (history.Recorder, error) {
	backend := defaultString(ko.String("history.backend"), "bolt")
	switch backend {
	case "postgres":
		return history.NewPostgresRecorder(context.Background(), ko.String("history.dsn"))
	case "bolt":
		return history.NewBoltRecorder(defaultString(ko.String("history.dsn"), "blocksync-monitor.db"))
	default:
		return nil, fmt.Errorf("blocksync-monitor: unknown history.backend %q", backend)
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
