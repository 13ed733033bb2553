// Package eventbus publishes sync progress to NATS JetStream, letting a
// separate monitor process (cmd/blocksync-monitor) observe many concurrent
// blocksync runs across a fleet without tailing each one's stdout.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/0xkanth/blocksync/internal/status"
)

const (
	streamName           = "BLOCKSYNC"
	streamSubjectPattern = "BLOCKSYNC.>"
	streamCreateTimeout  = 10 * time.Second
)

// ProgressEvent is the payload published for each monitor tick. StartedAt
// is the run's actual start time (not the tick's), so a consumer recording
// ticks into a shared store can tell a run's age apart from when it last
// reported in.
type ProgressEvent struct {
	RunID     string          `json:"run_id"`
	Src       string          `json:"src"`
	Dest      string          `json:"dest"`
	StartedAt time.Time       `json:"started_at"`
	Snap      status.Snapshot `json:"snap"`
}

// Publisher publishes progress events to NATS JetStream, deduplicated by
// run ID and blocks-done count.
type Publisher struct {
	js     jetstream.JetStream
	nc     *nats.Conn
	logger *zerolog.Logger
	prefix string
}

// NewPublisher connects to NATS and ensures the blocksync progress stream
// exists.
func NewPublisher(natsURL string, persistDuration time.Duration, subjectPrefix string, logger *zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("blocksync"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connecting to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("eventbus: creating jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamCreateTimeout)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       streamName,
		Subjects:   []string{streamSubjectPattern},
		MaxAge:     persistDuration,
		Storage:    jetstream.FileStorage,
		Duplicates: 5 * time.Minute,
		Retention:  jetstream.LimitsPolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("eventbus: creating stream: %w", err)
	}

	logger.Info().
		Str("stream", streamName).
		Str("subjects", streamSubjectPattern).
		Dur("max_age", persistDuration).
		Msg("eventbus publisher initialized")

	return &Publisher{js: js, nc: nc, logger: logger, prefix: subjectPrefix}, nil
}

// Publish sends one progress event. The subject is
// {prefix}.{runID}.progress; the message ID
// ({runID}-{done}) deduplicates a tick republished after a reconnect.
func (p *Publisher) Publish(ctx context.Context, runID, src, dest string, startedAt time.Time, snap status.Snapshot) error {
	subject := fmt.Sprintf("%s.%s.progress", p.prefix, runID)

	data, err := json.Marshal(ProgressEvent{RunID: runID, Src: src, Dest: dest, StartedAt: startedAt, Snap: snap})
	if err != nil {
		return fmt.Errorf("eventbus: marshal progress event: %w", err)
	}

	msgID := fmt.Sprintf("%s-%d", runID, snap.Blocks.Done)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID)); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Str("run_id", runID).Msg("failed to publish progress")
		return fmt.Errorf("eventbus: publishing progress: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Int64("done", snap.Blocks.Done).Msg("progress published")
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info().Msg("eventbus publisher closed")
	}
}

// Healthy reports whether the NATS connection is currently up.
func (p *Publisher) Healthy() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// MonitorHook adapts a Publisher into a hooks.MonitorFunc, letting a driver
// run wire a live progress feed with a single assignment:
// opts.Hooks.Monitor = eventbus.MonitorHook(pub, runID, src, dest, startedAt).
func MonitorHook(p *Publisher, runID, src, dest string, startedAt time.Time) func(status.Snapshot) {
	return func(snap status.Snapshot) {
		if err := p.Publish(context.Background(), runID, src, dest, startedAt, snap); err != nil {
			p.logger.Warn().Err(err).Str("run_id", runID).Msg("progress publish failed")
		}
	}
}
