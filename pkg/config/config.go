// Package config defines the typed view over the koanf instance
// internal/util builds from config.toml and the environment: one Config
// value per process, read once at startup.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/0xkanth/blocksync/internal/blocksize"
	"github.com/0xkanth/blocksync/internal/errs"
)

// Config is the resolved set of options a blocksync run needs, read out of
// a *koanf.Koanf built by util.InitConfig.
type Config struct {
	Src        string
	Dest       string
	Mode       string
	BlockSize  int64
	Workers    int
	CreateDest bool
	Wait       bool
	DryRun     bool
	HashAlgo   string

	MonitorInterval time.Duration
	SyncInterval    time.Duration

	TransportCommand []string

	MetricsAddress string
	HealthAddress  string

	HistoryBackend string // "bolt" or "postgres"
	HistoryDSN     string

	EventBusURL    string
	EventBusPrefix string
}

// Load reads the sync section of ko into a Config, resolving the
// human-readable block-size grammar via internal/blocksize.
func Load(ko *koanf.Koanf) (Config, error) {
	blockSize, err := blocksize.Parse(ko.String("sync.block_size"))
	if err != nil {
		return Config{}, fmt.Errorf("config: %w: %w", errs.ErrConfig, err)
	}

	workers := ko.Int("sync.workers")
	if workers < 1 {
		return Config{}, fmt.Errorf("config: workers must be >= 1, got %d: %w", workers, errs.ErrConfig)
	}

	cfg := Config{
		Src:              ko.String("sync.src"),
		Dest:             ko.String("sync.dest"),
		Mode:             ko.String("sync.mode"),
		BlockSize:        blockSize,
		Workers:          workers,
		CreateDest:       ko.Bool("sync.create_dest"),
		Wait:             ko.Bool("sync.wait"),
		DryRun:           ko.Bool("sync.dryrun"),
		HashAlgo:         defaultString(ko.String("sync.hash_algo"), "sha256"),
		MonitorInterval:  ko.Duration("sync.monitoring_interval"),
		SyncInterval:     ko.Duration("sync.sync_interval"),
		TransportCommand: ko.Strings("sync.transport_command"),
		MetricsAddress:   defaultString(ko.String("metrics.address"), ":9090"),
		HealthAddress:    defaultString(ko.String("health.address"), ":8080"),
		HistoryBackend:   defaultString(ko.String("history.backend"), "bolt"),
		HistoryDSN:       ko.String("history.dsn"),
		EventBusURL:      ko.String("eventbus.url"),
		EventBusPrefix:   defaultString(ko.String("eventbus.subject_prefix"), "BLOCKSYNC"),
	}

	if cfg.Src == "" || cfg.Dest == "" {
		return Config{}, fmt.Errorf("config: sync.src and sync.dest are required: %w", errs.ErrConfig)
	}

	return cfg, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
