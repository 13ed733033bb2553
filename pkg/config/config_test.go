package config

import (
	"testing"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, values map[string]interface{}) Config {
	t.Helper()
	ko := koanf.New(".")
	require.NoError(t, ko.Load(confmap.Provider(values, "."), nil))
	cfg, err := Load(ko)
	require.NoError(t, err)
	return cfg
}

func TestLoadResolvesHumanReadableBlockSize(t *testing.T) {
	cfg := loadFrom(t, map[string]interface{}{
		"sync.src":        "/tmp/a",
		"sync.dest":       "/tmp/b",
		"sync.block_size": "1MiB",
		"sync.workers":    4,
	})
	assert.Equal(t, int64(1<<20), cfg.BlockSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "sha256", cfg.HashAlgo)
}

func TestLoadRejectsMissingSrc(t *testing.T) {
	ko := koanf.New(".")
	require.NoError(t, ko.Load(confmap.Provider(map[string]interface{}{
		"sync.dest":       "/tmp/b",
		"sync.block_size": "1024",
		"sync.workers":    1,
	}, "."), nil))
	_, err := Load(ko)
	assert.Error(t, err)
}

func TestLoadRejectsZeroWorkers(t *testing.T) {
	ko := koanf.New(".")
	require.NoError(t, ko.Load(confmap.Provider(map[string]interface{}{
		"sync.src":        "/tmp/a",
		"sync.dest":       "/tmp/b",
		"sync.block_size": "1024",
		"sync.workers":    0,
	}, "."), nil))
	_, err := Load(ko)
	assert.Error(t, err)
}
