// Package syncer implements the three differential sync engines:
// local-to-local, local-to-remote, and remote-to-local. It partitions one
// sync run across worker_count goroutines, runs each worker's
// read/compare/write loop, and joins or detaches from the caller.
package syncer

import (
	"time"

	"github.com/0xkanth/blocksync/internal/hooks"
)

// Options configures one sync run.
type Options struct {
	Src         string
	Dest        string
	BlockSize   int64
	Workers     int
	CreateDest  bool
	Wait        bool
	DryRun      bool
	HashAlgo    string
	MonitorTick time.Duration
	SyncTick    time.Duration
	Hooks       hooks.Hooks
}

// Mode selects which of the three engines a driver call uses.
type Mode int

const (
	// LocalToLocal compares and repairs two local files.
	LocalToLocal Mode = iota
	// LocalToRemote pushes a local source's diffs to a remote destination.
	LocalToRemote
	// RemoteToLocal pulls a remote source's diffs into a local destination.
	RemoteToLocal
)
