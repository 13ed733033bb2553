package syncer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/0xkanth/blocksync/internal/blockio"
	"github.com/0xkanth/blocksync/internal/coordinator"
	"github.com/0xkanth/blocksync/internal/errs"
	"github.com/0xkanth/blocksync/internal/partition"
	"github.com/0xkanth/blocksync/internal/status"
)

// StartLocalToLocal stats both files, optionally creates dest, partitions
// the work, and spawns one goroutine per worker running the local-to-local
// compare-and-repair loop.
func StartLocalToLocal(opts Options) (*Driver, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("syncer: worker count %d: %w", opts.Workers, errs.ErrConfig)
	}

	src, err := blockio.Open(opts.Src)
	if err != nil {
		return nil, err
	}
	src.HintSequential()

	var dest *blockio.ByteContainer
	if opts.CreateDest {
		dest, err = blockio.Create(opts.Dest, src.Size())
	} else {
		dest, err = blockio.Open(opts.Dest)
	}
	if err != nil {
		src.Close()
		return nil, err
	}

	st := status.New(opts.Workers, opts.BlockSize, src.Size(), dest.Size())
	coord := coordinator.New()
	d := newDriver(coord, st, opts.Hooks)

	coord.Add(opts.Workers)
	for id := 1; id <= opts.Workers; id++ {
		rng := partition.Split(id, opts.Workers, src.Size(), opts.BlockSize)
		go runLocalWorker(coord, st, opts, rng)
	}
	d.runWhenDone()

	// Both handles were opened only to learn their sizes; each worker opens
	// its own handle scoped to its own loop.
	src.Close()
	dest.Close()

	if opts.Wait {
		d.Wait()
	}
	return d, nil
}

func runLocalWorker(coord *coordinator.Coordinator, st *status.Status, opts Options, rng partition.Range) {
	defer coord.Done()
	opts.Hooks.RunBefore()

	src, err := blockio.Open(opts.Src)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer src.Close()

	dest, err := blockio.Open(opts.Dest)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer dest.Close()

	if err := src.SeekTo(rng.StartPos); err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	if err := dest.SeekTo(rng.StartPos); err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}

	lastTick := time.Now()
	for i := int64(0); i < rng.MaxBlock; i++ {
		coord.WaitIfSuspended()
		if coord.Canceled() {
			break
		}

		srcBlock, srcErr := src.ReadBlock(opts.BlockSize)
		if srcErr != nil && srcErr != io.EOF {
			opts.Hooks.RunOnError(srcErr, st.Snap())
			break
		}
		destBlock, destErr := dest.ReadBlock(opts.BlockSize)
		if destErr != nil && destErr != io.EOF {
			opts.Hooks.RunOnError(destErr, st.Snap())
			break
		}
		if srcErr == io.EOF || destErr == io.EOF {
			break
		}

		if bytes.Equal(srcBlock, destBlock) {
			st.Add(status.Same)
		} else {
			st.Add(status.Diff)
			if !opts.DryRun {
				if err := dest.SeekTo(rng.StartPos + i*opts.BlockSize); err != nil {
					opts.Hooks.RunOnError(err, st.Snap())
					break
				}
				if err := dest.WriteBlock(srcBlock); err != nil {
					opts.Hooks.RunOnError(err, st.Snap())
					break
				}
			}
		}

		if opts.MonitorTick > 0 && time.Since(lastTick) >= opts.MonitorTick {
			opts.Hooks.RunMonitor(st.Snap())
			lastTick = time.Now()
		}
		if opts.SyncTick > 0 {
			time.Sleep(opts.SyncTick)
		}
	}

	src.HintDontNeed(rng.StartPos, rng.MaxBlock*opts.BlockSize)
	dest.HintDontNeed(rng.StartPos, rng.MaxBlock*opts.BlockSize)
	opts.Hooks.RunAfter(st.Snap())
}
