package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/0xkanth/blocksync/internal/blockio"
	"github.com/0xkanth/blocksync/internal/coordinator"
	"github.com/0xkanth/blocksync/internal/errs"
	"github.com/0xkanth/blocksync/internal/hashalgo"
	"github.com/0xkanth/blocksync/internal/partition"
	"github.com/0xkanth/blocksync/internal/remotehelper"
	"github.com/0xkanth/blocksync/internal/status"
	"github.com/0xkanth/blocksync/internal/transport"
)

// RemoteEndpoint names the helper binaries and the transport used to reach
// them. The core treats "remote" as nothing more than a command a
// Transport can spawn; secure connection setup is the Transport's concern.
type RemoteEndpoint struct {
	Transport      transport.Transport
	ReadHelperCmd  []string
	WriteHelperCmd []string
}

// StartLocalToRemote hashes the local source and drives a read-helper and a
// write-helper session per worker, both addressing the same remote
// destination path.
func StartLocalToRemote(ctx context.Context, opts Options, remoteDest RemoteEndpoint) (*Driver, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("syncer: worker count %d: %w", opts.Workers, errs.ErrConfig)
	}
	algo, err := hashalgo.Get(opts.HashAlgo)
	if err != nil {
		return nil, fmt.Errorf("syncer: %w", err)
	}

	src, err := blockio.Open(opts.Src)
	if err != nil {
		return nil, err
	}
	src.HintSequential()
	srcSize := src.Size()
	src.Close()

	createSize := int64(0)
	if opts.CreateDest {
		createSize = srcSize
	}

	st := status.New(opts.Workers, opts.BlockSize, srcSize, createSize)
	coord := coordinator.New()
	d := newDriver(coord, st, opts.Hooks)

	coord.Add(opts.Workers)
	for id := 1; id <= opts.Workers; id++ {
		rng := partition.Split(id, opts.Workers, srcSize, opts.BlockSize)
		go runLocalToRemoteWorker(ctx, coord, st, opts, remoteDest, algo, createSize, rng)
	}
	d.runWhenDone()

	if opts.Wait {
		d.Wait()
	}
	return d, nil
}

func runLocalToRemoteWorker(ctx context.Context, coord *coordinator.Coordinator, st *status.Status, opts Options, remote RemoteEndpoint, algo hashalgo.Algorithm, createSize int64, rng partition.Range) {
	defer coord.Done()
	opts.Hooks.RunBefore()

	src, err := blockio.Open(opts.Src)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer src.Close()
	if err := src.SeekTo(rng.StartPos); err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}

	readerSess, err := remote.Transport.Spawn(ctx, remote.ReadHelperCmd[0], remote.ReadHelperCmd[1:]...)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	reader, _, err := remotehelper.DialReadHelper(readerSess, opts.Dest, opts.BlockSize, opts.HashAlgo, rng.StartPos, rng.MaxBlock, algo.DigestSize)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer reader.Close()

	writerSess, err := remote.Transport.Spawn(ctx, remote.WriteHelperCmd[0], remote.WriteHelperCmd[1:]...)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	writer, err := remotehelper.DialWriteHelper(writerSess, opts.Dest, createSize, opts.BlockSize, rng.StartPos, rng.MaxBlock)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer writer.Close()

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
		if srcErr == io.EOF {
			break
		}

		destDigest, err := reader.NextDigest()
		if err != nil {
			opts.Hooks.RunOnError(err, st.Snap())
			break
		}
		if err := reader.Skip(); err != nil {
			opts.Hooks.RunOnError(err, st.Snap())
			break
		}

		srcDigest := algo.Sum(srcBlock)
		if bytes.Equal(srcDigest, destDigest) {
			st.Add(status.Same)
			if err := writer.Skip(); err != nil {
				opts.Hooks.RunOnError(err, st.Snap())
				break
			}
		} else {
			st.Add(status.Diff)
			if !opts.DryRun {
				if err := writer.Diff(srcBlock); err != nil {
					opts.Hooks.RunOnError(err, st.Snap())
					break
				}
			} else if err := writer.Skip(); err != nil {
				opts.Hooks.RunOnError(err, st.Snap())
				break
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
	opts.Hooks.RunAfter(st.Snap())
}

// StartRemoteToLocal drives one read-helper session against the remote
// source path and writes diffs into a local destination handle.
func StartRemoteToLocal(ctx context.Context, opts Options, remoteSrc RemoteEndpoint) (*Driver, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("syncer: worker count %d: %w", opts.Workers, errs.ErrConfig)
	}
	algo, err := hashalgo.Get(opts.HashAlgo)
	if err != nil {
		return nil, fmt.Errorf("syncer: %w", err)
	}

	probeSess, err := remoteSrc.Transport.Spawn(ctx, remoteSrc.ReadHelperCmd[0], remoteSrc.ReadHelperCmd[1:]...)
	if err != nil {
		return nil, err
	}
	_, srcSize, err := remotehelper.DialReadHelper(probeSess, opts.Src, opts.BlockSize, opts.HashAlgo, 0, 0, algo.DigestSize)
	probeSess.Close()
	if err != nil {
		return nil, err
	}

	var dest *blockio.ByteContainer
	if opts.CreateDest {
		dest, err = blockio.Create(opts.Dest, srcSize)
	} else {
		dest, err = blockio.Open(opts.Dest)
	}
	if err != nil {
		return nil, err
	}
	destSize := dest.Size()
	dest.Close()

	st := status.New(opts.Workers, opts.BlockSize, srcSize, destSize)
	coord := coordinator.New()
	d := newDriver(coord, st, opts.Hooks)

	coord.Add(opts.Workers)
	for id := 1; id <= opts.Workers; id++ {
		rng := partition.Split(id, opts.Workers, srcSize, opts.BlockSize)
		go runRemoteToLocalWorker(ctx, coord, st, opts, remoteSrc, algo, rng)
	}
	d.runWhenDone()

	if opts.Wait {
		d.Wait()
	}
	return d, nil
}

func runRemoteToLocalWorker(ctx context.Context, coord *coordinator.Coordinator, st *status.Status, opts Options, remote RemoteEndpoint, algo hashalgo.Algorithm, rng partition.Range) {
	defer coord.Done()
	opts.Hooks.RunBefore()

	dest, err := blockio.Open(opts.Dest)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer dest.Close()
	if err := dest.SeekTo(rng.StartPos); err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}

	readerSess, err := remote.Transport.Spawn(ctx, remote.ReadHelperCmd[0], remote.ReadHelperCmd[1:]...)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	reader, _, err := remotehelper.DialReadHelper(readerSess, opts.Src, opts.BlockSize, opts.HashAlgo, rng.StartPos, rng.MaxBlock, algo.DigestSize)
	if err != nil {
		opts.Hooks.RunOnError(err, st.Snap())
		opts.Hooks.RunAfter(st.Snap())
		return
	}
	defer reader.Close()

	lastTick := time.Now()
	for i := int64(0); i < rng.MaxBlock; i++ {
		coord.WaitIfSuspended()
		if coord.Canceled() {
			break
		}

		destBlock, destErr := dest.ReadBlock(opts.BlockSize)
		if destErr != nil && destErr != io.EOF {
			opts.Hooks.RunOnError(destErr, st.Snap())
			break
		}
		if destErr == io.EOF {
			break
		}

		remoteDigest, err := reader.NextDigest()
		if err != nil {
			opts.Hooks.RunOnError(err, st.Snap())
			break
		}

		destDigest := algo.Sum(destBlock)
		if bytes.Equal(destDigest, remoteDigest) {
			st.Add(status.Same)
			if err := reader.Skip(); err != nil {
				opts.Hooks.RunOnError(err, st.Snap())
				break
			}
		} else {
			st.Add(status.Diff)
			block, err := reader.Diff()
			if err != nil {
				opts.Hooks.RunOnError(err, st.Snap())
				break
			}
			if err := dest.SeekTo(rng.StartPos + i*opts.BlockSize); err != nil {
				opts.Hooks.RunOnError(err, st.Snap())
				break
			}
			if err := dest.WriteBlock(block); err != nil {
				opts.Hooks.RunOnError(err, st.Snap())
				break
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

	dest.HintDontNeed(rng.StartPos, rng.MaxBlock*opts.BlockSize)
	opts.Hooks.RunAfter(st.Snap())
}
