// Command blocksync-readhelper is the read helper: a standalone program
// run at the remote end, driven over its stdin/stdout by the local
// driver's remotehelper client. It must never write anything to stdout
// except the wire protocol itself — all diagnostics go to stderr.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/0xkanth/blocksync/internal/blockio"
	"github.com/0xkanth/blocksync/internal/hashalgo"
	"github.com/0xkanth/blocksync/internal/protocol"
	"github.com/0xkanth/blocksync/internal/util"
)

func main() {
	logger := util.InitLogger("blocksync-readhelper", os.Stderr)
	if err := run(os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("read helper failed")
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)

	path, err := protocol.ReadLine(r)
	if err != nil {
		return fmt.Errorf("reading path: %w", err)
	}

	c, err := blockio.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := protocol.WriteLine(out, c.Size()); err != nil {
		return fmt.Errorf("writing size: %w", err)
	}

	blockSize, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading block_size: %w", err)
	}
	hashAlgoName, err := protocol.ReadLine(r)
	if err != nil {
		return fmt.Errorf("reading hash_algo: %w", err)
	}
	startpos, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading startpos: %w", err)
	}
	maxblock, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading maxblock: %w", err)
	}

	algo, err := hashalgo.Get(hashAlgoName)
	if err != nil {
		return err
	}

	if err := c.SeekTo(startpos); err != nil {
		return err
	}

	for i := int64(0); i < maxblock; i++ {
		block, err := c.ReadBlock(blockSize)
		if block == nil {
			if err != nil && err != io.EOF {
				return fmt.Errorf("reading block: %w", err)
			}
			break
		}

		digest := algo.Sum(block)
		if _, err := out.Write(digest); err != nil {
			return fmt.Errorf("writing digest: %w", err)
		}

		d, err := protocol.ReadDirective(r)
		if err != nil {
			return fmt.Errorf("reading directive: %w", err)
		}
		if d == protocol.Diff {
			if err := protocol.WriteLine(out, int64(len(block))); err != nil {
				return fmt.Errorf("writing payload length: %w", err)
			}
			if _, err := out.Write(block); err != nil {
				return fmt.Errorf("writing block: %w", err)
			}
		}
	}
	return nil
}
