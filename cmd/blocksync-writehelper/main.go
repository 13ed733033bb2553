// Command blocksync-writehelper is the write helper: a standalone program
// run at the remote end, driven over its stdin by the local driver's
// remotehelper client. It writes nothing to stdout; all diagnostics go to
// stderr.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/0xkanth/blocksync/internal/blockio"
	"github.com/0xkanth/blocksync/internal/protocol"
	"github.com/0xkanth/blocksync/internal/util"
)

func main() {
	logger := util.InitLogger("blocksync-writehelper", os.Stderr)
	if err := run(os.Stdin); err != nil {
		logger.Error().Err(err).Msg("write helper failed")
		os.Exit(1)
	}
}

func run(in io.Reader) error {
	r := bufio.NewReader(in)

	path, err := protocol.ReadLine(r)
	if err != nil {
		return fmt.Errorf("reading path: %w", err)
	}
	createSize, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading create_size: %w", err)
	}
	blockSize, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading block_size: %w", err)
	}
	startpos, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading startpos: %w", err)
	}
	maxblock, err := protocol.ReadIntLine(r)
	if err != nil {
		return fmt.Errorf("reading maxblock: %w", err)
	}

	var c *blockio.ByteContainer
	if createSize > 0 {
		c, err = blockio.Create(path, createSize)
	} else {
		c, err = blockio.Open(path)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SeekTo(startpos); err != nil {
		return err
	}

	for i := int64(0); i < maxblock; i++ {
		d, err := protocol.ReadDirective(r)
		if err != nil {
			return fmt.Errorf("reading directive: %w", err)
		}
		if d == protocol.Diff {
			n, err := protocol.ReadIntLine(r)
			if err != nil {
				return fmt.Errorf("reading payload length: %w", err)
			}
			payload, err := protocol.ReadExact(r, n)
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			if err := c.WriteBlock(payload); err != nil {
				return err
			}
		} else {
			if err := c.SeekTo(startpos + (i+1)*blockSize); err != nil {
				return err
			}
		}
	}
	return nil
}
