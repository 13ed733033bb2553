// Package remotehelper implements the driver-side half of the wire
// protocol: opening a handshake with a read or write helper process and
// driving its per-block request/response loop.
//
// Framing: every DIFF payload is preceded by an explicit `len\n` decimal
// line, unconditionally. Block payloads are arbitrary binary data, so a
// reader cannot reliably distinguish "this is a length line" from "this is
// the start of a block that happens to start with ASCII digits" — the
// length line must always be present, not conditional on the block being
// short. Both helpers and both workers apply this rule consistently.
package remotehelper

import (
	"bufio"
	"fmt"
	"io"

	"github.com/0xkanth/blocksync/internal/errs"
	"github.com/0xkanth/blocksync/internal/protocol"
	"github.com/0xkanth/blocksync/internal/transport"
)

// ReadHelper is the driver-side handle to a spawned read helper process.
type ReadHelper struct {
	sess       *transport.Session
	digestSize int
	blockSize  int64
}

// DialReadHelper performs the read-helper handshake: sends path, reads back
// the remote size, then sends block_size/hash_algo/startpos/maxblock.
func DialReadHelper(sess *transport.Session, path string, blockSize int64, hashAlgo string, startpos, maxblock int64, digestSize int) (*ReadHelper, int64, error) {
	if err := protocol.WriteTextLine(sess.Stdin, path); err != nil {
		return nil, 0, wrapTransport("sending path", err)
	}
	size, err := protocol.ReadIntLine(sess.Stdout)
	if err != nil {
		return nil, 0, wrapProtocol("reading remote size", err)
	}
	if err := writeHandshakeTail(sess.Stdin, blockSize, hashAlgo, startpos, maxblock); err != nil {
		return nil, 0, wrapTransport("sending read handshake tail", err)
	}
	return &ReadHelper{sess: sess, digestSize: digestSize, blockSize: blockSize}, size, nil
}

func writeHandshakeTail(w io.Writer, blockSize int64, hashAlgo string, startpos, maxblock int64) error {
	if err := protocol.WriteLine(w, blockSize); err != nil {
		return err
	}
	if err := protocol.WriteTextLine(w, hashAlgo); err != nil {
		return err
	}
	if err := protocol.WriteLine(w, startpos); err != nil {
		return err
	}
	return protocol.WriteLine(w, maxblock)
}

// NextDigest reads the raw digest of the next remote block.
func (h *ReadHelper) NextDigest() ([]byte, error) {
	b, err := protocol.ReadExact(h.sess.Stdout, int64(h.digestSize))
	if err != nil {
		return nil, wrapProtocol("reading digest", err)
	}
	return b, nil
}

// Skip tells the helper the corresponding block matched; no payload
// follows.
func (h *ReadHelper) Skip() error {
	if err := protocol.WriteDirective(h.sess.Stdin, protocol.Skip); err != nil {
		return wrapTransport("sending skip", err)
	}
	return nil
}

// Diff tells the helper the corresponding block differs and reads back the
// raw remote block that follows, length-prefixed on the wire.
func (h *ReadHelper) Diff() ([]byte, error) {
	if err := protocol.WriteDirective(h.sess.Stdin, protocol.Diff); err != nil {
		return nil, wrapTransport("sending diff", err)
	}
	return readFramedPayload(h.sess.Stdout)
}

// Close releases the underlying session.
func (h *ReadHelper) Close() error {
	if err := h.sess.Close(); err != nil {
		return wrapTransport("closing read helper", err)
	}
	return nil
}

// WriteHelper is the driver-side handle to a spawned write helper process.
type WriteHelper struct {
	sess      *transport.Session
	blockSize int64
}

// DialWriteHelper performs the write-helper handshake: sends path,
// create_size, block_size, startpos, maxblock.
func DialWriteHelper(sess *transport.Session, path string, createSize, blockSize, startpos, maxblock int64) (*WriteHelper, error) {
	if err := protocol.WriteTextLine(sess.Stdin, path); err != nil {
		return nil, wrapTransport("sending path", err)
	}
	if err := protocol.WriteLine(sess.Stdin, createSize); err != nil {
		return nil, wrapTransport("sending create_size", err)
	}
	if err := protocol.WriteLine(sess.Stdin, blockSize); err != nil {
		return nil, wrapTransport("sending block_size", err)
	}
	if err := protocol.WriteLine(sess.Stdin, startpos); err != nil {
		return nil, wrapTransport("sending startpos", err)
	}
	if err := protocol.WriteLine(sess.Stdin, maxblock); err != nil {
		return nil, wrapTransport("sending maxblock", err)
	}
	return &WriteHelper{sess: sess, blockSize: blockSize}, nil
}

// Skip tells the helper to advance its write position by block_size
// without writing a payload.
func (w *WriteHelper) Skip() error {
	if err := protocol.WriteDirective(w.sess.Stdin, protocol.Skip); err != nil {
		return wrapTransport("sending skip", err)
	}
	return nil
}

// Diff sends a changed block's payload, always length-prefixed (the final
// block of a source that is not an exact multiple of block_size is simply
// shorter).
func (w *WriteHelper) Diff(payload []byte) error {
	if err := protocol.WriteDirective(w.sess.Stdin, protocol.Diff); err != nil {
		return wrapTransport("sending diff", err)
	}
	return writeFramedPayload(w.sess.Stdin, payload)
}

// Close releases the underlying session.
func (w *WriteHelper) Close() error {
	if err := w.sess.Close(); err != nil {
		return wrapTransport("closing write helper", err)
	}
	return nil
}

// readFramedPayload reads a helper's block payload: a decimal `len\n` line
// followed by exactly that many raw bytes.
func readFramedPayload(r *bufio.Reader) ([]byte, error) {
	n, err := protocol.ReadIntLine(r)
	if err != nil {
		return nil, wrapProtocol("reading payload length", err)
	}
	return protocol.ReadExact(r, n)
}

// writeFramedPayload mirrors readFramedPayload.
func writeFramedPayload(w io.Writer, payload []byte) error {
	if err := protocol.WriteLine(w, int64(len(payload))); err != nil {
		return wrapTransport("sending payload length", err)
	}
	if _, err := w.Write(payload); err != nil {
		return wrapTransport("sending payload", err)
	}
	return nil
}

func wrapTransport(action string, err error) error {
	return fmt.Errorf("remotehelper: %s: %w: %w", action, errs.ErrTransport, err)
}

func wrapProtocol(action string, err error) error {
	return fmt.Errorf("remotehelper: %s: %w: %w", action, errs.ErrProtocol, err)
}
