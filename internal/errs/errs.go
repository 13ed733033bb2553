// Package errs defines blocksync's error kinds: ErrConfig, ErrIO,
// ErrProtocol, ErrTransport, and ErrCanceled. Each is a sentinel usable
// with errors.Is, wrapped around the underlying cause with fmt.Errorf
// ("...: %w", err) at the call site.
package errs

import "errors"

var (
	// ErrConfig marks a bad block-size string, missing source/destination,
	// or worker count < 1.
	ErrConfig = errors.New("blocksync: config error")
	// ErrIO marks a failed open/read/write/seek/truncate.
	ErrIO = errors.New("blocksync: io error")
	// ErrProtocol marks a helper returning fewer bytes than requested, or
	// a non-directive byte.
	ErrProtocol = errors.New("blocksync: protocol error")
	// ErrTransport marks a disconnected remote channel.
	ErrTransport = errors.New("blocksync: transport error")
	// ErrCanceled marks a cooperative cancel observed mid-loop. It is
	// never passed to Hooks.OnError: workers treat it as a plain exit
	// signal.
	ErrCanceled = errors.New("blocksync: sync canceled")
)
