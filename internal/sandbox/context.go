// Package sandbox implements the syscall-interception, path-rewriting
// core of sbox: given a traced process stopped at a filesystem
// syscall, it decides whether the call should be redirected into a
// copy-on-write overlay, records deletions as in-memory tombstones,
// and filters directory listings and getcwd results so the tracee
// only ever observes host-shaped paths.
package sandbox

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/czj19920117/mbox/internal/logger"
)

// Context replaces the original C implementation's process-wide ROOT
// and tombstone globals with an explicit value threaded through every
// handler. One Context is shared by every Tracee the tracer manages;
// tracees themselves are serialized by the tracer loop, so Context
// needs no internal locking.
type Context struct {
	// Root is the absolute path of the overlay directory (ROOT).
	Root string
	// RootLen is len(Root), kept alongside for the getcwd
	// suffix-length arithmetic the original source performs.
	RootLen int
	// Interactive controls whether the tracer runs the commit UI once
	// the tracee exits.
	Interactive bool

	// CPULimitSeconds and MemLimitBytes bound the tracee via prlimit(2)
	// on Linux. Zero leaves the corresponding limit untouched.
	CPULimitSeconds int
	MemLimitBytes   int64

	// PTY allocates a pseudo-terminal for the tracee instead of
	// inheriting plain pipes, for interactive programs (shells, REPLs).
	PTY bool

	Tombstones *Tombstones

	Log *slog.Logger
}

// NewContext validates root and returns a ready-to-use Context.
func NewContext(root string, interactive bool) (*Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve root %s: %w", root, err)
	}
	return &Context{
		Root:        abs,
		RootLen:     len(abs),
		Interactive: interactive,
		Tombstones:  NewTombstones(),
		Log:         logger.Cat("sandbox"),
	}, nil
}

// SpnOf returns the overlay path corresponding to hpn: ROOT ++ HPN.
func (c *Context) SpnOf(hpn string) string {
	return c.Root + hpn
}
