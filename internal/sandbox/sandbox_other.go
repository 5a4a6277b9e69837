//go:build !linux

package sandbox

import (
	"fmt"
	"io"
	"runtime"
)

// Tracee is an empty stand-in on non-Linux platforms: ptrace-based
// syscall interception is a Linux-only mechanism.
type Tracee struct {
	Pid int
}

// Tracer mirrors the Linux Tracer's exported surface so callers can
// build against any GOOS, failing only when Run is actually invoked.
type Tracer struct {
	Decisions []CommitDecision
}

// NewTracer returns a Tracer whose Run always fails on this platform.
func NewTracer(_ *Context) *Tracer {
	return &Tracer{}
}

// Run always fails: sbox requires ptrace(2), which only Linux exposes.
func (tr *Tracer) Run(string, []string, []string, io.Reader, io.Writer, io.Writer) (int, error) {
	return -1, fmt.Errorf("sandbox: syscall interception is unsupported on %s (linux only)", runtime.GOOS)
}
