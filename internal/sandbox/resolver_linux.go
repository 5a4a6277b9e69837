//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Resolve reads the tracee's string argument at argSlot and turns it
// into an absolute, normalized host path (HPN), plus whether the
// directory it was resolved relative to is itself inside the overlay.
//
// A failed string read is a soft-skip per the error taxonomy: it
// yields an empty HPN rather than an error, so the caller bypasses
// rewriting and lets the kernel report its own EFAULT/ENOENT.
func (c *Context) Resolve(tcp *Tracee, fd int, argSlot int) (hpn string, cwdInOverlay bool) {
	raw, err := tcp.ReadString(uintptr(tcp.Arg(argSlot)))
	if err != nil || raw == "" {
		return "", false
	}

	if strings.HasPrefix(raw, "/") {
		return normalizePath(raw), false
	}

	base, ok := c.baseDir(tcp, fd)
	if !ok {
		return "", false
	}
	if isInSboxfs(base, c.Root) {
		base = base[c.RootLen:]
		if base == "" {
			base = "/"
		}
		cwdInOverlay = true
	}
	return normalizePath(filepath.Join(base, raw)), cwdInOverlay
}

// baseDir resolves the directory a relative path argument is taken
// against: AT_FDCWD means the tracee's cwd, any other fd means that
// descriptor's target, both read via /proc.
func (c *Context) baseDir(tcp *Tracee, fd int) (string, bool) {
	var procPath string
	if fd == unix.AT_FDCWD {
		procPath = fmt.Sprintf("/proc/%d/cwd", tcp.Pid)
	} else {
		procPath = fmt.Sprintf("/proc/%d/fd/%d", tcp.Pid, fd)
	}
	target, err := os.Readlink(procPath)
	if err != nil {
		return "", false
	}
	return target, true
}

