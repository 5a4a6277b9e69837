//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// openEnter implements the decision tree open/openat/creat all share,
// applied at syscall entry only — open never needs exit-time work
// because the fd it returns already points wherever the tracee's
// argument was hijacked to.
func (c *Context) openEnter(tcp *Tracee, fd int, arg int, oflag uint64) error {
	hpn, cwdInOverlay := c.Resolve(tcp, fd, arg)
	if hpn == "" {
		return nil
	}
	if isDevOrProc(hpn) {
		return nil
	}
	spn := c.SpnOf(hpn)

	if c.Tombstones.IsDeleted(hpn) {
		c.Log.Debug("open deleted file", "hpn", hpn)
		if err := c.SyncParentDirs(hpn, spn); err != nil {
			return err
		}
		return tcp.HijackStr(arg, spn)
	}

	if pathExists(spn) {
		c.Log.Debug("open exists in overlay", "spn", spn)
		return tcp.HijackStr(arg, spn)
	}

	accmode := oflag & unix.O_ACCMODE
	if accmode == unix.O_RDONLY {
		if cwdInOverlay {
			// the tracee's cwd is itself inside the overlay; rewrite
			// to the absolute HPN so the read resolves against the
			// host, ignoring the (overlay) cwd effect entirely.
			c.Log.Debug("open read-only, writing back to hpn", "hpn", hpn)
			return tcp.HijackStr(arg, hpn)
		}
		return nil
	}

	if oflag&unix.O_TRUNC != 0 {
		c.Log.Debug("open truncate", "spn", spn)
		if err := c.SyncParentDirs(hpn, spn); err != nil {
			return err
		}
		return tcp.HijackStr(arg, spn)
	}

	// any non-read-only, non-truncate opener (O_WRONLY or O_RDWR) is
	// the write path: copy host content in before redirecting there.
	c.Log.Debug("open read-write", "spn", spn)
	if err := c.SyncParentDirs(hpn, spn); err != nil {
		return err
	}
	if err := copyfile(hpn, spn); err != nil {
		c.Log.Debug("copyfile skipped on open", "hpn", hpn, "err", err)
	}
	return tcp.HijackStr(arg, spn)
}

// HandleOpen implements open(2).
func (c *Context) HandleOpen(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	return c.openEnter(tcp, AtFDCWD, 0, tcp.Arg(1))
}

// HandleOpenat implements openat(2).
func (c *Context) HandleOpenat(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	return c.openEnter(tcp, int(tcp.Arg(0)), 1, tcp.Arg(2))
}

// HandleCreat implements creat(2): creat(path, mode) is equivalent to
// open(path, O_CREAT|O_TRUNC|O_WRONLY, mode), but the syscall itself
// always creates the file, so it is always rewritten unconditionally.
func (c *Context) HandleCreat(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	return c.RewritePath(tcp, AtFDCWD, 0, Force)
}

// HandleMkdir implements mkdir(2).
func (c *Context) HandleMkdir(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	return c.RewritePath(tcp, AtFDCWD, 0, Force)
}

// HandleMkdirat implements mkdirat(2).
func (c *Context) HandleMkdirat(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	return c.RewritePath(tcp, int(tcp.Arg(0)), 1, Force)
}
