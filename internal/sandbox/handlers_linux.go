//go:build linux

package sandbox

// RewritePath is the unified rewrite primitive nearly every handler in
// this package reduces to: resolve the path argument at arg under fd,
// decide whether the overlay should shadow it given policy, and if so
// synthesize overlay parent directories, copy host content in for
// Write, and hijack the argument to point at the overlay path.
func (c *Context) RewritePath(tcp *Tracee, fd int, arg int, policy Policy) error {
	hpn, _ := c.Resolve(tcp, fd, arg)
	if hpn == "" {
		return nil // soft skip: unreadable tracee string
	}
	if isDevOrProc(hpn) {
		return nil // pass-through: never virtualize /dev or /proc
	}
	spn := c.SpnOf(hpn)

	rewrite := policy != Read || c.Tombstones.IsDeleted(hpn) || pathExists(spn)
	if !rewrite {
		return nil
	}

	if policy != Read {
		if err := c.SyncParentDirs(hpn, spn); err != nil {
			return err
		}
	}
	if policy == Write {
		if err := copyfile(hpn, spn); err != nil {
			c.Log.Debug("copyfile skipped", "hpn", hpn, "spn", spn, "err", err)
		}
	}

	if err := tcp.HijackStr(arg, spn); err != nil {
		return err
	}
	c.Log.Debug("rewrite", "arg", arg, "spn", spn, "policy", policy)
	return nil
}

// HandleSinglePath runs RewritePath at syscall entry for handlers that
// take exactly one path argument and need no exit-time bookkeeping —
// the single-path/at-style family (stat, access, chmod, chown, utime,
// xattrs, mknod, execve, readlink, statfs, uselib, ...).
func (c *Context) HandleSinglePath(tcp *Tracee, fd int, arg int, policy Policy) error {
	if !tcp.Entering {
		return nil
	}
	return c.RewritePath(tcp, fd, arg, policy)
}

// HandleAcct implements acct(2): a NULL path disables accounting and
// is a pure pass-through; any other path is rewritten for write.
func (c *Context) HandleAcct(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if tcp.Arg(0) == 0 {
		return nil
	}
	return c.RewritePath(tcp, AtFDCWD, 0, Write)
}

// HandleChdir implements chdir(2): chdir into either the overlay or
// the host view is allowed since getcwd sanitizes the result.
// fchdir needs no handler: the fd it operates on was already
// rewritten at the open() that produced it.
func (c *Context) HandleChdir(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	return c.RewritePath(tcp, AtFDCWD, 0, Read)
}
