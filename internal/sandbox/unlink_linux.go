//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// HandleRmdir implements rmdir(2): the path is redirected into the
// overlay at entry (FORCE), and on exit every tombstone under the
// removed subtree collapses into one at the directory's HPN. If the
// overlay rmdir failed but the host directory exists and is not yet
// tombstoned, success is emulated the same way unlink does it.
func (c *Context) HandleRmdir(tcp *Tracee) error {
	if tcp.Entering {
		return c.RewritePath(tcp, AtFDCWD, 0, Force)
	}
	// At exit the argument still points at the hijacked SPN; strip ROOT
	// so the tombstone is keyed by the HPN.
	hpn, _ := c.Resolve(tcp, AtFDCWD, 0)
	if isInSboxfs(hpn, c.Root) {
		hpn = hpn[c.RootLen:]
	}
	if hpn == "" {
		return nil
	}
	if tcp.Rval() < 0 {
		if c.Tombstones.IsDeleted(hpn) || !lpathExists(hpn) {
			return nil
		}
		if err := tcp.RewriteRet(0); err != nil {
			return err
		}
	}
	c.Tombstones.DeleteSubtree(hpn)
	return nil
}

// HandleUnlinkGeneral implements unlink(2)/unlinkat(2), including the
// AT_REMOVEDIR case unlinkat shares with rmdir. atFlag carries the
// raw flags argument so AT_REMOVEDIR can be detected.
func (c *Context) HandleUnlinkGeneral(tcp *Tracee, fd, arg int, atFlag uint64) error {
	if tcp.Entering {
		return c.RewritePath(tcp, fd, arg, Force)
	}

	// At exit the argument still points at the hijacked SPN; strip ROOT
	// so the tombstone is keyed by the HPN.
	hpn, _ := c.Resolve(tcp, fd, arg)
	if isInSboxfs(hpn, c.Root) {
		hpn = hpn[c.RootLen:]
	}
	if hpn == "" {
		return nil
	}

	if tcp.Rval() < 0 {
		// overlay syscall failed; emulate success if the host file is
		// real and not already tombstoned, so the tracee still
		// observes the deletion. Emulated success must tombstone the
		// path itself, same as a real successful unlink, or a later
		// stat/open on hpn would see the untouched host file again.
		if !c.Tombstones.IsDeleted(hpn) && lpathExists(hpn) {
			c.Log.Debug("emulate successful unlink", "hpn", hpn)
			if err := tcp.RewriteRet(0); err != nil {
				return err
			}
		} else {
			return nil
		}
	}

	if atFlag&uint64(unix.AT_REMOVEDIR) != 0 {
		c.Tombstones.DeleteSubtree(hpn)
	} else {
		c.Tombstones.Insert(hpn)
	}
	return nil
}

// HandleUnlink implements unlink(2).
func (c *Context) HandleUnlink(tcp *Tracee) error {
	return c.HandleUnlinkGeneral(tcp, AtFDCWD, 0, 0)
}

// HandleUnlinkat implements unlinkat(2).
func (c *Context) HandleUnlinkat(tcp *Tracee) error {
	return c.HandleUnlinkGeneral(tcp, int(tcp.Arg(0)), 1, tcp.Arg(2))
}
