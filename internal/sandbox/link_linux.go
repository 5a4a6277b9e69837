//go:build linux

package sandbox

// HandleRename implements rename(2): source read-through, destination
// writes into the overlay.
func (c *Context) HandleRename(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if err := c.RewritePath(tcp, AtFDCWD, 0, Read); err != nil {
		return err
	}
	return c.RewritePath(tcp, AtFDCWD, 1, Write)
}

// HandleRenameat implements renameat(2)/renameat2(2).
func (c *Context) HandleRenameat(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if err := c.RewritePath(tcp, int(tcp.Arg(0)), 1, Read); err != nil {
		return err
	}
	return c.RewritePath(tcp, int(tcp.Arg(2)), 3, Write)
}

// HandleLink implements link(2). The source is rewritten with Write
// (not Read) so its current content is copied into the overlay first:
// otherwise the new link would point at a name the overlay resolver
// recognizes, but the content it serves would still be the
// unmodified host file, letting the link "escape" the overlay view.
func (c *Context) HandleLink(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if err := c.RewritePath(tcp, AtFDCWD, 0, Write); err != nil {
		return err
	}
	return c.RewritePath(tcp, AtFDCWD, 1, Force)
}

// HandleLinkat implements linkat(2).
func (c *Context) HandleLinkat(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if err := c.RewritePath(tcp, int(tcp.Arg(0)), 1, Write); err != nil {
		return err
	}
	return c.RewritePath(tcp, int(tcp.Arg(2)), 3, Force)
}

// HandleSymlink implements symlink(2). The link target (arg 0) is not
// resolved when relative, per the Open Question this design accepted:
// a relative symlink target created inside the overlay may, once
// followed by the tracee, escape the overlay's view. Callers who need
// stricter containment should refuse relative targets instead.
func (c *Context) HandleSymlink(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if err := c.RewritePath(tcp, AtFDCWD, 0, Write); err != nil {
		return err
	}
	return c.RewritePath(tcp, AtFDCWD, 1, Force)
}

// HandleSymlinkat implements symlinkat(2).
func (c *Context) HandleSymlinkat(tcp *Tracee) error {
	if !tcp.Entering {
		return nil
	}
	if err := c.RewritePath(tcp, AtFDCWD, 0, Write); err != nil {
		return err
	}
	return c.RewritePath(tcp, int(tcp.Arg(1)), 2, Force)
}
