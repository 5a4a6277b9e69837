//go:build linux

package sandbox

import (
	"os"

	"github.com/creack/pty"
)

// openPtyTty returns the (tty, ptmx) pair for a new pseudo-terminal:
// tty becomes the tracee's controlling terminal, ptmx is the parent's
// end to copy bytes through, mirroring the teacher's egg server's
// pty.StartWithSize usage but split so Run can set Ptrace in the same
// SysProcAttr as Setctty/Setsid.
func openPtyTty() (tty, ptmx *os.File, err error) {
	ptmx, tty, err = pty.Open()
	if err != nil {
		return nil, nil, err
	}
	return tty, ptmx, nil
}
