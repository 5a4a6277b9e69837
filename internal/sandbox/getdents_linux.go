//go:build linux

package sandbox

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linux_dirent header: d_ino (8) + d_off (8) + d_reclen (2), followed
// by a NUL-terminated d_name. No d_type byte — this mirrors the plain
// (32-bit-record) getdents(2) ABI the original source reads, not
// getdents64(2).
const direntHeaderLen = 18

// HandleGetdents implements the getdents(2) union view: the tracee's
// own syscall against its (possibly overlay-redirected) fd runs
// unintercepted and is left to return overlay entries directly: only
// once the kernel reports EOF on that fd (rax == 0) does this handler
// take over, emulating a continuation that pumps remaining entries
// from the corresponding host directory.
//
// State is kept on Tracee across multiple exit-stops of the same
// syscall: the first stop with rax == 0 opens the host directory and
// transitions to "pumping"; every following stop (the tracee's own
// fd still returns EOF every time, since its underlying stream is
// drained) pumps one more chunk, until the host directory is itself
// exhausted and the iteration resets to idle.
func (c *Context) HandleGetdents(tcp *Tracee) error {
	if !tcp.Exiting || tcp.Rval() != 0 {
		return nil
	}

	hostFd := int(tcp.Arg(0))

	if tcp.DentSboxFD == noFD {
		spn, ok := c.fdPath(tcp, hostFd)
		if !ok || !isInSboxfs(spn, c.Root) {
			return nil // not a directory the overlay is shadowing
		}
		hpn := spn[c.RootLen:]

		fd, err := unix.Open(hpn, unix.O_RDONLY|unix.O_DIRECTORY, 0)
		if err != nil {
			c.Log.Debug("getdents: cannot open host dir for pumping", "hpn", hpn, "err", err)
			return nil
		}
		tcp.DentHostFD = hostFd
		tcp.DentSboxFD = fd
		tcp.DentSboxSPN = spn
		c.Log.Debug("getdents: pumping started", "spn", spn, "hpn", hpn)
	}

	if tcp.DentHostFD != hostFd {
		return fmt.Errorf("sandbox: concurrent getdents on distinct fds is unsupported (pid=%d)", tcp.Pid)
	}

	want := 4096
	if argCount := int(tcp.Arg(2)); argCount < want {
		want = argCount
	}
	buf := make([]byte, want)
	n, _, errno := syscall.Syscall(syscall.SYS_GETDENTS, uintptr(tcp.DentSboxFD), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if errno != 0 {
		c.closeDentPump(tcp)
		return fmt.Errorf("sandbox: getdents pump on %s: %w", tcp.DentSboxSPN, errno)
	}
	if n == 0 {
		c.closeDentPump(tcp)
		return nil // host directory exhausted too; original return (0) stands
	}

	filtered := filterDirents(buf[:n], tcp.DentSboxSPN)
	if err := tcp.RemoteWrite(uintptr(tcp.Arg(1)), filtered); err != nil {
		return err
	}
	return tcp.RewriteRet(int64(len(filtered)))
}

func (c *Context) closeDentPump(tcp *Tracee) {
	unix.Close(tcp.DentSboxFD)
	tcp.DentSboxFD = noFD
	tcp.DentHostFD = noFD
	tcp.DentSboxSPN = ""
}

// fdPath resolves the filesystem path a tracee's fd refers to via
// /proc/<pid>/fd/<fd>.
func (c *Context) fdPath(tcp *Tracee, fd int) (string, bool) {
	target, err := os.Readlink(fmt.Sprintf("/proc/%d/fd/%d", tcp.Pid, fd))
	if err != nil {
		return "", false
	}
	return target, true
}

// filterDirents drops "."/".." and any entry shadowed by an overlay
// entry of the same name under spn, returning the surviving records
// concatenated verbatim.
func filterDirents(buf []byte, spn string) []byte {
	out := make([]byte, 0, len(buf))
	for i := 0; i+direntHeaderLen <= len(buf); {
		reclen := int(binary.LittleEndian.Uint16(buf[i+16 : i+18]))
		if reclen <= 0 || i+reclen > len(buf) {
			break
		}

		nameStart := i + direntHeaderLen
		nameEnd := nameStart
		for nameEnd < i+reclen && buf[nameEnd] != 0 {
			nameEnd++
		}
		name := string(buf[nameStart:nameEnd])

		skip := name == "." || name == ".."
		if !skip && pathExists(spn+"/"+name) {
			skip = true
		}
		if !skip {
			out = append(out, buf[i:i+reclen]...)
		}
		i += reclen
	}
	return out
}
