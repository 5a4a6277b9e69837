//go:build linux

package sandbox

import "fmt"

// HandleGetcwd sanitizes getcwd(2) at exit so the tracee never
// observes a path that begins with ROOT: if the kernel's own answer
// lies inside the overlay, it's rewritten in place to the bare HPN and
// the return length is reduced by len(ROOT) to match.
func (c *Context) HandleGetcwd(tcp *Tracee) error {
	if !tcp.Exiting {
		return nil
	}
	ret := tcp.Rval()
	if ret <= 0 {
		return nil
	}

	ptr := tcp.Arg(0)
	pn, err := tcp.ReadString(uintptr(ptr))
	if err != nil {
		return fmt.Errorf("sandbox: getcwd read buffer: %w", err)
	}
	if !isInSboxfs(pn, c.Root) {
		return nil
	}

	hpn := pn[c.RootLen:]
	if hpn == "" {
		hpn = "/"
	}
	buf := append([]byte(hpn), 0)
	if err := tcp.RemoteWrite(uintptr(ptr), buf); err != nil {
		return err
	}
	return tcp.RewriteRet(ret - int64(c.RootLen))
}
