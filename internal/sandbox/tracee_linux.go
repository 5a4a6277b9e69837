//go:build linux

package sandbox

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// PathMax bounds every path buffer the core reads or writes in the
// tracee's address space.
const PathMax = 4096

const noFD = -1

// hijackEntry is one undo-log record: the argument slot that was
// overwritten and the value it held before the hijack.
type hijackEntry struct {
	slot int
	orig uint64
}

// Tracee mirrors the original source's per-process tcb: a syscall
// register snapshot (arguments are read straight from it), the hijack
// undo log, and the directory iteration state getdents needs across
// calls.
type Tracee struct {
	Pid int

	regs syscall.PtraceRegs

	// Entering/Exiting record which of the two stops per syscall the
	// tracer is currently reporting; handlers consult these instead
	// of a global phase variable.
	Entering bool
	Exiting  bool

	hijacked []hijackEntry

	// Directory-iteration state for getdents (see getdents_linux.go).
	// DentSboxFD == noFD means idle.
	DentHostFD  int
	DentSboxFD  int
	DentSboxSPN string
}

// NewTracee returns a Tracee ready to be attached by the tracer loop.
func NewTracee(pid int) *Tracee {
	return &Tracee{
		Pid:        pid,
		DentHostFD: noFD,
		DentSboxFD: noFD,
	}
}

// GetRegs refreshes the cached register snapshot from the kernel.
func (t *Tracee) GetRegs() error {
	return syscall.PtraceGetRegs(t.Pid, &t.regs)
}

// SetRegs flushes the cached register snapshot back to the kernel.
func (t *Tracee) SetRegs() error {
	return syscall.PtraceSetRegs(t.Pid, &t.regs)
}

// SyscallNo returns the syscall number captured at entry.
func (t *Tracee) SyscallNo() uint64 {
	return t.regs.Orig_rax
}

// Arg returns the raw value of argument slot n (0..5) as captured at
// syscall entry.
func (t *Tracee) Arg(n int) uint64 {
	switch n {
	case 0:
		return t.regs.Rdi
	case 1:
		return t.regs.Rsi
	case 2:
		return t.regs.Rdx
	case 3:
		return t.regs.R10
	case 4:
		return t.regs.R8
	case 5:
		return t.regs.R9
	default:
		panic(fmt.Sprintf("sandbox: unknown argument slot %d", n))
	}
}

// Rval returns the syscall's return value, valid only at exit.
func (t *Tracee) Rval() int64 {
	return int64(t.regs.Rax)
}

// setArgReg writes value into the register backing argument slot n,
// without touching the undo log or flushing to the kernel.
func (t *Tracee) setArgReg(n int, value uint64) {
	switch n {
	case 0:
		t.regs.Rdi = value
	case 1:
		t.regs.Rsi = value
	case 2:
		t.regs.Rdx = value
	case 3:
		t.regs.R10 = value
	case 4:
		t.regs.R8 = value
	case 5:
		t.regs.R9 = value
	default:
		panic(fmt.Sprintf("sandbox: unknown argument slot %d", n))
	}
}

// RewriteArg mutates argument slot n to value and flushes registers
// to the kernel immediately. It records no undo-log entry; HijackStr
// logs the original value itself before calling it.
func (t *Tracee) RewriteArg(n int, value uint64) error {
	t.setArgReg(n, value)
	return t.SetRegs()
}

// RewriteRet patches the return-value register so that when the
// tracee resumes it observes value as the syscall's result. error is
// cleared implicitly: non-negative values are never interpreted as
// -errno by the kernel's syscall-return convention.
func (t *Tracee) RewriteRet(value int64) error {
	t.regs.Rax = uint64(value)
	return t.SetRegs()
}

// ReadString copies a NUL-terminated string from the tracee's address
// space at remote, using process_vm_readv — the vectorized successor
// to PTRACE_PEEKDATA. Returns "" and an error if the read fails or the
// string exceeds PathMax.
func (t *Tracee) ReadString(remote uintptr) (string, error) {
	if remote == 0 {
		return "", nil
	}
	var out []byte
	buf := make([]byte, 4096)
	for len(out) < PathMax {
		want := 4096 - int(remote%4096)
		if want > len(buf) {
			want = len(buf)
		}
		local := []unix.Iovec{{Base: &buf[0], Len: uint64(want)}}
		remoteIov := []unix.RemoteIovec{{Base: remote, Len: want}}
		n, err := unix.ProcessVMReadv(t.Pid, local, remoteIov, 0)
		if err != nil {
			return "", fmt.Errorf("sandbox: read_string pid=%d addr=%#x: %w", t.Pid, remote, err)
		}
		if n == 0 {
			break
		}
		for _, b := range buf[:n] {
			if b == 0 {
				return string(out), nil
			}
			out = append(out, b)
		}
		remote += uintptr(n)
	}
	return "", fmt.Errorf("sandbox: read_string pid=%d addr=%#x: no NUL within %d bytes", t.Pid, remote, PathMax)
}

// RemoteWrite copies data into the tracee's address space at remote
// using process_vm_writev. A partial or failed write is fatal: the
// tracee is left expecting a syscall whose argument now points at
// garbage.
func (t *Tracee) RemoteWrite(remote uintptr, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &data[0], Len: uint64(len(data))}}
	remoteIov := []unix.RemoteIovec{{Base: remote, Len: len(data)}}
	n, err := unix.ProcessVMWritev(t.Pid, local, remoteIov, 0)
	if err != nil {
		return fmt.Errorf("sandbox: remote_write pid=%d addr=%#x len=%d: %w", t.Pid, remote, len(data), err)
	}
	if n != len(data) {
		return fmt.Errorf("sandbox: remote_write pid=%d addr=%#x: short write %d/%d", t.Pid, remote, n, len(data))
	}
	return nil
}

// scratchAddr picks the hijack write location for argument slot n:
// the tracee's own stack, PathMax*(n+1) bytes below its current SP.
// This relies on the tracee's red-zone/unused stack slack remaining
// valid for the duration of a single syscall; a hardened tracer would
// instead reserve a dedicated scratch page at attach time.
func (t *Tracee) scratchAddr(n int) uintptr {
	return uintptr(t.regs.Rsp) - uintptr(PathMax*(n+1))
}

// HijackStr overwrites argument slot n with a pointer to newString,
// written into tracee stack scratch space, recording the original
// argument value so RestoreHijack can undo it before the tracee is
// resumed.
func (t *Tracee) HijackStr(n int, newString string) error {
	addr := t.scratchAddr(n)
	buf := make([]byte, len(newString)+1)
	copy(buf, newString)
	if err := t.RemoteWrite(addr, buf); err != nil {
		return err
	}
	t.hijacked = append(t.hijacked, hijackEntry{slot: n, orig: t.Arg(n)})
	return t.RewriteArg(n, uint64(addr))
}

// RestoreHijack replays the undo log in reverse, restoring each
// hijacked argument register to its pre-rewrite value, then clears
// the log. Must run after the syscall executes and before the tracee
// observes any register (spec's idempotent-restore invariant).
func (t *Tracee) RestoreHijack() error {
	if len(t.hijacked) == 0 {
		return nil
	}
	if err := t.GetRegs(); err != nil {
		return err
	}
	for i := len(t.hijacked) - 1; i >= 0; i-- {
		e := t.hijacked[i]
		t.setArgReg(e.slot, e.orig)
	}
	t.hijacked = t.hijacked[:0]
	return t.SetRegs()
}
