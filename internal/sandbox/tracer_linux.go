//go:build linux

package sandbox

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// syscallStopSignal is the signal value wait4 reports at a
// syscall-entry/exit stop once PTRACE_O_TRACESYSGOOD is set: SIGTRAP
// with its high bit set, distinguishing it from an ordinary
// signal-delivery stop.
const syscallStopSignal = syscall.SIGTRAP | 0x80

// Tracer drives one traced child process through its lifetime,
// dispatching each intercepted syscall to Context's handlers. It
// corresponds to the external "tracer loop" the core specification
// treats as an out-of-scope collaborator.
type Tracer struct {
	ctx *Context

	// Decisions is populated after Run returns when Context.Interactive
	// is set, recording what the commit UI did with each overlay file.
	Decisions []CommitDecision
}

// NewTracer returns a Tracer that will rewrite paths according to ctx.
func NewTracer(ctx *Context) *Tracer {
	return &Tracer{ctx: ctx}
}

// Run execs name/args under ptrace and drives the syscall-interception
// loop until the child exits, returning its exit status. extraEnv is
// appended to the current process's environment (the $HPWD/$SPWD/$SHOME
// variables config.SetupTestEnv sets already reach the child through
// that environment).
//
// Every ptrace(2) call for a given tracee must run on the same OS
// thread that attached to it, so Run pins its goroutine for its
// entire duration.
func (tr *Tracer) Run(name string, args, extraEnv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)

	var ptmx *os.File
	if tr.ctx.PTY {
		tty, master, err := openPtyTty()
		if err != nil {
			return -1, fmt.Errorf("sandbox: open pty: %w", err)
		}
		ptmx = master
		cmd.Stdin = tty
		cmd.Stdout = tty
		cmd.Stderr = tty
		cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true, Setctty: true, Setsid: true}

		if err := cmd.Start(); err != nil {
			tty.Close()
			ptmx.Close()
			return -1, fmt.Errorf("sandbox: start tracee: %w", err)
		}
		tty.Close()
		go io.Copy(ptmx, stdin)
		go io.Copy(stdout, ptmx)
	} else {
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}

		if err := cmd.Start(); err != nil {
			return -1, fmt.Errorf("sandbox: start tracee: %w", err)
		}
	}
	defer func() {
		if ptmx != nil {
			ptmx.Close()
		}
	}()
	pid := cmd.Process.Pid

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return -1, fmt.Errorf("sandbox: initial wait4: %w", err)
	}
	if err := syscall.PtraceSetOptions(pid, syscall.PTRACE_O_TRACESYSGOOD); err != nil {
		return -1, fmt.Errorf("sandbox: ptrace set options: %w", err)
	}
	if tr.ctx.CPULimitSeconds > 0 || tr.ctx.MemLimitBytes > 0 {
		if err := ApplyRlimits(pid, tr.ctx.CPULimitSeconds, tr.ctx.MemLimitBytes); err != nil {
			tr.ctx.Log.Warn("apply rlimits failed", "err", err)
		}
	}

	tcp := NewTracee(pid)
	entering := true
	pendingSig := syscall.Signal(0)

	for {
		if err := syscall.PtraceSyscall(pid, int(pendingSig)); err != nil {
			return -1, fmt.Errorf("sandbox: ptrace syscall resume: %w", err)
		}
		pendingSig = 0

		if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
			return -1, fmt.Errorf("sandbox: wait4: %w", err)
		}

		switch {
		case ws.Exited():
			tr.finish(tcp)
			return ws.ExitStatus(), nil

		case ws.Signaled():
			tr.finish(tcp)
			return -1, fmt.Errorf("sandbox: tracee killed by signal %v", ws.Signal())

		case ws.Stopped():
			sig := ws.StopSignal()
			if sig != syscallStopSignal {
				pendingSig = sig
				continue
			}

			if err := tcp.GetRegs(); err != nil {
				return -1, fmt.Errorf("sandbox: get regs: %w", err)
			}
			tcp.Entering = entering
			tcp.Exiting = !entering

			if handler, ok := Dispatch[tcp.SyscallNo()]; ok {
				if err := handler(tr.ctx, tcp); err != nil {
					return -1, fmt.Errorf("sandbox: syscall %d handler: %w", tcp.SyscallNo(), err)
				}
			}
			if tcp.Exiting {
				if err := tcp.RestoreHijack(); err != nil {
					return -1, fmt.Errorf("sandbox: restore hijacked args: %w", err)
				}
			}
			entering = !entering

		default:
			continue
		}
	}
}

// finish releases any open directory-pump fd and, if interactive mode
// is on, hands control to the commit UI before the caller reports the
// child's exit status.
func (tr *Tracer) finish(tcp *Tracee) {
	if tcp.DentSboxFD != noFD {
		unix.Close(tcp.DentSboxFD)
		tcp.DentSboxFD = noFD
		tcp.DentHostFD = noFD
	}
	if tr.ctx.Interactive {
		decisions, err := tr.ctx.RunInteractiveCommit(os.Stdin, os.Stdout)
		if err != nil {
			tr.ctx.Log.Error("interactive commit failed", "err", err)
			return
		}
		tr.Decisions = decisions
	}
}
