//go:build linux

package sandbox

import (
	"os/exec"
	"runtime"
	"syscall"
	"testing"
)

// attachSleeper starts a short-lived traced child and returns its
// Tracee once it has hit the ptrace-induced stop right after exec.
// Tests that need a live tracee for process_vm_readv/writev share
// this helper; they skip rather than fail if the sandbox doesn't
// permit ptrace.
func attachSleeper(t *testing.T) (*Tracee, func()) {
	t.Helper()
	runtime.LockOSThread()

	cmd := exec.Command("sleep", "5")
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}
	if err := cmd.Start(); err != nil {
		runtime.UnlockOSThread()
		t.Skipf("cannot start traced child: %v", err)
	}
	pid := cmd.Process.Pid

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		runtime.UnlockOSThread()
		t.Skipf("cannot wait for traced child: %v", err)
	}

	tcp := NewTracee(pid)
	if err := tcp.GetRegs(); err != nil {
		syscall.Kill(pid, syscall.SIGKILL)
		runtime.UnlockOSThread()
		t.Skipf("cannot read registers of traced child: %v", err)
	}

	cleanup := func() {
		syscall.PtraceDetach(pid)
		syscall.Kill(pid, syscall.SIGKILL)
		cmd.Wait()
		runtime.UnlockOSThread()
	}
	return tcp, cleanup
}

func TestTraceeRemoteWriteReadStringRoundTrip(t *testing.T) {
	tcp, cleanup := attachSleeper(t)
	defer cleanup()

	scratch := tcp.scratchAddr(0)
	want := "hello-from-sandbox-test"
	buf := append([]byte(want), 0)

	if err := tcp.RemoteWrite(scratch, buf); err != nil {
		t.Fatalf("RemoteWrite: %v", err)
	}
	got, err := tcp.ReadString(scratch)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}

func TestTraceeHijackStrThenRestoreHijack(t *testing.T) {
	tcp, cleanup := attachSleeper(t)
	defer cleanup()

	const slot = 0
	original := tcp.Arg(slot)

	if err := tcp.HijackStr(slot, "/sbx/etc/hosts"); err != nil {
		t.Fatalf("HijackStr: %v", err)
	}
	if tcp.Arg(slot) == original {
		t.Fatal("HijackStr did not change the argument register")
	}

	roundTrip, err := tcp.ReadString(uintptr(tcp.Arg(slot)))
	if err != nil {
		t.Fatalf("ReadString after hijack: %v", err)
	}
	if roundTrip != "/sbx/etc/hosts" {
		t.Fatalf("hijacked string = %q", roundTrip)
	}

	if err := tcp.RestoreHijack(); err != nil {
		t.Fatalf("RestoreHijack: %v", err)
	}
	if tcp.Arg(slot) != original {
		t.Errorf("RestoreHijack left arg = %#x, want original %#x", tcp.Arg(slot), original)
	}
	if len(tcp.hijacked) != 0 {
		t.Errorf("RestoreHijack must clear the undo log, got %d entries", len(tcp.hijacked))
	}
}
