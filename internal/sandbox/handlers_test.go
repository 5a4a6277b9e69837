//go:build linux

package sandbox

import (
	"os"
	"path/filepath"
	"testing"
)

// plantArgString writes value into the tracee's stack scratch space
// for argument slot and points the argument register directly at it,
// simulating "the kernel already set this argument up this way" for
// tests that don't go through a real syscall entry.
func plantArgString(t *testing.T, tcp *Tracee, slot int, value string) {
	t.Helper()
	addr := tcp.scratchAddr(slot)
	buf := append([]byte(value), 0)
	if err := tcp.RemoteWrite(addr, buf); err != nil {
		t.Fatalf("plantArgString RemoteWrite: %v", err)
	}
	if err := tcp.RewriteArg(slot, uint64(addr)); err != nil {
		t.Fatalf("plantArgString RewriteArg: %v", err)
	}
}

func TestRewritePathReadPassesThroughWhenNoOverlayEntry(t *testing.T) {
	tcp, cleanup := attachSleeper(t)
	defer cleanup()

	host := t.TempDir()
	overlayRoot := t.TempDir()
	hostFile := filepath.Join(host, "etc", "resolv.conf")
	if err := os.MkdirAll(filepath.Dir(hostFile), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(hostFile, []byte("nameserver 1.1.1.1"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &Context{Root: overlayRoot, RootLen: len(overlayRoot), Tombstones: NewTombstones()}
	plantArgString(t, tcp, 0, hostFile)
	origArg := tcp.Arg(0)

	tcp.Entering = true
	if err := c.RewritePath(tcp, AtFDCWD, 0, Read); err != nil {
		t.Fatalf("RewritePath: %v", err)
	}
	if tcp.Arg(0) != origArg {
		t.Error("READ policy with no overlay entry must not rewrite the argument")
	}
}

func TestRewritePathWriteCopiesHostContentIntoOverlay(t *testing.T) {
	tcp, cleanup := attachSleeper(t)
	defer cleanup()

	host := t.TempDir()
	overlayRoot := t.TempDir()
	hostFile := filepath.Join(host, "etc", "hosts")
	if err := os.MkdirAll(filepath.Dir(hostFile), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(hostFile, []byte("127.0.0.1 localhost"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &Context{Root: overlayRoot, RootLen: len(overlayRoot), Tombstones: NewTombstones()}
	plantArgString(t, tcp, 0, hostFile)

	if err := c.RewritePath(tcp, AtFDCWD, 0, Write); err != nil {
		t.Fatalf("RewritePath: %v", err)
	}

	spn := c.SpnOf(hostFile)
	got, err := os.ReadFile(spn)
	if err != nil {
		t.Fatalf("overlay file not created: %v", err)
	}
	if string(got) != "127.0.0.1 localhost" {
		t.Errorf("overlay content = %q, want host content", got)
	}

	rewrittenPath, err := tcp.ReadString(uintptr(tcp.Arg(0)))
	if err != nil {
		t.Fatalf("ReadString after rewrite: %v", err)
	}
	if rewrittenPath != spn {
		t.Errorf("argument rewritten to %q, want %q", rewrittenPath, spn)
	}
}

func TestRewritePathIgnoresDevAndProc(t *testing.T) {
	tcp, cleanup := attachSleeper(t)
	defer cleanup()

	overlayRoot := t.TempDir()
	c := &Context{Root: overlayRoot, RootLen: len(overlayRoot), Tombstones: NewTombstones()}

	plantArgString(t, tcp, 0, "/dev/null")
	origArg := tcp.Arg(0)
	if err := c.RewritePath(tcp, AtFDCWD, 0, Force); err != nil {
		t.Fatalf("RewritePath: %v", err)
	}
	if tcp.Arg(0) != origArg {
		t.Error("/dev paths must never be rewritten, even under FORCE")
	}
}

func TestRewritePathTombstoneForcesRewrite(t *testing.T) {
	tcp, cleanup := attachSleeper(t)
	defer cleanup()

	host := t.TempDir()
	overlayRoot := t.TempDir()
	hostFile := filepath.Join(host, "deleted-but-present")
	if err := os.WriteFile(hostFile, []byte("still on host"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &Context{Root: overlayRoot, RootLen: len(overlayRoot), Tombstones: NewTombstones()}
	c.Tombstones.Insert(hostFile)
	plantArgString(t, tcp, 0, hostFile)

	if err := c.RewritePath(tcp, AtFDCWD, 0, Read); err != nil {
		t.Fatalf("RewritePath: %v", err)
	}

	spn := c.SpnOf(hostFile)
	rewrittenPath, err := tcp.ReadString(uintptr(tcp.Arg(0)))
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if rewrittenPath != spn {
		t.Errorf("a tombstoned path must be rewritten even under READ policy, got %q want %q", rewrittenPath, spn)
	}
	if pathExists(spn) {
		t.Error("READ policy must never copy host content in, even when rewriting")
	}
}
