//go:build linux

package sandbox

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestRlimitsForNoDefaults(t *testing.T) {
	if got := rlimitsFor(0, 0); len(got) != 0 {
		t.Fatalf("rlimitsFor(0, 0) = %v, want empty", got)
	}
}

func TestRlimitsForBothSet(t *testing.T) {
	got := rlimitsFor(60, 2*1024*1024*1024)
	want := map[int]uint64{
		unix.RLIMIT_CPU: 60,
		unix.RLIMIT_AS:  2 * 1024 * 1024 * 1024,
	}
	if len(got) != len(want) {
		t.Fatalf("rlimitsFor count = %d, want %d", len(got), len(want))
	}
	for _, rl := range got {
		if want[rl.resource] != rl.value {
			t.Errorf("resource %d value = %d, want %d", rl.resource, rl.value, want[rl.resource])
		}
	}
}

func TestRlimitsForCPUOnly(t *testing.T) {
	got := rlimitsFor(30, 0)
	if len(got) != 1 || got[0].resource != unix.RLIMIT_CPU || got[0].value != 30 {
		t.Fatalf("rlimitsFor(30, 0) = %+v, want single RLIMIT_CPU=30", got)
	}
}

func TestApplyRlimitsOnSelf(t *testing.T) {
	if err := ApplyRlimits(unix.Getpid(), 0, 0); err != nil {
		t.Fatalf("ApplyRlimits with no limits should be a no-op: %v", err)
	}
}
