//go:build linux

package sandbox

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type rlimitPair struct {
	resource int
	value    uint64
}

// rlimitsFor returns the resource limits ApplyRlimits would set, for
// zero values it omits the corresponding limit rather than applying
// an arbitrary default.
func rlimitsFor(cpuSeconds int, memBytes int64) []rlimitPair {
	var pairs []rlimitPair
	if cpuSeconds > 0 {
		pairs = append(pairs, rlimitPair{unix.RLIMIT_CPU, uint64(cpuSeconds)})
	}
	if memBytes > 0 {
		pairs = append(pairs, rlimitPair{unix.RLIMIT_AS, uint64(memBytes)})
	}
	return pairs
}

// ApplyRlimits bounds the tracee's CPU time and virtual address space
// via prlimit(2), matching `sbox run --cpu/--mem`. A zero value leaves
// the corresponding limit untouched; neither is applied by default.
func ApplyRlimits(pid int, cpuSeconds int, memBytes int64) error {
	for _, rl := range rlimitsFor(cpuSeconds, memBytes) {
		lim := unix.Rlimit{Cur: rl.value, Max: rl.value}
		if err := unix.Prlimit(pid, rl.resource, &lim, nil); err != nil {
			return fmt.Errorf("sandbox: prlimit(%d, %d, %d): %w", pid, rl.resource, rl.value, err)
		}
	}
	return nil
}
