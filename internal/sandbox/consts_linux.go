//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// AtFDCWD is the sentinel fd meaning "resolve relative to cwd",
// re-exported from x/sys/unix for handler readability.
const AtFDCWD = unix.AT_FDCWD
