//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SyncParentDirs lazily materializes the overlay directories needed
// so that creating spn would succeed, mirroring the host's directory
// modes. It does nothing if the overlay parent already exists, and
// does nothing if the host parent doesn't exist either (the write
// would fail there too, so there's nothing useful to synthesize).
func (c *Context) SyncParentDirs(hpn, spn string) error {
	parentSPN := filepath.Dir(spn)
	if pathExists(parentSPN) {
		return nil
	}
	parentHPN := filepath.Dir(hpn)
	if !pathExists(parentHPN) {
		return nil
	}

	segments := strings.Split(strings.Trim(parentHPN, "/"), "/")
	hostCum := ""
	overlayCum := c.Root
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		hostCum += "/" + seg
		overlayCum += "/" + seg
		if pathExists(overlayCum) {
			continue
		}
		info, err := os.Stat(hostCum)
		if err != nil {
			// A benign race (the host segment vanished between the
			// parent-existence check above and here) shouldn't abort
			// the whole trace; skip the rest of this path the same
			// way the original's sync loop breaks out on stat failure.
			c.Log.Debug("sync_parent_dirs stat failed, skipping", "path", hostCum, "err", err)
			break
		}
		if err := os.Mkdir(overlayCum, info.Mode().Perm()); err != nil && !os.IsExist(err) {
			return fmt.Errorf("sandbox: sync_parent_dirs mkdir %s: %w", overlayCum, err)
		}
	}
	return nil
}
