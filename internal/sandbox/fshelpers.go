package sandbox

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// pathExists reports whether path names an existing filesystem entry,
// following symlinks. Any stat error (including ENOENT) means false.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// lpathExists is like pathExists but does not follow a trailing
// symlink, matching the semantics unlink/rmdir/rename care about.
func lpathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// existsParentDir reports whether the parent directory of path exists.
func existsParentDir(path string) bool {
	return pathExists(filepath.Dir(path))
}

// normalizePath collapses ".", "..", and duplicate slashes the same
// way filepath.Clean does, and additionally guarantees the result is
// absolute (resolve is only ever called with an already-absolute
// base ++ raw concatenation, so this is a belt-and-suspenders check).
func normalizePath(path string) string {
	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// isInSboxfs reports whether path lies under root (the overlay ROOT).
func isInSboxfs(path, root string) bool {
	return strings.HasPrefix(path, root)
}

// isDevOrProc reports whether an HPN must never be rewritten: the
// overlay only virtualizes real filesystem content, never /dev or
// /proc nodes.
func isDevOrProc(hpn string) bool {
	return strings.HasPrefix(hpn, "/dev/") || strings.HasPrefix(hpn, "/proc/") ||
		hpn == "/dev" || hpn == "/proc"
}

// copyfile byte-copies src to dst, creating dst and preserving src's
// mode bits. It is idempotent: if dst already exists, it is a no-op,
// so the first materialization of an overlay file wins and later
// Write-policy rewrites of the same path never clobber a tracee's
// in-overlay edits with pristine host content again.
func copyfile(src, dst string) error {
	if pathExists(dst) {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
