//go:build linux && amd64

package sandbox

import "golang.org/x/sys/unix"

// HandlerFunc is the shape every dispatch-table entry satisfies: a
// single intercepted syscall's full entry+exit logic, driven by
// Tracee's Entering/Exiting flags.
type HandlerFunc func(c *Context, tcp *Tracee) error

// pathHandler builds a HandlerFunc for a fixed-fd single-path
// syscall (the non-"at" family) that always reduces to one
// RewritePath call at entry.
func pathHandler(fd, arg int, policy Policy) HandlerFunc {
	return func(c *Context, tcp *Tracee) error {
		return c.HandleSinglePath(tcp, fd, arg, policy)
	}
}

// atPathHandler builds a HandlerFunc for the "at" family, where
// argument 0 carries the directory fd the path argument is resolved
// against.
func atPathHandler(arg int, policy Policy) HandlerFunc {
	return func(c *Context, tcp *Tracee) error {
		return c.HandleSinglePath(tcp, int(tcp.Arg(0)), arg, policy)
	}
}

// Dispatch maps amd64 syscall numbers to their sandbox handler. Any
// syscall not present here is a pass-through: the tracer resumes it
// unmodified.
var Dispatch = map[uint64]HandlerFunc{
	unix.SYS_OPEN:   (*Context).HandleOpen,
	unix.SYS_OPENAT: (*Context).HandleOpenat,
	unix.SYS_CREAT:  (*Context).HandleCreat,

	unix.SYS_STAT:        pathHandler(AtFDCWD, 0, Read),
	unix.SYS_NEWFSTATAT:  atPathHandler(1, Read),
	unix.SYS_MKDIR:       (*Context).HandleMkdir,
	unix.SYS_MKDIRAT:     (*Context).HandleMkdirat,
	unix.SYS_RMDIR:       (*Context).HandleRmdir,
	unix.SYS_UNLINK:      (*Context).HandleUnlink,
	unix.SYS_UNLINKAT:    (*Context).HandleUnlinkat,
	unix.SYS_ACCESS:      pathHandler(AtFDCWD, 0, Read),
	unix.SYS_FACCESSAT:   atPathHandler(1, Read),
	unix.SYS_FACCESSAT2:  atPathHandler(1, Read),
	unix.SYS_CHDIR:       (*Context).HandleChdir,
	unix.SYS_GETCWD:      (*Context).HandleGetcwd,
	unix.SYS_GETDENTS:    (*Context).HandleGetdents,

	unix.SYS_RENAME:   (*Context).HandleRename,
	unix.SYS_RENAMEAT: (*Context).HandleRenameat,
	unix.SYS_LINK:     (*Context).HandleLink,
	unix.SYS_LINKAT:   (*Context).HandleLinkat,
	unix.SYS_SYMLINK:  (*Context).HandleSymlink,
	unix.SYS_SYMLINKAT: (*Context).HandleSymlinkat,
	unix.SYS_ACCT:     (*Context).HandleAcct,

	unix.SYS_UTIMENSAT: atPathHandler(1, Write),
	unix.SYS_READLINKAT: atPathHandler(1, Read),
	unix.SYS_FCHMODAT:  atPathHandler(1, Write),
	unix.SYS_MKNODAT:   atPathHandler(1, Write),
	unix.SYS_FUTIMESAT: atPathHandler(1, Write),
	unix.SYS_FCHOWNAT:  atPathHandler(1, Write),

	unix.SYS_SETXATTR:     pathHandler(AtFDCWD, 0, Write),
	unix.SYS_LSETXATTR:    pathHandler(AtFDCWD, 0, Write),
	unix.SYS_REMOVEXATTR:  pathHandler(AtFDCWD, 0, Write),
	unix.SYS_LREMOVEXATTR: pathHandler(AtFDCWD, 0, Write),
	unix.SYS_GETXATTR:     pathHandler(AtFDCWD, 0, Read),
	unix.SYS_LGETXATTR:    pathHandler(AtFDCWD, 0, Read),
	unix.SYS_LISTXATTR:    pathHandler(AtFDCWD, 0, Read),
	unix.SYS_LLISTXATTR:   pathHandler(AtFDCWD, 0, Read),
	unix.SYS_STATFS:       pathHandler(AtFDCWD, 0, Read),
	unix.SYS_USELIB:       pathHandler(AtFDCWD, 0, Read),
	unix.SYS_UTIMES:       pathHandler(AtFDCWD, 0, Write),
	unix.SYS_UTIME:        pathHandler(AtFDCWD, 0, Write),
	unix.SYS_CHMOD:        pathHandler(AtFDCWD, 0, Write),
	unix.SYS_CHOWN:        pathHandler(AtFDCWD, 0, Write),
	unix.SYS_LCHOWN:       pathHandler(AtFDCWD, 0, Write),
	unix.SYS_EXECVE:       pathHandler(AtFDCWD, 0, Read),
	unix.SYS_TRUNCATE:     pathHandler(AtFDCWD, 0, Force),
	unix.SYS_READLINK:     pathHandler(AtFDCWD, 0, Read),
	unix.SYS_MKNOD:        pathHandler(AtFDCWD, 0, Write),
}
