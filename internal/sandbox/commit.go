package sandbox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// errCommitQuit is returned internally by promptCommit when the user
// chooses 'q'; RunInteractiveCommit treats it as "stop walking", not
// as a failure.
var errCommitQuit = errors.New("sandbox: commit walk stopped by user")

// CommitDecision is recorded for each overlay file RunInteractiveCommit
// visits, so callers (cmd/sbox's history subcommand) can persist an
// audit trail of what was kept versus discarded.
type CommitDecision struct {
	HPN       string
	Committed bool
}

// RunInteractiveCommit walks every regular file under the overlay and
// prompts the user, one at a time, to commit it back onto the host
// filesystem, ignore it, view a diff against the host original, or
// quit early. It returns the decisions made for files visited before
// any quit.
func (c *Context) RunInteractiveCommit(stdin io.Reader, stdout io.Writer) ([]CommitDecision, error) {
	fmt.Fprintf(stdout, "%s:\n", c.Root)

	reader := bufio.NewReader(stdin)
	commitAll := false
	var decisions []CommitDecision

	err := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		hpn := path[c.RootLen:]
		fmt.Fprintf(stdout, " > F: %s\n", path)

		committed, err := c.promptCommit(reader, stdout, path, hpn, &commitAll)
		if err != nil {
			return err
		}
		decisions = append(decisions, CommitDecision{HPN: hpn, Committed: committed})
		return nil
	})

	if errors.Is(err, errCommitQuit) {
		return decisions, nil
	}
	return decisions, err
}

// promptCommit handles one overlay file's menu: [C]ommit all,
// [c]ommit, [i]gnore, [d]iff, [q]uit.
func (c *Context) promptCommit(reader *bufio.Reader, stdout io.Writer, spn, hpn string, commitAll *bool) (bool, error) {
	if *commitAll {
		return true, c.commitFile(stdout, spn, hpn)
	}

	for {
		fmt.Fprintf(stdout, "F:%s\n [C]:commit all, [c]:commit, [i]:ignore, [d]:diff, [q]:quit ? > ", hpn)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}
		choice := strings.TrimSpace(line)
		if choice == "" {
			continue
		}

		switch choice[0] {
		case 'C':
			*commitAll = true
			return true, c.commitFile(stdout, spn, hpn)
		case 'c':
			return true, c.commitFile(stdout, spn, hpn)
		case 'i':
			return false, nil
		case 'd':
			if err := c.shellDiff(stdout, spn, hpn); err != nil {
				fmt.Fprintf(stdout, "diff failed: %v\n", err)
			}
		case 'q':
			return false, errCommitQuit
		}
	}
}

// commitFile overwrites hpn with the overlay file's content, creating
// hpn with spn's mode bits if it does not exist yet.
func (c *Context) commitFile(stdout io.Writer, spn, hpn string) error {
	fmt.Fprintf(stdout, "  > Committing %s\n", hpn)
	info, err := os.Stat(spn)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(spn)
	if err != nil {
		return err
	}
	return os.WriteFile(hpn, data, info.Mode().Perm())
}

// shellDiff shells out to diff(1) the same way the original
// implementation did, rather than reimplementing a differ.
func (c *Context) shellDiff(stdout io.Writer, spn, hpn string) error {
	cmd := exec.Command("diff", "-urN", spn, hpn)
	cmd.Stdout = stdout
	cmd.Stderr = stdout
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return nil // diff(1) exits 1 to report "files differ", not a failure
	}
	return err
}
