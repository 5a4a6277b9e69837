package sandbox

import "fmt"

// Policy governs whether a path argument gets rewritten to the overlay
// and, if so, whether the host file's contents are copied in first.
type Policy int

const (
	// Read consults the overlay only if it already exists or the
	// path is tombstoned; a plain read-through otherwise.
	Read Policy = iota
	// Write rewrites unconditionally and, the first time the overlay
	// entry is created, copies the host file's contents into it.
	Write
	// Force rewrites unconditionally with no copy — used for
	// operations that create or remove the path themselves.
	Force
)

func (p Policy) String() string {
	switch p {
	case Read:
		return "read"
	case Write:
		return "write"
	case Force:
		return "force"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses the String() form back into a Policy, for config
// and test-condition parsing.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	case "force":
		return Force, nil
	default:
		return 0, fmt.Errorf("unknown access policy %q", s)
	}
}
