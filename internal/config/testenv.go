package config

import (
	"os"
	"path/filepath"
)

// SetupTestEnv exports $SPWD, $HPWD, and $SHOME for test harnesses that
// exec into the traced command and expect to see both the host and
// sandbox views of the current directory. It mirrors the original
// sbox_setenv(): HPWD is the real host cwd, SPWD is ROOT++HPWD, and
// SHOME is ROOT++$HOME when $HOME is set. Existing values are left
// untouched, same as the original's getenv() guards.
func SetupTestEnv(root string) error {
	hpwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if os.Getenv("HPWD") == "" {
		os.Setenv("HPWD", hpwd)
	}
	if os.Getenv("SPWD") == "" {
		os.Setenv("SPWD", filepath.Join(root, hpwd))
	}
	if os.Getenv("SHOME") == "" {
		if home := os.Getenv("HOME"); home != "" {
			os.Setenv("SHOME", filepath.Join(root, home))
		}
	}
	return nil
}
