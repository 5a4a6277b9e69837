package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the default location of sbox's config file,
// ~/.config/sbox/config.yaml (or $XDG_CONFIG_HOME/sbox/config.yaml).
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sbox", "config.yaml"), nil
}

// DefaultHistoryDB returns the default sqlite path for the commit
// history audit trail, alongside the config file.
func DefaultHistoryDB() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sbox", "history.db"), nil
}
