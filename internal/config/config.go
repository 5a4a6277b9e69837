// Package config loads and merges sbox's on-disk configuration with
// command-line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters that govern one sbox run.
type Config struct {
	Root        string `yaml:"root"`
	Interactive bool   `yaml:"interactive,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
	LogFile     string `yaml:"log_file,omitempty"`
	PTY         bool   `yaml:"pty,omitempty"`
	Watch       bool   `yaml:"watch,omitempty"`
	HistoryDB   string `yaml:"history_db,omitempty"`
}

// Default returns a Config with sbox's built-in defaults.
func Default() *Config {
	return &Config{
		Root:     filepath.Join(os.TempDir(), "sbox-root"),
		LogLevel: "info",
	}
}

// Load reads path (YAML) and merges it over Default(). A missing file is
// not an error — the caller gets the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveRoot validates that Root is usable as the overlay directory
// (spec.md's ROOT): it must resolve to an absolute path and, once
// created, be a writable directory. Root is created if missing.
func (c *Config) ResolveRoot() (string, error) {
	if c.Root == "" {
		return "", fmt.Errorf("sandbox root not configured")
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", c.Root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("create root %s: %w", abs, err)
	}
	probe := filepath.Join(abs, ".sbox-write-probe")
	if err := os.WriteFile(probe, nil, 0600); err != nil {
		return "", fmt.Errorf("root %s is not writable: %w", abs, err)
	}
	os.Remove(probe)
	c.Root = abs
	return abs, nil
}
