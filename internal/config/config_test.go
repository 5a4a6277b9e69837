package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sbox", "config.yaml")

	cfg := Default()
	cfg.Root = filepath.Join(dir, "overlay")
	cfg.Interactive = true
	cfg.LogLevel = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Root != cfg.Root || got.Interactive != true || got.LogLevel != "debug" {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, cfg)
	}
}

func TestResolveRootCreatesAndValidatesDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Root: filepath.Join(dir, "a", "b", "root")}

	root, err := cfg.ResolveRoot()
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("root %s was not created as a directory: %v", root, err)
	}
	if !filepath.IsAbs(cfg.Root) {
		t.Errorf("cfg.Root not normalized to absolute: %s", cfg.Root)
	}
}

func TestResolveRootRejectsEmpty(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.ResolveRoot(); err == nil {
		t.Fatal("expected error for empty root")
	}
}
