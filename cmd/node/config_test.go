package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.Role != "sentinel" || cfg.HashAlgorithm != "sha256" || cfg.Interval != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	content := "role: bridge\nhash: blake3\ninterval: 5s\nsendLimit: 4\n"

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := parseFlags([]string{"-config", path, "-hash", "sha3"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.Role != "bridge" {
		t.Errorf("role = %s, want bridge", cfg.Role)
	}
	if cfg.HashAlgorithm != "sha3" {
		t.Errorf("hash = %s, want sha3 from flag", cfg.HashAlgorithm)
	}
	if cfg.Interval != 5*time.Second || cfg.SendLimit != 4 {
		t.Errorf("interval/sendLimit = %s/%d", cfg.Interval, cfg.SendLimit)
	}
}

func TestConfigRejectsUnknownRole(t *testing.T) {
	if _, err := parseFlags([]string{"-role", "archivist"}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestCatalogue(t *testing.T) {
	sentinel := &Config{Role: "sentinel"}
	bridgeCfg := &Config{Role: "bridge"}

	s, _ := sentinel.catalogue()
	b, _ := bridgeCfg.catalogue()

	if s[0]&b[0]&0x04 == 0 {
		t.Error("sentinel and bridge do not share the give flag")
	}
}
