package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaults verifies the zero-flag configuration
func TestDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage type = %q", cfg.Storage.Type)
	}
	if cfg.Content.Dir != "content/" || cfg.Content.EagerWindow != 12 || !cfg.Content.HotReload {
		t.Errorf("Content = %+v", cfg.Content)
	}
	if cfg.Auth.Secret != "" {
		t.Error("Editing should be disabled by default")
	}
	if cfg.Session.Timeout.Duration() != 24*time.Hour {
		t.Errorf("Session timeout = %v", cfg.Session.Timeout)
	}
}

// TestFlagOverrides verifies CLI flags take priority
func TestFlagOverrides(t *testing.T) {
	cfg, err := Load([]string{
		"-host", "127.0.0.1",
		"-port", "9000",
		"-storage", "sqlite",
		"-storage-path", "/tmp/x.db",
		"-content", "site-content/",
		"-eager-window", "6",
		"-secret", "hunter2",
		"-rules", "validate.lua",
		"-session-timeout", "30m",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "/tmp/x.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Content.Dir != "site-content/" || cfg.Content.EagerWindow != 6 {
		t.Errorf("Content = %+v", cfg.Content)
	}
	if cfg.Auth.Secret != "hunter2" {
		t.Errorf("Secret = %q", cfg.Auth.Secret)
	}
	if cfg.Rules.Path != "validate.lua" {
		t.Errorf("Rules = %q", cfg.Rules.Path)
	}
	if cfg.Session.Timeout.Duration() != 30*time.Minute {
		t.Errorf("Timeout = %v", cfg.Session.Timeout)
	}
}

// TestVerbosityFlags verifies -v counting and -vvv expansion
func TestVerbosityFlags(t *testing.T) {
	cfg, err := Load([]string{"-v", "-v"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verbosity() != 2 {
		t.Errorf("Verbosity = %d, want 2", cfg.Verbosity())
	}

	cfg, err = Load([]string{"-vvv"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verbosity() != 3 {
		t.Errorf("Expanded verbosity = %d, want 3", cfg.Verbosity())
	}
}

// TestEnvOverrides verifies environment variables beat the defaults
func TestEnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_PORT", "7070")
	t.Setenv("FOLIO_SECRET", "env-secret")
	t.Setenv("FOLIO_SESSION_TIMEOUT", "1h")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("Secret = %q", cfg.Auth.Secret)
	}
	if cfg.Session.Timeout.Duration() != time.Hour {
		t.Errorf("Timeout = %v", cfg.Session.Timeout)
	}
}

// TestEnvBeatenByFlags verifies the priority order
func TestEnvBeatenByFlags(t *testing.T) {
	t.Setenv("FOLIO_PORT", "7070")
	cfg, err := Load([]string{"-port", "9090"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, flags should beat env", cfg.Server.Port)
	}
}

// TestTOMLFile verifies config file loading from the site directory
func TestTOMLFile(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "config", "folio.toml")
	if err := os.MkdirAll(filepath.Dir(tomlPath), 0755); err != nil {
		t.Fatal(err)
	}
	body := `
[server]
port = 3030

[content]
eager_window = 4

[session]
timeout = "2h"
`
	if err := os.WriteFile(tomlPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-dir", dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 3030 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Content.EagerWindow != 4 {
		t.Errorf("EagerWindow = %d", cfg.Content.EagerWindow)
	}
	if cfg.Session.Timeout.Duration() != 2*time.Hour {
		t.Errorf("Timeout = %v", cfg.Session.Timeout)
	}
	if cfg.Server.Dir != dir {
		t.Errorf("Dir = %q", cfg.Server.Dir)
	}
}

// TestDurationUnmarshal verifies the TOML duration type
func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if d.Duration() != 90*time.Second {
		t.Errorf("Duration = %v", d.Duration())
	}
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Error("Expected error for invalid duration")
	}
}
