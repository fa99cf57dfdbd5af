package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "does-not-exist")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5000 || cfg.Lock.Policy != "explicit" || cfg.Lock.IdleTimeout != 2*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Relay.RunScope != "room" || cfg.Relay.LanguageScope != "others" {
		t.Errorf("unexpected relay defaults %+v", cfg.Relay)
	}
	if cfg.Executor.Timeout != 20*time.Second || cfg.Executor.MaxConcurrent != 4 {
		t.Errorf("unexpected executor defaults %+v", cfg.Executor)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yaml := "port: 6000\nlock:\n  policy: keystroke\n  idle_timeout: 500ms\nexecutor:\n  versions:\n    python: \"3.10.0\"\n"
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FRONTEND_URL", "http://localhost:3000")
	t.Setenv("CODEROOM_RELAY_RUN_SCOPE", "sender")

	cfg, err := Load([]string{"--config", file, "--port", "7000"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7000 {
		t.Errorf("flag must win, port = %d", cfg.Port)
	}
	if cfg.Lock.Policy != "keystroke" || cfg.Lock.IdleTimeout != 500*time.Millisecond {
		t.Errorf("file values not applied: %+v", cfg.Lock)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Errorf("FrontendURL = %q", cfg.FrontendURL)
	}
	if cfg.Relay.RunScope != "sender" {
		t.Errorf("RunScope = %q", cfg.Relay.RunScope)
	}
	if cfg.Executor.Versions["python"] != "3.10.0" {
		t.Errorf("Versions = %v", cfg.Executor.Versions)
	}
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	t.Setenv("CONFIG_ENV", "does-not-exist")
	if _, err := Load([]string{"--nope"}); err == nil {
		t.Fatal("expected flag error")
	}
}
