package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Stream.RetryDelayMs != 3000 {
		t.Errorf("Stream.RetryDelayMs = %d, want 3000", cfg.Stream.RetryDelayMs)
	}
	if cfg.Stream.MaxAttempts != 5 {
		t.Errorf("Stream.MaxAttempts = %d, want 5", cfg.Stream.MaxAttempts)
	}
	if cfg.Stream.HeartbeatSeconds != 30 {
		t.Errorf("Stream.HeartbeatSeconds = %d, want 30", cfg.Stream.HeartbeatSeconds)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want 127.0.0.1", cfg.Web.Host)
	}
	if cfg.Sync.ReconcileSchedule != "@every 5m" {
		t.Errorf("Sync.ReconcileSchedule = %q, want @every 5m", cfg.Sync.ReconcileSchedule)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg.Stream.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want default 5", cfg.Stream.MaxAttempts)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[server]
api_url = "https://cms.example.org"
stream_url = "wss://cms.example.org/v1/ai/ws"

[stream]
retry_delay_ms = 500
max_attempts = 2

[web]
port = 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.APIURL != "https://cms.example.org" {
		t.Errorf("APIURL = %q", cfg.Server.APIURL)
	}
	if cfg.Stream.RetryDelay() != 500*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 500ms", cfg.Stream.RetryDelay())
	}
	if cfg.Stream.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.Stream.MaxAttempts)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Web.Port = %d, want 9000", cfg.Web.Port)
	}
	// Unset sections keep defaults.
	if cfg.Stream.HeartbeatSeconds != 30 {
		t.Errorf("HeartbeatSeconds = %d, want default 30", cfg.Stream.HeartbeatSeconds)
	}
}

func TestLoad_ExpandsCredentialPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[server]
credential_file = "~/secrets/cms-token"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "secrets", "cms-token")
	if cfg.Server.CredentialFile != want {
		t.Errorf("CredentialFile = %q, want %q", cfg.Server.CredentialFile, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
