package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Stream        StreamConfig        `toml:"stream"`
	Sync          SyncConfig          `toml:"sync"`
	Notifications NotificationsConfig `toml:"notifications"`
	Web           WebConfig           `toml:"web"`
	Log           LogConfig           `toml:"log"`
}

// ServerConfig holds CMS endpoint settings
type ServerConfig struct {
	APIURL         string `toml:"api_url"`
	StreamURL      string `toml:"stream_url"`
	CredentialFile string `toml:"credential_file"`
}

// StreamConfig tunes the event-stream connection
type StreamConfig struct {
	RetryDelayMs     int `toml:"retry_delay_ms"`
	MaxAttempts      int `toml:"max_attempts"`
	HeartbeatSeconds int `toml:"heartbeat_seconds"`
}

// RetryDelay returns the reconnect delay as a duration
func (s StreamConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

// HeartbeatInterval returns the keep-alive interval as a duration
func (s StreamConfig) HeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatSeconds) * time.Second
}

// SyncConfig holds local state settings
type SyncConfig struct {
	DatabasePath      string `toml:"database_path"`
	ReconcileSchedule string `toml:"reconcile_schedule"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WebConfig holds local web UI settings
type WebConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			APIURL:         "http://localhost:8000",
			StreamURL:      "ws://localhost:8000/v1/ai/ws",
			CredentialFile: filepath.Join(home, ".authorsync", "credential"),
		},
		Stream: StreamConfig{
			RetryDelayMs:     3000,
			MaxAttempts:      5,
			HeartbeatSeconds: 30,
		},
		Sync: SyncConfig{
			DatabasePath:      filepath.Join(home, ".authorsync", "sync.db"),
			ReconcileSchedule: "@every 5m",
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Web: WebConfig{
			Port: 8090,
			Host: "127.0.0.1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.Server.CredentialFile = ExpandPath(cfg.Server.CredentialFile)
	cfg.Sync.DatabasePath = ExpandPath(cfg.Sync.DatabasePath)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "authorsync", "config.toml")
}
