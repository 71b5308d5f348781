package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setRequiredEnv supplies the three values that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TGCRM_TELEGRAM_TOKEN", "12345:test-token")
	t.Setenv("TGCRM_SERVER_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("TGCRM_GEMINI_API_KEY", "test-api-key")
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadWithoutConfigFile(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file = %v, want nil", err)
	}

	if cfg.Telegram.Token != "12345:test-token" {
		t.Errorf("Telegram.Token = %q, want env value", cfg.Telegram.Token)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default :8080", cfg.Server.Addr)
	}
	if cfg.Telegram.PollInterval != 3*time.Second {
		t.Errorf("Telegram.PollInterval = %v, want default 3s", cfg.Telegram.PollInterval)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default info", cfg.Log.Level)
	}
}

func TestLoadSecretsFromEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	// The file carries no secrets at all; env must fill them in.
	path := writeConfig(t, "log:\n  level: warn\ndatabase:\n  path: ./from-file.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.JWTSecret != "0123456789abcdef0123" {
		t.Errorf("Server.JWTSecret = %q, want env value", cfg.Server.JWTSecret)
	}
	if cfg.Gemini.APIKey != "test-api-key" {
		t.Errorf("Gemini.APIKey = %q, want env value", cfg.Gemini.APIKey)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want file value warn", cfg.Log.Level)
	}
	if cfg.Database.Path != "./from-file.db" {
		t.Errorf("Database.Path = %q, want file value", cfg.Database.Path)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TGCRM_LOG_LEVEL", "debug")

	path := writeConfig(t, "log:\n  level: warn\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want env value debug", cfg.Log.Level)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing telegram token",
			env: map[string]string{
				"TGCRM_SERVER_JWT_SECRET": "0123456789abcdef0123",
				"TGCRM_GEMINI_API_KEY":    "test-api-key",
			},
		},
		{
			name: "jwt secret too short",
			env: map[string]string{
				"TGCRM_TELEGRAM_TOKEN":    "12345:test-token",
				"TGCRM_SERVER_JWT_SECRET": "short",
				"TGCRM_GEMINI_API_KEY":    "test-api-key",
			},
		},
		{
			name: "invalid log level",
			env: map[string]string{
				"TGCRM_TELEGRAM_TOKEN":    "12345:test-token",
				"TGCRM_SERVER_JWT_SECRET": "0123456789abcdef0123",
				"TGCRM_GEMINI_API_KEY":    "test-api-key",
				"TGCRM_LOG_LEVEL":         "verbose",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
				t.Error("Load() = nil, want validation error")
			}
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	setRequiredEnv(t)

	path := writeConfig(t, "log: [not\n  a mapping\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() = nil, want parse error")
	}
}
