// Package config manages application configuration from default values,
// config.yaml, and TGCRM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with TGCRM_ (e.g. TGCRM_TELEGRAM_TOKEN)
// or through config.yaml.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type ServerConfig struct {
	Addr      string        `mapstructure:"addr"       validate:"required"`
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"  validate:"required,min=1m,max=168h"`
}

type TelegramConfig struct {
	Token        string        `mapstructure:"token"         validate:"required"`
	BaseURL      string        `mapstructure:"base_url"      validate:"required"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,min=1s,max=5m"`
}

type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"     validate:"required"`
	Model       string  `mapstructure:"model"       validate:"required"`
	TTSModel    string  `mapstructure:"tts_model"   validate:"required"`
	TTSVoice    string  `mapstructure:"tts_voice"   validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type SchedulerConfig struct {
	// MaintenanceSchedule is a cron expression for the SQL maintenance
	// task; empty disables it.
	MaintenanceSchedule string `mapstructure:"maintenance_schedule"`
}

// Load reads and validates configuration from, in order of precedence:
// TGCRM_* environment variables, the config file at configPath, and
// defaults. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TGCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		// SetConfigFile reports a missing file as *fs.PathError, not as
		// viper's ConfigFileNotFoundError sentinel.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnvKeys registers every config key with viper's env layer.
// AutomaticEnv alone only resolves keys that already exist in another
// layer, so keys without defaults (the secrets) would never see their
// TGCRM_* variables during Unmarshal.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"log.level",
		"log.json",
		"server.addr",
		"server.jwt_secret",
		"server.token_ttl",
		"telegram.token",
		"telegram.base_url",
		"telegram.poll_interval",
		"gemini.api_key",
		"gemini.model",
		"gemini.tts_model",
		"gemini.tts_voice",
		"gemini.temperature",
		"database.path",
		"scheduler.maintenance_schedule",
	} {
		v.MustBindEnv(key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.token_ttl", 12*time.Hour)

	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.poll_interval", 3*time.Second)

	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.tts_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("gemini.tts_voice", "Kore")
	v.SetDefault("gemini.temperature", 0.7)

	v.SetDefault("database.path", "./tgcrm.db")

	v.SetDefault("scheduler.maintenance_schedule", "0 0 4 * * *")
}
