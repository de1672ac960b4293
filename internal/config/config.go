package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TEAMDASH"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Assistant AssistantConfig `yaml:"assistant"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path, when set, sends logs to a file instead of stderr.
	Path     string `yaml:"path"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// AuthConfig controls bearer authentication. With auth disabled every request
// runs as the local principal.
type AuthConfig struct {
	Enabled   bool           `yaml:"enabled"`
	JWTSecret string         `yaml:"jwt_secret"`
	Issuer    string         `yaml:"issuer"`
	Local     LocalPrincipal `yaml:"local"`
}

type LocalPrincipal struct {
	UserID      string `yaml:"user_id"`
	CandidateID string `yaml:"candidate_id"`
	ProfileID   string `yaml:"profile_id"`
	Seniority   string `yaml:"seniority"`
}

type AssistantConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxRounds int    `yaml:"max_rounds"`
}

// Enabled reports whether an LLM is configured.
func (a AssistantConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

type RealtimeConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "teamdash.db",
		},
		Log: LogConfig{
			Level:    "info",
			MaxBytes: 10 << 20,
		},
		Auth: AuthConfig{
			Issuer: "teamdash",
			Local:  LocalPrincipal{UserID: "local"},
		},
		Assistant: AssistantConfig{
			Model:     "gemini-2.5-flash",
			MaxRounds: 4,
		},
		Realtime: RealtimeConfig{
			BufferSize: 256,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// TEAMDASH_CONFIG_PATH when path is empty), then TEAMDASH_* variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + "_" + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := os.Getenv(EnvPrefix + "_" + name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s_%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("SERVER_HOST", &cfg.Server.Host)
	if err := num("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	str("DB_PATH", &cfg.DB.Path)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_PATH", &cfg.Log.Path)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("AUTH_ISSUER", &cfg.Auth.Issuer)
	if v := os.Getenv(EnvPrefix + "_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s_AUTH_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Auth.Enabled = enabled
	}
	str("LOCAL_USER_ID", &cfg.Auth.Local.UserID)
	str("LOCAL_CANDIDATE_ID", &cfg.Auth.Local.CandidateID)
	str("LOCAL_PROFILE_ID", &cfg.Auth.Local.ProfileID)
	str("LOCAL_SENIORITY", &cfg.Auth.Local.Seniority)
	str("GEMINI_API_KEY", &cfg.Assistant.APIKey)
	str("ASSISTANT_MODEL", &cfg.Assistant.Model)
	if err := num("ASSISTANT_MAX_ROUNDS", &cfg.Assistant.MaxRounds); err != nil {
		return err
	}
	return num("REALTIME_BUFFER", &cfg.Realtime.BufferSize)
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}
	if c.Assistant.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("assistant.max_rounds must be >= 1, got %d", c.Assistant.MaxRounds))
	}
	if c.Realtime.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("realtime.buffer_size must be >= 1, got %d", c.Realtime.BufferSize))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to slog.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
