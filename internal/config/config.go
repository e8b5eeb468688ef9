// Package config loads the maternal-risk service configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping them to keys.
const EnvPrefix = "MATERNAL_"

const maxConfigFileSize = 1024 * 1024

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendNone      = "none"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Dataset  DatasetConfig  `koanf:"dataset"`
	Model    ModelConfig    `koanf:"model"`
	Store    StoreConfig    `koanf:"store"`
	Firebase FirebaseConfig `koanf:"firebase"`
	Telegram TelegramConfig `koanf:"telegram"`
	Report   ReportConfig   `koanf:"report"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	SecureCookies   bool          `koanf:"secure_cookies"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DatasetConfig struct {
	Path string `koanf:"path"`
}

type ModelConfig struct {
	// Cache keeps the trained model for as long as the dataset is unchanged.
	// When false every prediction retrains from scratch.
	Cache *bool `koanf:"cache"`
}

// CacheEnabled reports whether the model cache is on. It defaults to true.
func (m ModelConfig) CacheEnabled() bool {
	return m.Cache == nil || *m.Cache
}

type StoreConfig struct {
	Backend     string `koanf:"backend"`
	Collection  string `koanf:"collection"`
	DatabaseURL Secret `koanf:"database_url"`
	Migrations  string `koanf:"migrations"`
}

type FirebaseConfig struct {
	SecretsPath string `koanf:"secrets_path"`
}

type TelegramConfig struct {
	Token  Secret `koanf:"token"`
	ChatID int64  `koanf:"chat_id"`
}

// Enabled reports whether journal notifications should be sent.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type ReportConfig struct {
	FontPath string `koanf:"font_path"`
}

// Load reads configuration from an optional YAML file and then from
// MATERNAL_* environment variables, which take precedence.
//
//	MATERNAL_SERVER_PORT       -> server.port
//	MATERNAL_STORE_DATABASE_URL -> store.database_url
//
// An empty path skips the file. A path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps MATERNAL_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return io.ReadAll(f)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 12 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "data/maternal_health_risk.csv"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFirestore
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "Maternal"
	}
	if cfg.Store.Migrations == "" {
		cfg.Store.Migrations = "file://migrations"
	}
	if cfg.Firebase.SecretsPath == "" {
		cfg.Firebase.SecretsPath = "secrets.toml"
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Store.Backend {
	case BackendFirestore, BackendNone:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required when telegram.token is set"))
	}
	return errors.Join(errs...)
}
