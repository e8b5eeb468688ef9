package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendFirestore, cfg.Store.Backend)
	assert.Equal(t, "Maternal", cfg.Store.Collection)
	assert.Equal(t, "secrets.toml", cfg.Firebase.SecretsPath)
	assert.True(t, cfg.Model.CacheEnabled())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  port: 9090
  session_ttl: 30m
dataset:
  path: /data/maternal.csv
model:
  cache: false
store:
  backend: postgres
  database_url: postgres://u:p@localhost/maternal
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "/data/maternal.csv", cfg.Dataset.Path)
	assert.False(t, cfg.Model.CacheEnabled())
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://u:p@localhost/maternal", cfg.Store.DatabaseURL.Value())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("MATERNAL_SERVER_PORT", "7070")
	t.Setenv("MATERNAL_STORE_BACKEND", "none")
	t.Setenv("MATERNAL_TELEGRAM_TOKEN", "abc")
	t.Setenv("MATERNAL_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, BackendNone, cfg.Store.Backend)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Backend = BackendPostgres }, wantErr: true},
		{name: "telegram token without chat", mutate: func(c *Config) { c.Telegram.Token = "t" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("MATERNAL_SERVER_PORT"))
	assert.Equal(t, "store.database_url", envKey("MATERNAL_STORE_DATABASE_URL"))
	assert.Equal(t, "telegram.chat_id", envKey("MATERNAL_TELEGRAM_CHAT_ID"))
}

func TestSecret_Redacted(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "hunter2", s.Value())
	assert.Equal(t, "", Secret("").String())
}

func TestStartupError_Unwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := &StartupError{Stage: "dataset", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dataset")
}
