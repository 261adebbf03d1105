package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasktracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
addr: ":9000"
store:
  kind: sqlite
  sqlite_path: /var/lib/tasks.db
log:
  level: debug
  format: json
auth:
  jwt_secret: from-file
  session_ttl: 2h
`)
	for _, key := range []string{"ADDR", "STORE", "DATABASE_URL", "SQLITE_PATH", "SESSION_TTL"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TOKEN_TTL", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, StoreSQLite, cfg.Store.Kind)
	assert.Equal(t, "/var/lib/tasks.db", cfg.Store.SQLitePath)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "tasktracker", cfg.Auth.TokenIssuer)
}

func TestDatabaseURLImpliesPostgres(t *testing.T) {
	cfg := Default()
	env := map[string]string{"DATABASE_URL": "postgres://localhost/tasks", "JWT_SECRET": "s"}
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, StorePostgres, cfg.Store.Kind)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{"SESSION_TTL": "forever", "TRUST_FORWARD_AUTH": "maybe"}
	err := cfg.applyEnv(func(k string) string { return env[k] })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
	assert.Contains(t, err.Error(), "TRUST_FORWARD_AUTH")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"unknown store", func(c *Config) { c.Store.Kind = "mongo" }, "unknown store"},
		{"postgres without url", func(c *Config) { c.Store.Kind = StorePostgres }, "DATABASE_URL"},
		{"partial oidc", func(c *Config) { c.OIDC.Issuer = "https://id.example.com" }, "OIDC_CLIENT_ID"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "secret"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestReadSkipsValidation(t *testing.T) {
	for _, key := range []string{"STORE", "DATABASE_URL", "JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg, err := Read("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Store.Validate())

	_, err = Load("")
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}
