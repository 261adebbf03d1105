// Package config loads server configuration.
//
// Values are resolved in three layers: built-in defaults, then an optional
// YAML file, then environment variables. Later layers win.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config is the complete server configuration.
type Config struct {
	Addr  string      `yaml:"addr"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
	Auth  AuthConfig  `yaml:"auth"`
	OIDC  OIDCConfig  `yaml:"oidc"`

	// ShutdownTimeout bounds how long in-flight requests get to finish.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Kind        string `yaml:"kind"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig configures principal resolution.
type AuthConfig struct {
	JWTSecret            string        `yaml:"jwt_secret"`
	TokenTTL             time.Duration `yaml:"token_ttl"`
	TokenIssuer          string        `yaml:"token_issuer"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	SessionPurgeInterval time.Duration `yaml:"session_purge_interval"`
	TrustForwardAuth     bool          `yaml:"trust_forward_auth"`

	// BootstrapUser and BootstrapPassword create the first superuser on an
	// empty store at startup.
	BootstrapUser     string `yaml:"bootstrap_user"`
	BootstrapPassword string `yaml:"bootstrap_password"`
}

// OIDCConfig enables SSO login when Issuer is set.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether SSO login is configured.
func (o OIDCConfig) Enabled() bool { return o.Issuer != "" }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:  ":8080",
		Store: StoreConfig{Kind: StoreMemory, SQLitePath: "tasktracker.db"},
		Log:   LogConfig{Level: "info", Format: "text"},
		Auth: AuthConfig{
			TokenTTL:             24 * time.Hour,
			TokenIssuer:          "tasktracker",
			SessionTTL:           24 * time.Hour,
			SessionPurgeInterval: time.Hour,
		},
		ShutdownTimeout: 15 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Read is Load without validation, for tools that only need part of the
// configuration.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, cfg.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Addr)
	str("STORE", &c.Store.Kind)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("TOKEN_ISSUER", &c.Auth.TokenIssuer)
	dur("TOKEN_TTL", &c.Auth.TokenTTL)
	dur("SESSION_TTL", &c.Auth.SessionTTL)
	dur("SESSION_PURGE_INTERVAL", &c.Auth.SessionPurgeInterval)
	dur("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	if v := getenv("TRUST_FORWARD_AUTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRUST_FORWARD_AUTH: %w", err))
		} else {
			c.Auth.TrustForwardAuth = b
		}
	}
	str("BOOTSTRAP_USER", &c.Auth.BootstrapUser)
	str("BOOTSTRAP_PASSWORD", &c.Auth.BootstrapPassword)
	str("OIDC_ISSUER", &c.OIDC.Issuer)
	str("OIDC_CLIENT_ID", &c.OIDC.ClientID)
	str("OIDC_CLIENT_SECRET", &c.OIDC.ClientSecret)
	str("OIDC_REDIRECT_URL", &c.OIDC.RedirectURL)

	// A bare DATABASE_URL has always meant PostgreSQL.
	if getenv("STORE") == "" && getenv("DATABASE_URL") != "" {
		c.Store.Kind = StorePostgres
	}
	return errors.Join(errs...)
}

// Validate reports every problem that would prevent startup.
func (c Config) Validate() error {
	var errs []error
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("token and session TTLs must be positive"))
	}
	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks that the selected backend has what it needs to connect.
func (s StoreConfig) Validate() error {
	switch s.Kind {
	case StoreMemory:
		return nil
	case StorePostgres:
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if s.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q", s.Kind)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by l.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
