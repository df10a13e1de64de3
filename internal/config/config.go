// Package config loads service settings from a TOML file with per-environment
// sections, then applies environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`

	Addr   string `toml:"addr"`
	WebDir string `toml:"web_dir"`
	// Timezone names the location used to cut the rolling window into days.
	Timezone string `toml:"timezone"`
	// Storage is "postgres" or "memory".
	Storage     string `toml:"storage"`
	DatabaseURL string `toml:"database_url"`
	// DisableAuth serves every request as a single local user.
	DisableAuth bool `toml:"disable_auth"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`

	// redis dashboard cache; disabled when RedisAddr is empty
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	CacheTTL      string `toml:"cache_ttl"`

	// sso
	OIDCIssuer       string `toml:"oidc_issuer"`
	OIDCClientID     string `toml:"oidc_client_id"`
	OIDCClientSecret string `toml:"oidc_client_secret"`
	OIDCRedirectURL  string `toml:"oidc_redirect_url"`

	// SessionPurgeSchedule is a cron spec for removing expired sessions.
	SessionPurgeSchedule string `toml:"session_purge_schedule"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg, nil
}

// Default returns the settings used when no config file is present.
func Default() *Config {
	return &Config{
		Addr:                 ":8080",
		WebDir:               "web",
		Timezone:             "Local",
		Storage:              "postgres",
		LogLevel:             "info",
		LogToStdout:          true,
		CacheTTL:             "10m",
		SessionPurgeSchedule: "@hourly",
	}
}

// Load reads the section for env from path, fills unset fields from Default
// and applies environment overrides. A missing file is not an error.
func Load(env, path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var t Toml
		_, err := toml.DecodeFile(path, &t)
		switch {
		case err == nil:
			if cfg, err = t.Get(env); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	cfg.Environment = strings.ToLower(env)

	applyDefaults(cfg, Default())
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Storage {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.CacheTTLDuration(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the process location.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) CacheTTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("cache_ttl: %w", err)
	}
	return d, nil
}

// OIDCEnabled reports whether enough SSO settings are present to use it.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

func applyDefaults(cfg, def *Config) {
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.WebDir == "" {
		cfg.WebDir = def.WebDir
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.Storage == "" {
		cfg.Storage = def.Storage
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogsPath == "" {
		cfg.LogToStdout = true
	}
	if cfg.CacheTTL == "" {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.SessionPurgeSchedule == "" {
		cfg.SessionPurgeSchedule = def.SessionPurgeSchedule
	}
}

func applyEnv(cfg *Config) error {
	overrides := map[string]*string{
		"ADDR":               &cfg.Addr,
		"WEB_DIR":            &cfg.WebDir,
		"TZ_NAME":            &cfg.Timezone,
		"STORAGE":            &cfg.Storage,
		"DATABASE_URL":       &cfg.DatabaseURL,
		"LOG_LEVEL":          &cfg.LogLevel,
		"LOGS_PATH":          &cfg.LogsPath,
		"REDIS_ADDR":         &cfg.RedisAddr,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"CACHE_TTL":          &cfg.CacheTTL,
		"OIDC_ISSUER":        &cfg.OIDCIssuer,
		"OIDC_CLIENT_ID":     &cfg.OIDCClientID,
		"OIDC_CLIENT_SECRET": &cfg.OIDCClientSecret,
		"OIDC_REDIRECT_URL":  &cfg.OIDCRedirectURL,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("DISABLE_AUTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DISABLE_AUTH: %w", err)
		}
		cfg.DisableAuth = b
	}
	return nil
}
