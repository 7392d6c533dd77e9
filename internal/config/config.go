// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

// Package config loads ecommercers configuration.
//
// Sources are layered lowest to highest: built-in defaults, the YAML config
// file, environment variables, then command-line flags the user actually set.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/ecommercers/ecommercers/internal/logging"
	"github.com/ecommercers/ecommercers/internal/xdg"
)

// Session backends.
const (
	SessionBackendRedis = "redis"
	SessionBackendBolt  = "bolt"
)

// Notify backends.
const (
	NotifyBackendLog  = "log"
	NotifyBackendNATS = "nats"
)

// MinSecretLength is the shortest accepted HS256 signing secret in bytes.
const MinSecretLength = 32

// LogConfig controls logger output.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// DatabaseConfig locates the credential store.
type DatabaseConfig struct {
	URL      string `koanf:"url" yaml:"url"`
	MaxConns int32  `koanf:"max_conns" yaml:"max_conns" jsonschema:"minimum=1"`
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Backend       string        `koanf:"backend" yaml:"backend" jsonschema:"enum=redis,enum=bolt"`
	RedisURL      string        `koanf:"redis_url" yaml:"redis_url"`
	BoltPath      string        `koanf:"bolt_path" yaml:"bolt_path"`
	SweepInterval time.Duration `koanf:"sweep_interval" yaml:"sweep_interval"`
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret" yaml:"jwt_secret"`
	AccessTTL  time.Duration `koanf:"access_ttl" yaml:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl" yaml:"refresh_ttl"`
}

// NotifyConfig selects where verification requests go.
type NotifyConfig struct {
	Backend string `koanf:"backend" yaml:"backend" jsonschema:"enum=log,enum=nats"`
	NATSURL string `koanf:"nats_url" yaml:"nats_url"`
	Subject string `koanf:"subject" yaml:"subject"`
}

// MetricsConfig configures the observability server. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// Config is the full application configuration.
type Config struct {
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Session  SessionConfig  `koanf:"session" yaml:"session"`
	Auth     AuthConfig     `koanf:"auth" yaml:"auth"`
	Notify   NotifyConfig   `koanf:"notify" yaml:"notify"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
}

// defaults returns the built-in values keyed by koanf path.
// bolt_path is filled in from XDG_DATA_HOME when it can be resolved.
func defaults() map[string]any {
	d := map[string]any{
		"log.format":             "json",
		"log.level":              "info",
		"database.max_conns":     int32(10),
		"session.backend":        SessionBackendRedis,
		"session.redis_url":      "",
		"session.bolt_path":      "",
		"session.sweep_interval": 10 * time.Minute,
		"auth.jwt_secret":        "",
		"auth.access_ttl":        10 * time.Minute,
		"auth.refresh_ttl":       30 * 24 * time.Hour,
		"notify.backend":         NotifyBackendLog,
		"notify.nats_url":        "",
		"notify.subject":         "ecommercers.email.verification",
		"metrics.addr":           "127.0.0.1:9100",
		"database.url":           "",
	}
	if path, err := xdg.SessionDBPath(); err == nil {
		d["session.bolt_path"] = path
	}
	return d
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"DATABASE_URL":    "database.url",
	"REDIS_URL":       "session.redis_url",
	"NATS_URL":        "notify.nats_url",
	"AUTH_JWT_SECRET": "auth.jwt_secret",
}

// environ lists the mapped variables that lookup has a value for, in
// KEY=value form.
func environ(lookup func(string) (string, bool)) func() []string {
	return func() []string {
		out := make([]string, 0, len(envKeys))
		for name := range envKeys {
			if val, ok := lookup(name); ok {
				out = append(out, name+"="+val)
			}
		}
		return out
	}
}

// envKey maps a variable onto its config key. Unmapped and empty
// variables are skipped.
func envKey(name, val string) (string, any) {
	key, ok := envKeys[name]
	if !ok || val == "" {
		return "", nil
	}
	return key, val
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"log-format":     "log.format",
	"log-level":      "log.level",
	"database-url":   "database.url",
	"session-store":  "session.backend",
	"redis-url":      "session.redis_url",
	"bolt-path":      "session.bolt_path",
	"sweep-interval": "session.sweep_interval",
	"access-ttl":     "auth.access_ttl",
	"refresh-ttl":    "auth.refresh_ttl",
	"notify":         "notify.backend",
	"nats-url":       "notify.nats_url",
	"notify-subject": "notify.subject",
	"metrics-addr":   "metrics.addr",
}

// RegisterFlags adds the configuration flags to fs. The JWT secret has no
// flag so it never appears in process listings.
func RegisterFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("log-format", d["log.format"].(string), "log format (json or text)")
	fs.String("log-level", d["log.level"].(string), "minimum log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL (env DATABASE_URL)")
	fs.String("session-store", d["session.backend"].(string), "session store backend (redis or bolt)")
	fs.String("redis-url", "", "Redis URL for the redis session store (env REDIS_URL)")
	fs.String("bolt-path", d["session.bolt_path"].(string), "database file for the bolt session store")
	fs.Duration("sweep-interval", d["session.sweep_interval"].(time.Duration), "expired session sweep interval (bolt only)")
	fs.Duration("access-ttl", d["auth.access_ttl"].(time.Duration), "access token lifetime")
	fs.Duration("refresh-ttl", d["auth.refresh_ttl"].(time.Duration), "refresh token lifetime")
	fs.String("notify", d["notify.backend"].(string), "verification notifier (log or nats)")
	fs.String("nats-url", "", "NATS server URL for the nats notifier (env NATS_URL)")
	fs.String("notify-subject", d["notify.subject"].(string), "NATS subject for verification requests")
	fs.String("metrics-addr", d["metrics.addr"].(string), "metrics/health HTTP address (empty = disabled)")
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is the YAML file to read. Empty means the XDG config file,
	// which is skipped when absent. An explicit Path must exist.
	Path string

	// Flags, when set, overrides keys with flags the user changed.
	Flags *pflag.FlagSet

	// LookupEnv reads environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from defaults, file, environment and flags.
// The result is not validated; call Validate.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "defaults").Wrap(err)
	}

	if err := loadFile(k, opts.Path); err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc:   environ(lookup),
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode configuration").Wrap(err)
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		def, err := xdg.ConfigFile()
		if err != nil {
			return nil //nolint:nilerr // no resolvable default location means no default file
		}
		path = def
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "read config file")
	}
	if err := ValidateFile(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "parse config file")
	}
	return nil
}

func invalid(key string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// Validate checks that the configuration can start the service.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "invalid log level %q", c.Log.Level)
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if err := c.ValidateSessions(); err != nil {
		return err
	}

	if len(c.Auth.JWTSecret) < MinSecretLength {
		return invalid("auth.jwt_secret", "jwt secret must be at least %d bytes", MinSecretLength)
	}
	if c.Auth.AccessTTL <= 0 {
		return invalid("auth.access_ttl", "access token ttl must be positive")
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		return invalid("auth.refresh_ttl", "refresh token ttl must exceed access token ttl")
	}

	switch c.Notify.Backend {
	case NotifyBackendLog:
	case NotifyBackendNATS:
		if c.Notify.NATSURL == "" {
			return invalid("notify.nats_url", "nats url is required for the nats notifier")
		}
		if strings.TrimSpace(c.Notify.Subject) == "" {
			return invalid("notify.subject", "notify subject is required for the nats notifier")
		}
	default:
		return invalid("notify.backend", "unknown notify backend %q", c.Notify.Backend)
	}

	return nil
}

// ValidateDatabase checks only the credential store settings, for commands
// that touch nothing else.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database url is required (set DATABASE_URL)")
	}
	if c.Database.MaxConns <= 0 {
		return invalid("database.max_conns", "max connections must be positive")
	}
	return nil
}

// ValidateSessions checks only the session store settings.
func (c *Config) ValidateSessions() error {
	switch c.Session.Backend {
	case SessionBackendRedis:
		if c.Session.RedisURL == "" {
			return invalid("session.redis_url", "redis url is required for the redis session store (set REDIS_URL)")
		}
	case SessionBackendBolt:
		if c.Session.BoltPath == "" {
			return invalid("session.bolt_path", "bolt path is required for the bolt session store")
		}
		if c.Session.SweepInterval <= 0 {
			return invalid("session.sweep_interval", "sweep interval must be positive")
		}
	default:
		return invalid("session.backend", "unknown session backend %q", c.Session.Backend)
	}
	return nil
}
