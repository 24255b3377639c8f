// Package config loads the sweep settings from the environment and the
// retention rules from their file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dm/indexsweep/internal/pool"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment keys.
const (
	KeyNodes         = "ES_DB_URL"
	KeyUsername      = "ES_ID"
	KeyPassword      = "ES_PW"
	KeyPoolSize      = "ES_POOL_CNT"
	KeyRulesPath     = "INDEX_LIST_PATH"
	KeyInsecure      = "ES_INSECURE"
	KeySweepSchedule = "SWEEP_SCHEDULE"
	KeyMetricsAddr   = "METRICS_ADDR"
	KeyLogLevel      = "LOG_LEVEL"
	KeyLogFormat     = "LOG_FORMAT"
)

const (
	DefaultSweepSchedule = "0 3 * * *"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config is the process configuration.
type Config struct {
	Nodes         string
	Username      string
	Password      string
	PoolSize      int
	RulesPath     string
	Insecure      bool
	SweepSchedule string
	MetricsAddr   string
	LogLevel      string
	LogFormat     string
}

// LoadEnvFile loads path into the process environment. Variables already set
// win over the file and a missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for _, key := range []string{
		KeyNodes, KeyUsername, KeyPassword, KeyPoolSize, KeyRulesPath,
		KeyInsecure, KeySweepSchedule, KeyMetricsAddr, KeyLogLevel, KeyLogFormat,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.SetDefault(KeySweepSchedule, DefaultSweepSchedule)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)

	cfg := &Config{
		Nodes:         strings.TrimSpace(v.GetString(KeyNodes)),
		Username:      v.GetString(KeyUsername),
		Password:      v.GetString(KeyPassword),
		RulesPath:     strings.TrimSpace(v.GetString(KeyRulesPath)),
		Insecure:      v.GetBool(KeyInsecure),
		SweepSchedule: strings.TrimSpace(v.GetString(KeySweepSchedule)),
		MetricsAddr:   strings.TrimSpace(v.GetString(KeyMetricsAddr)),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
	}

	raw := strings.TrimSpace(v.GetString(KeyPoolSize))
	if raw == "" {
		return nil, fmt.Errorf("%w: %s must be set", ErrInvalidConfig, KeyPoolSize)
	}
	size, err := parsePoolSize(raw)
	if err != nil {
		return nil, err
	}
	cfg.PoolSize = size

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parsePoolSize(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, KeyPoolSize, raw)
	}
	return n, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.Nodes == "" {
		return fmt.Errorf("%w: %s must be set", ErrInvalidConfig, KeyNodes)
	}
	if c.RulesPath == "" {
		return fmt.Errorf("%w: %s must be set", ErrInvalidConfig, KeyRulesPath)
	}
	if c.PoolSize < pool.MinSize || c.PoolSize > pool.MaxSize {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d",
			ErrInvalidConfig, KeyPoolSize, pool.MinSize, pool.MaxSize, c.PoolSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %s must be one of debug, info, warn, error, got %q", ErrInvalidConfig, KeyLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %s must be text or json, got %q", ErrInvalidConfig, KeyLogFormat, c.LogFormat)
	}
	return nil
}

// Redacted returns a copy safe for logging. Passwords in node URLs are masked too.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "****"
	}
	parts := strings.Split(c.Nodes, ",")
	for i, part := range parts {
		if u, err := url.Parse(strings.TrimSpace(part)); err == nil && u.User != nil {
			parts[i] = u.Redacted()
		}
	}
	c.Nodes = strings.Join(parts, ",")
	return c
}

// LogValue logs the redacted configuration.
func (c Config) LogValue() slog.Value {
	r := c.Redacted()
	return slog.GroupValue(
		slog.String("nodes", r.Nodes),
		slog.String("username", r.Username),
		slog.String("password", r.Password),
		slog.Int("pool_size", r.PoolSize),
		slog.String("rules_path", r.RulesPath),
		slog.Bool("insecure", r.Insecure),
		slog.String("sweep_schedule", r.SweepSchedule),
		slog.String("metrics_addr", r.MetricsAddr),
		slog.String("log_level", r.LogLevel),
		slog.String("log_format", r.LogFormat),
	)
}
