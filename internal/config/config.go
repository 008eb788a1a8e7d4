// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Spotify       SpotifyConfig       `yaml:"spotify"`
	Sync          SyncConfig          `yaml:"sync"`
	Cache         CacheConfig         `yaml:"cache"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// SpotifyConfig defines upstream catalog API settings. ClientID and
// ClientSecret usually come from env substitution
// (`${SPOTIFY_CLIENT_ID}`); when left empty they are resolved through
// the environment secrets provider at startup.
type SpotifyConfig struct {
	ClientID     string         `yaml:"client_id"`
	ClientSecret string         `yaml:"client_secret"`
	TokenURL     string         `yaml:"token_url"`
	APIURL       string         `yaml:"api_url"`
	Market       string         `yaml:"market"`
	Throttle     ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig defines outbound request pacing toward the upstream API.
type ThrottleConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// SyncConfig defines catalog sync behavior.
type SyncConfig struct {
	Interval        time.Duration `yaml:"interval"`
	PageSize        int           `yaml:"page_size"`
	MaxPagesPerShow int           `yaml:"max_pages_per_show"`
}

// CacheConfig defines per-operation read-through cache TTLs.
type CacheConfig struct {
	SearchTTL   time.Duration `yaml:"search_ttl"`
	ShowTTL     time.Duration `yaml:"show_ttl"`
	EpisodesTTL time.Duration `yaml:"episodes_ttl"`
	EpisodeTTL  time.Duration `yaml:"episode_ttl"`
}

// RateLimitConfig maps identity class to operation to policy. The "*"
// operation is the per-class default. An empty config falls back to the
// shipped defaults.
type RateLimitConfig map[string]map[string]PolicyConfig

// PolicyConfig caps requests per window for one class/operation pair.
type PolicyConfig struct {
	MaxRequests int64         `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// Policies converts the config into limiter policies.
func (r RateLimitConfig) Policies() ratelimit.Policies {
	if len(r) == 0 {
		return ratelimit.DefaultPolicies()
	}
	out := make(ratelimit.Policies, len(r))
	for class, ops := range r {
		converted := make(map[string]ratelimit.Policy, len(ops))
		for op, p := range ops {
			converted[op] = ratelimit.Policy{MaxRequests: p.MaxRequests, Window: p.Window}
		}
		out[ratelimit.Class(class)] = converted
	}
	return out
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applySpotifyDefaults(&cfg.Spotify)
	applySyncDefaults(&cfg.Sync)
	applyCacheDefaults(&cfg.Cache)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applySpotifyDefaults(s *SpotifyConfig) {
	if s.TokenURL == "" {
		s.TokenURL = "https://accounts.spotify.com/api/token"
	}
	if s.APIURL == "" {
		s.APIURL = "https://api.spotify.com/v1"
	}
	if s.Market == "" {
		s.Market = "US"
	}
	if s.Throttle.PerSecond == 0 {
		s.Throttle.PerSecond = 5.0
	}
	if s.Throttle.Burst == 0 {
		s.Throttle.Burst = 10
	}
	if s.Throttle.DailyLimit == 0 {
		s.Throttle.DailyLimit = 5000
	}
}

func applySyncDefaults(s *SyncConfig) {
	if s.Interval == 0 {
		s.Interval = 30 * time.Minute
	}
	if s.PageSize == 0 {
		s.PageSize = 50
	}
	if s.MaxPagesPerShow == 0 {
		s.MaxPagesPerShow = 2
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.SearchTTL == 0 {
		c.SearchTTL = 5 * time.Minute
	}
	if c.ShowTTL == 0 {
		c.ShowTTL = 15 * time.Minute
	}
	if c.EpisodesTTL == 0 {
		c.EpisodesTTL = 5 * time.Minute
	}
	if c.EpisodeTTL == 0 {
		c.EpisodeTTL = 15 * time.Minute
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Sync.PageSize < 1 || cfg.Sync.PageSize > 50 {
		errs = append(errs, fmt.Errorf(
			"sync.page_size must be between 1 and 50 (got %d)", cfg.Sync.PageSize,
		))
	}
	if cfg.Sync.MaxPagesPerShow < 1 {
		errs = append(errs, fmt.Errorf("sync.max_pages_per_show must be at least 1"))
	}

	for class := range cfg.RateLimit {
		switch ratelimit.Class(class) {
		case ratelimit.ClassUser, ratelimit.ClassAnonymous, ratelimit.ClassSystem:
		default:
			errs = append(errs, fmt.Errorf(
				"rate_limit: unknown identity class %q (want user, anonymous, or system)", class,
			))
		}
		for op, p := range cfg.RateLimit[class] {
			if p.MaxRequests > 0 && p.Window <= 0 {
				errs = append(errs, fmt.Errorf(
					"rate_limit.%s.%s: window is required when max_requests is set", class, op,
				))
			}
		}
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf(
			"notifications.discord.webhook_url is required when discord is enabled",
		))
	}

	return errors.Join(errs...)
}
