// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Mode     string `yaml:"mode"` // polling | webhook (future)
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // polling workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type WebConfig struct {
	Port         int           `yaml:"port"`
	JWTSecret    string        `yaml:"jwt_secret"`
	CookieSecure bool          `yaml:"cookie_secure"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	Language     string        `yaml:"language"` // locale for user-facing texts
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // binding cache TTL
}

type RelayConfig struct {
	Timeout time.Duration `yaml:"timeout"` // per delivery attempt
}

type LimitsConfig struct {
	BindPerMinute  int `yaml:"bind_per_minute"`  // pairing attempts per chat
	LoginPerMinute int `yaml:"login_per_minute"` // login attempts per username
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Relay    RelayConfig    `yaml:"relay"`
	Limits   LimitsConfig   `yaml:"limits"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 24 * time.Hour
	}
	if cfg.Web.Language == "" {
		cfg.Web.Language = "ru"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Relay.Timeout <= 0 {
		cfg.Relay.Timeout = 10 * time.Second
	}
	if cfg.Limits.BindPerMinute <= 0 {
		cfg.Limits.BindPerMinute = 10
	}
	if cfg.Limits.LoginPerMinute <= 0 {
		cfg.Limits.LoginPerMinute = 10
	}

	// Minimal validation
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level %q is not one of trace|debug|info|warn|error", cfg.Log.Level)
	}
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Web.JWTSecret == "" {
		return nil, errors.New("web.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
