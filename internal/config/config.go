// Package config loads Roster's runtime configuration from defaults, an
// optional roster.yaml, and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avissapr/roster/internal/security"
	"github.com/spf13/viper"
)

// Config is the complete runtime configuration.
type Config struct {
	Env        string          `mapstructure:"env"`
	Port       string          `mapstructure:"port"`
	Migrations string          `mapstructure:"migrations"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Session    SessionConfig   `mapstructure:"session"`
	RateLimit  RateLimitConfig `mapstructure:"ratelimit"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig configures the optional Redis instance used for the
// distributed run lock and the view cache. An empty URL disables both.
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// SessionConfig configures admin sessions.
type SessionConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds requests-per-minute limits.
type RateLimitConfig struct {
	Login  int `mapstructure:"login"`
	Apply  int `mapstructure:"apply"`
	Assign int `mapstructure:"assign"`
}

// Default returns the built-in configuration.
func Default() *Config {
	sec := security.DefaultSecurityConfig()
	return &Config{
		Env:        "development",
		Port:       "3000",
		Migrations: "file://migrations",
		Database: DatabaseConfig{
			MaxConns: 25,
			MinConns: 5,
		},
		Redis: RedisConfig{
			LockTTL:  2 * time.Minute,
			CacheTTL: 30 * time.Second,
		},
		Session: SessionConfig{
			Timeout: sec.SessionTimeout,
		},
		RateLimit: RateLimitConfig{
			Login:  sec.RateLimitLogin,
			Apply:  sec.RateLimitApply,
			Assign: sec.RateLimitAssign,
		},
	}
}

// SetDefaults registers every default value with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("env", d.Env)
	v.SetDefault("port", d.Port)
	v.SetDefault("migrations", d.Migrations)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)

	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.lock_ttl", d.Redis.LockTTL)
	v.SetDefault("redis.cache_ttl", d.Redis.CacheTTL)

	v.SetDefault("session.timeout", d.Session.Timeout)

	v.SetDefault("ratelimit.login", d.RateLimit.Login)
	v.SetDefault("ratelimit.apply", d.RateLimit.Apply)
	v.SetDefault("ratelimit.assign", d.RateLimit.Assign)
}

// BindEnv wires environment variables into v. The common deployment
// variables are read without a prefix; everything else is available as
// ROSTER_<SECTION>_<KEY>, e.g. ROSTER_RATELIMIT_LOGIN.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "ENV", "ROSTER_ENV")
	_ = v.BindEnv("port", "PORT", "ROSTER_PORT")
	_ = v.BindEnv("database.url", "DATABASE_URL", "ROSTER_DATABASE_URL")
	_ = v.BindEnv("redis.url", "REDIS_URL", "ROSTER_REDIS_URL")
	_ = v.BindEnv("session.timeout", "SESSION_TIMEOUT", "ROSTER_SESSION_TIMEOUT")
}

// New returns a viper instance with defaults and environment bindings.
// If configFile is empty, roster.yaml is looked up in the working directory
// and /etc/roster; a missing file is not an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("roster")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/roster")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Security returns the default security settings with configured overrides applied.
func (c *Config) Security() *security.SecurityConfig {
	sec := security.DefaultSecurityConfig()
	sec.SessionTimeout = c.Session.Timeout
	sec.SessionSecure = c.IsProduction()
	sec.RateLimitLogin = c.RateLimit.Login
	sec.RateLimitApply = c.RateLimit.Apply
	sec.RateLimitAssign = c.RateLimit.Assign
	return sec
}
