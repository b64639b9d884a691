package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all errors found.
// The database URL is not required here; see RequireDatabase.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	switch c.Env {
	case "development", "production", "test":
	default:
		errs = append(errs, ValidationError{"env", c.Env, "must be development, production or test"})
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, ValidationError{"port", c.Port, "must be a TCP port number"})
	}

	if c.Database.MaxConns < 1 {
		errs = append(errs, ValidationError{"database.max_conns", c.Database.MaxConns, "must be at least 1"})
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, ValidationError{"database.min_conns", c.Database.MinConns, "must be between 0 and max_conns"})
	}

	if c.Redis.URL != "" && c.Redis.LockTTL <= 0 {
		errs = append(errs, ValidationError{"redis.lock_ttl", c.Redis.LockTTL, "must be positive"})
	}
	if c.Redis.CacheTTL < 0 {
		errs = append(errs, ValidationError{"redis.cache_ttl", c.Redis.CacheTTL, "must not be negative"})
	}

	if c.Session.Timeout <= 0 {
		errs = append(errs, ValidationError{"session.timeout", c.Session.Timeout, "must be positive"})
	}

	limits := []struct {
		field string
		n     int
	}{
		{"ratelimit.login", c.RateLimit.Login},
		{"ratelimit.apply", c.RateLimit.Apply},
		{"ratelimit.assign", c.RateLimit.Assign},
	}
	for _, l := range limits {
		if l.n < 1 {
			errs = append(errs, ValidationError{l.field, l.n, "must be at least 1 request per minute"})
		}
	}

	return errs
}

// RequireDatabase reports an error when no database URL is configured.
// Commands that talk to PostgreSQL call it after Load.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return ValidationError{"database.url", "", "DATABASE_URL must be set"}
	}
	return nil
}
