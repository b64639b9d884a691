// Package security provides centralized security configuration and utilities.
package security

import (
	"time"
)

// SecurityConfig holds all security-related configuration values.
type SecurityConfig struct {
	// Password storage
	BcryptCost int

	// Session management
	SessionTimeout    time.Duration
	SessionCookieName string
	SessionSecure     bool   // Require HTTPS for session cookies
	SessionSameSite   string // SameSite attribute for the session cookie

	// Brute force protection
	AccountLockoutThreshold int           // Failed logins before lockout
	AccountLockoutDuration  time.Duration // How long an account stays locked

	// Input limits
	MaxNameLength   int
	MaxSkills       int
	MaxSkillLength  int
	MaxReasonLength int
	MaxTeamCapacity int

	// Rate limits (requests per minute)
	RateLimitLogin  int // per IP
	RateLimitApply  int // per IP
	RateLimitAssign int // per admin
}

// DefaultSecurityConfig returns security configuration with recommended defaults.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		// Bcrypt cost 12 = 2^12 iterations
		BcryptCost: 12,

		SessionTimeout:    8 * time.Hour,
		SessionCookieName: "roster_session",
		SessionSecure:     true,
		SessionSameSite:   "Strict",

		AccountLockoutThreshold: 10,
		AccountLockoutDuration:  30 * time.Minute,

		MaxNameLength:   100,
		MaxSkills:       20,
		MaxSkillLength:  50,
		MaxReasonLength: 500,
		MaxTeamCapacity: 1000,

		RateLimitLogin:  5,
		RateLimitApply:  5,
		RateLimitAssign: 6,
	}
}

// PerMinute converts a requests-per-minute limit into the token refill
// interval expected by NewRateLimiter.
func PerMinute(n int) time.Duration {
	if n <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(n)
}
