// Package services provides the business logic layer for Roster.
// This file implements admin authentication and account creation.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/avissapr/roster/internal/security"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password alike, so callers cannot tell which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked is returned while an account is locked after repeated failures.
	ErrAccountLocked = errors.New("account temporarily locked")
)

// UserStore is the persistence AuthService needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AuthService handles authentication and password management operations.
//
// Security Notes:
//   - bcrypt comparison is constant-time
//   - Plaintext passwords are never stored or logged
//   - Failed logins are counted per email and lock the account at the threshold
type AuthService struct {
	users     UserStore
	lockout   *security.AccountLockout
	validator *security.ValidationService
	cost      int
}

// NewAuthService creates an AuthService backed by the users table.
func NewAuthService(cfg *security.SecurityConfig) *AuthService {
	return NewAuthServiceWithStore(repository.NewUserRepository(), cfg)
}

// NewAuthServiceWithStore creates an AuthService over an arbitrary UserStore.
func NewAuthServiceWithStore(users UserStore, cfg *security.SecurityConfig) *AuthService {
	return &AuthService{
		users:     users,
		lockout:   security.NewAccountLockout(cfg.AccountLockoutThreshold, cfg.AccountLockoutDuration),
		validator: security.NewValidationService(cfg),
		cost:      cfg.BcryptCost,
	}
}

// Authenticate verifies credentials and returns the user on success.
//
// Error Cases:
//   - ErrAccountLocked: too many recent failures for this email
//   - ErrInvalidCredentials: unknown email or wrong password
//   - other: database failure
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.lockout.IsLocked(email) {
		return nil, ErrAccountLocked
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.lockout.RecordFailedAttempt(email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if s.lockout.RecordFailedAttempt(email) {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	s.lockout.ResetAttempts(email)
	return user, nil
}

// HashPassword generates a bcrypt hash of the provided plaintext password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	return string(hash), err
}

// CreateUser validates and stores a new console account.
func (s *AuthService) CreateUser(ctx context.Context, email, name, role, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = s.validator.SanitizeString(name)

	if err := s.validator.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateRequired("name", name); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUserRole(role); err != nil {
		return nil, err
	}
	if err := s.validator.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, Name: name, Role: role, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
