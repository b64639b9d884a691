// Package repository implements database access layer for Roster.
// This file handles admin console accounts.
package repository

import (
	"context"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct{}

// NewUserRepository creates a new instance of UserRepository.
//
// Returns:
//   - *UserRepository: Initialized repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// FindByEmail retrieves a user by their email address.
// Used for authentication during login.
//
// Returns:
//   - *models.User: User object including password hash
//   - error: ErrNotFound if email doesn't exist, database error otherwise
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, role, password_hash, created_at FROM users WHERE email = $1`

	var user models.User
	err := database.DB.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return &user, nil
}

// ListAll retrieves all users ordered by name, without password hashes.
func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, email, name, role, created_at FROM users ORDER BY name`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// Create inserts a new user. The password must already be hashed.
//
// Side Effects: Populates user.ID and user.CreatedAt with database values
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return database.DB.QueryRow(ctx, query, user.Email, user.Name, user.Role, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
}
