package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStaleApplication is returned when a run tries to place an application
	// that is no longer pending, meaning the snapshot it was computed from is out of date.
	ErrStaleApplication = errors.New("application is no longer pending")
)

// notFound translates pgx.ErrNoRows into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
