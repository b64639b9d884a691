// Package handlers implements the HTTP request handlers for Roster.
// Every handler speaks JSON; failures are returned as errors and rendered
// by ErrorHandler as {"error": "..."}.
package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/avissapr/roster/internal/repository"
	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the API turns into client errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ErrorHandler maps handler errors to HTTP status codes and writes a JSON
// body. Server-side failures are logged; their details are not sent to the client.
//
// Example:
//
//	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
func ErrorHandler(logger *security.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := classify(err)

		if code >= fiber.StatusInternalServerError {
			logger.Error(fmt.Sprintf("%s %s failed", c.Method(), c.Path()), err)
		}

		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, services.ErrRunInProgress):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, repository.ErrStaleApplication):
		return fiber.StatusConflict, "applications changed during the run; nothing was saved, please run again"
	case errors.Is(err, services.ErrRunFailed):
		return fiber.StatusInternalServerError, "assignment run failed; nothing was saved"
	case errors.Is(err, services.ErrAccountLocked):
		return fiber.StatusTooManyRequests, "too many failed attempts, please try again later"
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, err.Error()
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return fiber.StatusConflict, "already exists"
	case errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation:
		return fiber.StatusBadRequest, "referenced team does not exist"
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// badRequest wraps a validation error for the client.
func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

// paramID parses a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// actor describes the logged-in user behind a request.
func actor(c *fiber.Ctx) services.Actor {
	a := services.Actor{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if id, ok := c.Locals("user_id").(int); ok {
		a.UserID = &id
	}
	a.Email, _ = c.Locals("user_email").(string)
	return a
}
