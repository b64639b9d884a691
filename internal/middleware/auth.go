// Package middleware provides HTTP middleware functions for authentication and authorization.
// These middleware functions are used to protect routes and enforce role-based access control.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Console roles.
const (
	RoleAdmin   = "admin"
	RoleOfficer = "officer"
)

// AuthRequired ensures the request carries a logged-in session.
// Unauthenticated requests get 401 with a JSON error.
//
// Context Locals Set:
//   - user_id: The authenticated user's ID (int)
//   - user_role: "admin" or "officer"
//   - user_name: The user's display name (string)
//   - user_email: The user's email (string)
//
// Example:
//
//	admin := app.Group("/admin", middleware.AuthRequired(store))
func AuthRequired(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}

		userID, ok := sess.Get("user_id").(int)
		if !ok || userID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", sess.Get("user_role"))
		c.Locals("user_name", sess.Get("user_name"))
		c.Locals("user_email", sess.Get("user_email"))

		return c.Next()
	}
}

// RequireRole lets the request through only if user_role is one of roles.
// Must be chained after AuthRequired.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "access denied")
	}
}

// AdminOnly restricts a route to admins. Must be chained after AuthRequired.
//
// Example:
//
//	admin.Post("/assign", middleware.AdminOnly(), h.Assign)
func AdminOnly() fiber.Handler {
	return RequireRole(RoleAdmin)
}
