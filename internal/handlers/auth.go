package handlers

import (
	"errors"

	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthHandler handles console login and logout.
type AuthHandler struct {
	store          *session.Store
	authService    *services.AuthService
	securityLogger *security.Logger
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(store *session.Store, authService *services.AuthService, securityLogger *security.Logger) *AuthHandler {
	return &AuthHandler{
		store:          store,
		authService:    authService,
		securityLogger: securityLogger,
	}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login checks credentials and starts a session.
//
// Body (JSON or form): email, password
//
// Side Effects:
//   - Creates session with user_id, user_email, user_name, user_role on success
//   - Logs LOGIN_SUCCESS, LOGIN_FAILURE or ACCOUNT_LOCKED
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.authService.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		event := security.EventLoginFailure
		if errors.Is(err, services.ErrAccountLocked) {
			event = security.EventAccountLocked
		}
		if errors.Is(err, services.ErrAccountLocked) || errors.Is(err, services.ErrInvalidCredentials) {
			h.securityLogger.SecurityEvent(event, nil, req.Email, c.IP(), c.Get(fiber.HeaderUserAgent),
				map[string]interface{}{"error": err.Error()})
		}
		return err
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return err
	}
	// New session id on privilege change.
	if err := sess.Regenerate(); err != nil {
		return err
	}

	sess.Set("user_id", user.ID)
	sess.Set("user_email", user.Email)
	sess.Set("user_name", user.Name)
	sess.Set("user_role", user.Role)

	if err := sess.Save(); err != nil {
		return err
	}

	userID := user.ID
	h.securityLogger.SecurityEvent(security.EventLoginSuccess, &userID, user.Email, c.IP(), c.Get(fiber.HeaderUserAgent),
		map[string]interface{}{"role": user.Role})

	return c.JSON(user)
}

// Logout destroys the session. Calling it without a session is not an error.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	userID, _ := sess.Get("user_id").(int)
	userEmail, _ := sess.Get("user_email").(string)

	if userID != 0 {
		h.securityLogger.SecurityEvent(security.EventLogout, &userID, userEmail, c.IP(), c.Get(fiber.HeaderUserAgent), nil)
	}

	if err := sess.Destroy(); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the logged-in user's identity. Requires AuthRequired.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"id":    c.Locals("user_id"),
		"email": c.Locals("user_email"),
		"name":  c.Locals("user_name"),
		"role":  c.Locals("user_role"),
	})
}
