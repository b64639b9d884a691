package handlers

import (
	"time"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the admin console API: teams, applications,
// absences, assignment runs, users and the audit log.
type AdminHandler struct {
	teamRepo    *repository.TeamRepository
	appRepo     *repository.ApplicationRepository
	absenceRepo *repository.AbsenceRepository
	runRepo     *repository.RunRepository
	userRepo    *repository.UserRepository
	auditRepo   *repository.AuditRepository
	statsRepo   *repository.StatsRepository

	assignments *services.AssignmentService
	authService *services.AuthService
	validator   *security.ValidationService
	logger      *security.Logger
	cache       cache.Cache
	cacheTTL    time.Duration
}

// AdminDeps carries the services AdminHandler is built from.
// Cache may be nil to disable view caching.
type AdminDeps struct {
	Assignments *services.AssignmentService
	Auth        *services.AuthService
	Config      *security.SecurityConfig
	Logger      *security.Logger
	Cache       cache.Cache
	CacheTTL    time.Duration
}

// NewAdminHandler creates a new instance of AdminHandler with initialized repositories.
func NewAdminHandler(d AdminDeps) *AdminHandler {
	return &AdminHandler{
		teamRepo:    repository.NewTeamRepository(),
		appRepo:     repository.NewApplicationRepository(),
		absenceRepo: repository.NewAbsenceRepository(),
		runRepo:     repository.NewRunRepository(),
		userRepo:    repository.NewUserRepository(),
		auditRepo:   repository.NewAuditRepository(),
		statsRepo:   repository.NewStatsRepository(),
		assignments: d.Assignments,
		authService: d.Auth,
		validator:   security.NewValidationService(d.Config),
		logger:      d.Logger,
		cache:       d.Cache,
		cacheTTL:    d.CacheTTL,
	}
}

// audit records an admin mutation. A failed insert is logged and does not
// fail the request; the change itself has already been made.
func (h *AdminHandler) audit(c *fiber.Ctx, action, objectType string, objectID *int) {
	a := actor(c)
	err := h.auditRepo.Log(c.Context(), &models.AuditLog{
		ActorID:    a.UserID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		IPAddress:  a.IPAddress,
		UserAgent:  a.UserAgent,
	})
	if err != nil {
		h.logger.Error("failed to write audit log for "+action, err)
	}
}

func (h *AdminHandler) event(c *fiber.Ctx, eventType security.SecurityEventType, extra map[string]interface{}) {
	a := actor(c)
	h.logger.SecurityEvent(eventType, a.UserID, a.Email, a.IPAddress, a.UserAgent, extra)
}

// Dashboard returns application counts per status and the overall fill rate.
// The result is cached until the next write or the cache TTL.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ctx := c.Context()

	var stats repository.DashboardStats
	if h.cache != nil {
		ok, err := cache.GetJSON(ctx, h.cache, cache.KeyDashboardStats, &stats)
		if err != nil {
			h.logger.Warn("dashboard cache read failed: " + err.Error())
		}
		if ok {
			return c.JSON(stats)
		}
	}

	fresh, err := h.statsRepo.GetDashboardStats(ctx)
	if err != nil {
		return err
	}

	if h.cache != nil {
		if err := cache.SetJSON(ctx, h.cache, cache.KeyDashboardStats, fresh, h.cacheTTL); err != nil {
			h.logger.Warn("dashboard cache write failed: " + err.Error())
		}
	}
	return c.JSON(fresh)
}

// ListUsers returns all console accounts. Password hashes are never serialized.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userRepo.ListAll(c.Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(users)
}

type createUserRequest struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Role     string `json:"role" form:"role"`
	Password string `json:"password" form:"password"`
}

// CreateUser adds a console account.
//
// Body (JSON or form): email, name, role (admin|officer), password
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.ValidateEmail(req.Email); err != nil {
		return badRequest(err)
	}
	if err := h.validator.ValidateRequired("name", req.Name); err != nil {
		return badRequest(err)
	}
	if err := h.validator.ValidateUserRole(req.Role); err != nil {
		return badRequest(err)
	}
	if err := h.validator.ValidatePassword(req.Password); err != nil {
		return badRequest(err)
	}

	user, err := h.authService.CreateUser(c.Context(), req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		return err
	}

	h.audit(c, "CREATE_USER", "user", &user.ID)
	h.event(c, security.EventUserCreate, map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(user)
}

// ViewAuditLog returns recent audit entries, newest first.
//
// Query: limit (default 100, max 500)
func (h *AdminHandler) ViewAuditLog(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
	}

	logs, err := h.auditRepo.ListRecent(c.Context(), limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return c.JSON(logs)
}
