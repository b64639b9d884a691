package handlers

import (
	"context"
	"time"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/avissapr/roster/internal/security"
	"github.com/gofiber/fiber/v2"
)

// PublicHandler serves the unauthenticated intake endpoints.
type PublicHandler struct {
	appRepo   *repository.ApplicationRepository
	teamRepo  *repository.TeamRepository
	validator *security.ValidationService
	logger    *security.Logger
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewPublicHandler creates a new instance of PublicHandler.
func NewPublicHandler(cfg *security.SecurityConfig, logger *security.Logger, c cache.Cache, cacheTTL time.Duration) *PublicHandler {
	return &PublicHandler{
		appRepo:   repository.NewApplicationRepository(),
		teamRepo:  repository.NewTeamRepository(),
		validator: security.NewValidationService(cfg),
		logger:    logger,
		cache:     c,
		cacheTTL:  cacheTTL,
	}
}

// Teams lists the teams an applicant can rank, with their current occupancy.
func (h *PublicHandler) Teams(c *fiber.Ctx) error {
	teams, err := cachedTeams(c.Context(), h.cache, h.cacheTTL, h.teamRepo, h.logger)
	if err != nil {
		return err
	}
	return c.JSON(teams)
}

// Apply accepts an application from the intake form. The application is
// stored as pending and placed by the next assignment run.
//
// Body (JSON or form): name, email, preferences (ranked team ids), skills
func (h *PublicHandler) Apply(c *fiber.Ctx) error {
	var form models.ApplicationForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.ValidateApplication(&form); err != nil {
		return badRequest(err)
	}

	app := &models.Application{
		Name:        form.Name,
		Email:       form.Email,
		Preferences: form.Preferences,
		Skills:      form.Skills,
	}
	if err := h.appRepo.Create(c.Context(), app); err != nil {
		return err
	}

	h.logger.SecurityEvent(security.EventApplicationSubmit, nil, app.Email, c.IP(), c.Get(fiber.HeaderUserAgent),
		map[string]interface{}{
			"application_id": app.ID,
			"preferences":    len(app.Preferences),
		})
	invalidate(c.Context(), h.cache, h.logger, cache.KeyDashboardStats)

	return c.Status(fiber.StatusCreated).JSON(app)
}

// cachedTeams returns the team list from the view cache, loading and storing
// it on a miss. Cache failures fall through to the database.
func cachedTeams(ctx context.Context, c cache.Cache, ttl time.Duration, repo *repository.TeamRepository, logger *security.Logger) ([]models.Team, error) {
	var teams []models.Team
	if c != nil {
		ok, err := cache.GetJSON(ctx, c, cache.KeyTeams, &teams)
		if err != nil {
			logger.Warn("team cache read failed: " + err.Error())
		}
		if ok {
			return teams, nil
		}
	}

	teams, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []models.Team{}
	}

	if c != nil {
		if err := cache.SetJSON(ctx, c, cache.KeyTeams, teams, ttl); err != nil {
			logger.Warn("team cache write failed: " + err.Error())
		}
	}
	return teams, nil
}

// invalidate drops cached views after a write.
func invalidate(ctx context.Context, c cache.Cache, logger *security.Logger, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("failed to invalidate cached views: " + err.Error())
	}
}
