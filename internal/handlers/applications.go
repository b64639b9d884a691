package handlers

import (
	"errors"
	"fmt"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/avissapr/roster/internal/security"
	"github.com/gofiber/fiber/v2"
)

// ListApplications returns applications in processing order.
//
// Query: status (pending|assigned|waitlisted) to filter
func (h *AdminHandler) ListApplications(c *fiber.Ctx) error {
	status := c.Query("status")

	var (
		apps []models.Application
		err  error
	)
	switch {
	case status == "":
		apps, err = h.appRepo.ListAll(c.Context())
	case models.ValidStatus(status):
		apps, err = h.appRepo.ListByStatus(c.Context(), status)
	default:
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid status %q", status))
	}
	if err != nil {
		return err
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return c.JSON(apps)
}

// GetApplication returns one application.
func (h *AdminHandler) GetApplication(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	app, err := h.appRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(app)
}

// OverrideStatus sets an application's status by hand. Assigning to a full
// team is allowed; the overflow shows up as an anomaly in the next run.
//
// Body (JSON or form): status, team_id (required for assigned)
func (h *AdminHandler) OverrideStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var form models.StatusOverrideForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.ValidateStatusOverride(&form); err != nil {
		return badRequest(err)
	}

	current, err := h.appRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	if form.Status == models.StatusAssigned {
		team, err := h.teamRepo.GetByID(c.Context(), *form.TeamID)
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("team %d does not exist", *form.TeamID))
		}
		if err != nil {
			return err
		}
		alreadyOnTeam := current.AssignedTeamID != nil && *current.AssignedTeamID == team.ID &&
			current.Status == models.StatusAssigned
		if !alreadyOnTeam && team.Remaining() == 0 {
			h.logger.Warn(fmt.Sprintf("application %d assigned by hand to full team %q (#%d, %d/%d)",
				id, team.Name, team.ID, team.Occupancy, team.Capacity))
		}
	}

	if err := h.appRepo.SetStatus(c.Context(), id, form.Status, form.TeamID); err != nil {
		return err
	}

	h.audit(c, "OVERRIDE_STATUS", "application", &id)
	h.event(c, security.EventStatusOverride, map[string]interface{}{
		"application_id": id,
		"from":           current.Status,
		"to":             form.Status,
		"team_id":        form.TeamID,
	})
	invalidate(c.Context(), h.cache, h.logger, cache.KeyTeams, cache.KeyDashboardStats)

	updated, err := h.appRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// DeleteApplication removes an application.
func (h *AdminHandler) DeleteApplication(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.appRepo.Delete(c.Context(), id); err != nil {
		return err
	}

	h.audit(c, "DELETE_APPLICATION", "application", &id)
	h.event(c, security.EventApplicationDelete, map[string]interface{}{"application_id": id})
	invalidate(c.Context(), h.cache, h.logger, cache.KeyTeams, cache.KeyDashboardStats)

	return c.SendStatus(fiber.StatusNoContent)
}
