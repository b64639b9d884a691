package handlers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/security"
	"github.com/gofiber/fiber/v2"
)

// ListTeams returns every team with its occupancy.
func (h *AdminHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := cachedTeams(c.Context(), h.cache, h.cacheTTL, h.teamRepo, h.logger)
	if err != nil {
		return err
	}
	return c.JSON(teams)
}

// CreateTeam adds a team.
//
// Body (JSON or form): name, description, capacity, required_skills
func (h *AdminHandler) CreateTeam(c *fiber.Ctx) error {
	var form models.TeamForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.ValidateTeam(&form); err != nil {
		return badRequest(err)
	}

	team := &models.Team{
		Name:           form.Name,
		Description:    form.Description,
		Capacity:       form.Capacity,
		RequiredSkills: form.RequiredSkills,
	}
	if err := h.teamRepo.Create(c.Context(), team); err != nil {
		return err
	}

	h.audit(c, "CREATE_TEAM", "team", &team.ID)
	h.event(c, security.EventTeamCreate, map[string]interface{}{
		"team_id":  team.ID,
		"capacity": team.Capacity,
	})
	invalidate(c.Context(), h.cache, h.logger, cache.KeyTeams, cache.KeyDashboardStats)

	return c.Status(fiber.StatusCreated).JSON(team)
}

// UpdateTeam edits a team. Capacity may drop below the current occupancy;
// the next run reports the overflow and treats the team as full.
func (h *AdminHandler) UpdateTeam(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var form models.TeamForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.ValidateTeam(&form); err != nil {
		return badRequest(err)
	}

	team := &models.Team{
		ID:             id,
		Name:           form.Name,
		Description:    form.Description,
		Capacity:       form.Capacity,
		RequiredSkills: form.RequiredSkills,
	}
	if err := h.teamRepo.Update(c.Context(), team); err != nil {
		return err
	}

	h.audit(c, "UPDATE_TEAM", "team", &id)
	h.event(c, security.EventTeamUpdate, map[string]interface{}{
		"team_id":  id,
		"capacity": team.Capacity,
	})
	invalidate(c.Context(), h.cache, h.logger, cache.KeyTeams, cache.KeyDashboardStats)

	updated, err := h.teamRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// DeleteTeam removes a team. Its assigned members return to pending.
//
// Response: {"released": <number of applications that lost the team>}
func (h *AdminHandler) DeleteTeam(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	released, err := h.teamRepo.Delete(c.Context(), id)
	if err != nil {
		return err
	}

	h.audit(c, "DELETE_TEAM", "team", &id)
	h.event(c, security.EventTeamDelete, map[string]interface{}{
		"team_id":  id,
		"released": released,
	})
	invalidate(c.Context(), h.cache, h.logger, cache.KeyTeams, cache.KeyDashboardStats)

	return c.JSON(fiber.Map{"released": released})
}

// TeamRoster lists a team's assigned members.
//
// Query: format=json (default) or format=csv for a download.
func (h *AdminHandler) TeamRoster(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	team, err := h.teamRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	roster, err := h.teamRepo.Roster(c.Context(), id)
	if err != nil {
		return err
	}
	if roster == nil {
		roster = []models.RosterEntry{}
	}

	switch c.Query("format", "json") {
	case "json":
		return c.JSON(fiber.Map{"team": team, "members": roster})
	case "csv":
		return writeRosterCSV(c, team, roster)
	}
	return fiber.NewError(fiber.StatusBadRequest, "format must be json or csv")
}

func writeRosterCSV(c *fiber.Ctx, team *models.Team, roster []models.RosterEntry) error {
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=team-%d-roster.csv", team.ID))

	w := csv.NewWriter(c)
	if err := w.Write([]string{"Application ID", "Name", "Email", "Skills", "Submitted At"}); err != nil {
		return err
	}
	for _, e := range roster {
		if err := w.Write([]string{
			strconv.Itoa(e.ApplicationID),
			e.Name,
			e.Email,
			strings.Join(e.Skills, "; "),
			e.SubmittedAt.Format("2006-01-02 15:04:05"),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
