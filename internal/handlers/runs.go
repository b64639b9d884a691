package handlers

import (
	"fmt"
	"time"

	"github.com/avissapr/roster/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Assign runs the allocator over every pending application and returns
// the run report. Only one run may be in flight; a concurrent request gets 409.
func (h *AdminHandler) Assign(c *fiber.Ctx) error {
	report, err := h.assignments.Run(c.Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// PreviewAssign returns what a run would do now without saving anything.
func (h *AdminHandler) PreviewAssign(c *fiber.Ctx) error {
	report, err := h.assignments.Preview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// ListRuns returns recent runs without their summaries.
//
// Query: limit (default 20, max 200)
func (h *AdminHandler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 200 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 200")
	}

	runs, err := h.runRepo.ListRecent(c.Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []models.AssignmentRun{}
	}
	return c.JSON(runs)
}

// runDownload is the YAML form of a stored run.
type runDownload struct {
	RunID       string    `yaml:"run_id"`
	TriggeredBy *int      `yaml:"triggered_by,omitempty"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
	Processed   int       `yaml:"processed"`
	Assigned    int       `yaml:"assigned"`
	Waitlisted  int       `yaml:"waitlisted"`
	Log         string    `yaml:"log"`
}

// RunSummary downloads a run's log.
//
// Query: format=text (default) or format=yaml
func (h *AdminHandler) RunSummary(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}

	run, err := h.runRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	switch c.Query("format", "text") {
	case "text":
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=run-%s.txt", run.ID))
		return c.SendString(run.Summary)
	case "yaml":
		c.Set(fiber.HeaderContentType, "application/yaml")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=run-%s.yaml", run.ID))
		enc := yaml.NewEncoder(c)
		enc.SetIndent(2)
		if err := enc.Encode(runDownload{
			RunID:       run.ID,
			TriggeredBy: run.TriggeredBy,
			StartedAt:   run.StartedAt,
			FinishedAt:  run.FinishedAt,
			Processed:   run.Processed,
			Assigned:    run.Assigned,
			Waitlisted:  run.Waitlisted,
			Log:         run.Summary,
		}); err != nil {
			return err
		}
		return enc.Close()
	}
	return fiber.NewError(fiber.StatusBadRequest, "format must be text or yaml")
}
