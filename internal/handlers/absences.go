package handlers

import (
	"github.com/avissapr/roster/internal/models"
	"github.com/gofiber/fiber/v2"
)

// ListAbsences returns recorded absences, latest date first.
func (h *AdminHandler) ListAbsences(c *fiber.Ctx) error {
	absences, err := h.absenceRepo.ListAll(c.Context())
	if err != nil {
		return err
	}
	if absences == nil {
		absences = []models.Absence{}
	}
	return c.JSON(absences)
}

// CreateAbsence records a member absence.
//
// Body (JSON or form): member_name, email (optional), date (YYYY-MM-DD), reason
func (h *AdminHandler) CreateAbsence(c *fiber.Ctx) error {
	var form models.AbsenceForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	date, err := h.validator.ValidateAbsence(&form)
	if err != nil {
		return badRequest(err)
	}

	absence := &models.Absence{
		MemberName: form.MemberName,
		Email:      form.Email,
		Date:       date,
		Reason:     form.Reason,
	}
	if err := h.absenceRepo.Create(c.Context(), absence); err != nil {
		return err
	}

	h.audit(c, "CREATE_ABSENCE", "absence", &absence.ID)

	return c.Status(fiber.StatusCreated).JSON(absence)
}

// DeleteAbsence removes an absence record.
func (h *AdminHandler) DeleteAbsence(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.absenceRepo.Delete(c.Context(), id); err != nil {
		return err
	}

	h.audit(c, "DELETE_ABSENCE", "absence", &id)

	return c.SendStatus(fiber.StatusNoContent)
}
