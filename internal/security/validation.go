// Package security provides input validation functionality.
package security

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avissapr/roster/internal/models"
)

// DateLayout is the accepted date format for form input.
const DateLayout = "2006-01-02"

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// ValidationService provides centralized input validation functions.
// All validation methods return descriptive errors that are safe to show to users.
type ValidationService struct {
	config *SecurityConfig
}

// NewValidationService creates a new validation service with security configuration.
func NewValidationService(config *SecurityConfig) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

// ValidateEmail validates email address format according to RFC 5322.
func (v *ValidationService) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if len(email) > 255 {
		return fmt.Errorf("email must be less than 255 characters")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePassword validates password meets minimum security requirements.
// Requirements: At least 8 characters, contains uppercase, lowercase, and number.
func (v *ValidationService) ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes
		return fmt.Errorf("password must be 72 characters or less")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// ValidateUserRole validates user role is one of the allowed values.
func (v *ValidationService) ValidateUserRole(role string) error {
	switch role {
	case "":
		return fmt.Errorf("role is required")
	case "admin", "officer":
		return nil
	}
	return fmt.Errorf("invalid role (must be 'admin' or 'officer')")
}

// ValidateApplication checks an intake form and normalizes it in place:
// strings are sanitized, skills are trimmed and de-duplicated.
//
// Preferences must hold 1 to MaxPreferences distinct positive team ids.
// Whether those teams exist is not checked here; the allocator skips
// unknown ids at run time.
func (v *ValidationService) ValidateApplication(form *models.ApplicationForm) error {
	form.Name = v.SanitizeString(form.Name)
	form.Email = strings.ToLower(v.SanitizeString(form.Email))

	if err := v.ValidateRequired("name", form.Name); err != nil {
		return err
	}
	if err := v.ValidateLength("name", form.Name, 1, v.config.MaxNameLength); err != nil {
		return err
	}
	if err := v.ValidateEmail(form.Email); err != nil {
		return err
	}
	if err := v.ValidatePreferences(form.Preferences); err != nil {
		return err
	}

	skills, err := v.normalizeSkills(form.Skills)
	if err != nil {
		return err
	}
	form.Skills = skills

	return nil
}

// ValidatePreferences checks a ranked list of team ids.
func (v *ValidationService) ValidatePreferences(prefs []int) error {
	if len(prefs) == 0 {
		return fmt.Errorf("at least one team preference is required")
	}
	if len(prefs) > models.MaxPreferences {
		return fmt.Errorf("at most %d team preferences are allowed", models.MaxPreferences)
	}

	seen := make(map[int]bool, len(prefs))
	for i, id := range prefs {
		if id <= 0 {
			return fmt.Errorf("preference #%d is not a valid team", i+1)
		}
		if seen[id] {
			return fmt.Errorf("team %d is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

func (v *ValidationService) normalizeSkills(skills []string) ([]string, error) {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))

	for _, s := range skills {
		s = v.SanitizeString(s)
		if s == "" {
			continue
		}
		if utf8.RuneCountInString(s) > v.config.MaxSkillLength {
			return nil, fmt.Errorf("skill %q must be %d characters or less", s, v.config.MaxSkillLength)
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}

	if len(out) > v.config.MaxSkills {
		return nil, fmt.Errorf("at most %d skills are allowed", v.config.MaxSkills)
	}
	return out, nil
}

// ValidateTeam checks a team form and sanitizes its strings in place.
func (v *ValidationService) ValidateTeam(form *models.TeamForm) error {
	form.Name = v.SanitizeString(form.Name)
	form.Description = v.SanitizeString(form.Description)
	form.RequiredSkills = v.SanitizeString(form.RequiredSkills)

	if err := v.ValidateRequired("team name", form.Name); err != nil {
		return err
	}
	if err := v.ValidateLength("team name", form.Name, 1, v.config.MaxNameLength); err != nil {
		return err
	}
	if form.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}
	if form.Capacity > v.config.MaxTeamCapacity {
		return fmt.Errorf("capacity must be %d or less", v.config.MaxTeamCapacity)
	}
	return nil
}

// ValidateStatusOverride checks an admin's manual status change.
func (v *ValidationService) ValidateStatusOverride(form *models.StatusOverrideForm) error {
	if !models.ValidStatus(form.Status) {
		return fmt.Errorf("invalid status %q (must be pending, assigned or waitlisted)", form.Status)
	}
	if form.Status == models.StatusAssigned && (form.TeamID == nil || *form.TeamID <= 0) {
		return fmt.Errorf("a team is required to assign an application")
	}
	return nil
}

// ValidateAbsence checks an absence form and returns the parsed date.
func (v *ValidationService) ValidateAbsence(form *models.AbsenceForm) (time.Time, error) {
	form.MemberName = v.SanitizeString(form.MemberName)
	form.Email = strings.ToLower(v.SanitizeString(form.Email))
	form.Reason = v.SanitizeString(form.Reason)

	if err := v.ValidateRequired("member name", form.MemberName); err != nil {
		return time.Time{}, err
	}
	if err := v.ValidateLength("member name", form.MemberName, 1, v.config.MaxNameLength); err != nil {
		return time.Time{}, err
	}
	if form.Email != "" {
		if err := v.ValidateEmail(form.Email); err != nil {
			return time.Time{}, err
		}
	}
	if err := v.ValidateLength("reason", form.Reason, 0, v.config.MaxReasonLength); err != nil {
		return time.Time{}, err
	}
	return v.ParseDate(form.Date)
}

// ParseDate validates and parses a YYYY-MM-DD date.
func (v *ValidationService) ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}

	d, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format (expected: YYYY-MM-DD)")
	}
	return d, nil
}

// SanitizeString removes control characters (except newline and tab) and trims whitespace.
func (v *ValidationService) SanitizeString(input string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(input, ""))
}

// ValidateRequired checks if a required field is present and non-empty.
func (v *ValidationService) ValidateRequired(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	return nil
}

// ValidateLength validates string length is within bounds.
func (v *ValidationService) ValidateLength(fieldName string, value string, min, max int) error {
	length := utf8.RuneCountInString(value)

	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}

	if length > max {
		return fmt.Errorf("%s must be %d characters or less", fieldName, max)
	}

	return nil
}
