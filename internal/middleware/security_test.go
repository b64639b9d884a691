package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avissapr/roster/internal/security"
	"github.com/gofiber/fiber/v2"
)

func newTestSecurity(buf *bytes.Buffer) *SecurityMiddleware {
	return NewSecurityMiddleware(security.NewLoggerTo(buf), security.DefaultSecurityConfig())
}

// logLines decodes every JSON line the logger wrote.
func logLines(t *testing.T, buf *bytes.Buffer) []security.LogEntry {
	t.Helper()
	var entries []security.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e security.LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestSecureHeaders(t *testing.T) {
	app := fiber.New()
	var buf bytes.Buffer
	sm := newTestSecurity(&buf)

	app.Use(sm.SecureHeaders())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	headers := map[string]string{
		"Content-Security-Policy":   "default-src 'none'",
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000",
		"Referrer-Policy":           "no-referrer",
		"Cache-Control":             "no-store",
	}
	for header, expected := range headers {
		actual := resp.Header.Get(header)
		if !strings.Contains(actual, expected) {
			t.Errorf("Header %s: expected to contain %q, got %q", header, expected, actual)
		}
	}
}

// TestSecureHeaders_NoHSTSWithoutTLS tests HSTS is only sent when session
// cookies are marked secure.
func TestSecureHeaders_NoHSTSWithoutTLS(t *testing.T) {
	app := fiber.New()
	config := security.DefaultSecurityConfig()
	config.SessionSecure = false
	sm := NewSecurityMiddleware(security.NewLoggerTo(&bytes.Buffer{}), config)

	app.Use(sm.SecureHeaders())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if got := resp.Header.Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Expected no HSTS header, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	var buf bytes.Buffer
	sm := newTestSecurity(&buf)

	limiter := security.NewRateLimiter(3, 20*time.Second)
	defer limiter.Stop()

	app.Use(sm.RateLimit(limiter, "apply"))
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		if err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("Request %d: expected 200 OK, got %d", i+1, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429 Too Many Requests, got %d", resp.StatusCode)
	}

	// The bucket refills one token every 20s.
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" || retryAfter == "0" {
		t.Errorf("Expected a positive Retry-After header, got %q", retryAfter)
	}

	entries := logLines(t, &buf)
	if len(entries) != 1 || entries[0].EventType != security.EventRateLimitExceeded {
		t.Fatalf("Expected one RATE_LIMIT_EXCEEDED event, got %+v", entries)
	}
	if entries[0].Extra["endpoint"] != "apply" {
		t.Errorf("Expected endpoint apply, got %v", entries[0].Extra["endpoint"])
	}
}

// TestRateLimit_PerUser tests logged-in users get their own bucket.
func TestRateLimit_PerUser(t *testing.T) {
	app := fiber.New()
	sm := newTestSecurity(&bytes.Buffer{})

	limiter := security.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()

	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user_id", id)
		}
		return c.Next()
	})
	app.Use(sm.RateLimit(limiter, "assign"))
	app.Post("/assign", func(c *fiber.Ctx) error {
		return c.SendString("ran")
	})

	for _, user := range []string{"1", "2"} {
		req := httptest.NewRequest("POST", "/assign", nil)
		req.Header.Set("X-Test-User", user)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("user %s: expected 200 OK, got %d", user, resp.StatusCode)
		}
	}

	req := httptest.NewRequest("POST", "/assign", nil)
	req.Header.Set("X-Test-User", "1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("Expected user 1 to be limited, got %d", resp.StatusCode)
	}
}

func TestRequestLogger(t *testing.T) {
	app := fiber.New()
	var buf bytes.Buffer
	sm := newTestSecurity(&buf)

	app.Use(sm.RequestLogger())
	app.Get("/teams", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "team not found")
	})

	for _, path := range []string{"/teams", "/missing"} {
		if _, err := app.Test(httptest.NewRequest("GET", path, nil)); err != nil {
			t.Fatalf("Request failed: %v", err)
		}
	}

	entries := logLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(entries))
	}
	if entries[0].Message != "GET /teams 200" {
		t.Errorf("Unexpected message %q", entries[0].Message)
	}
	if entries[1].Status != fiber.StatusNotFound {
		t.Errorf("Expected logged status 404 from the returned error, got %d", entries[1].Status)
	}
}

// TestRequestLogger_Forbidden tests a 403 also produces a security event.
func TestRequestLogger_Forbidden(t *testing.T) {
	app := fiber.New()
	var buf bytes.Buffer
	sm := newTestSecurity(&buf)

	app.Use(sm.RequestLogger())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", 7)
		c.Locals("user_email", "officer@example.edu")
		c.Locals("user_role", RoleOfficer)
		return c.Next()
	})
	app.Post("/admin/assign", AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("ran")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/assign", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("Expected 403, got %d", resp.StatusCode)
	}

	entries := logLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected request line and security event, got %d lines", len(entries))
	}
	event := entries[1]
	if event.EventType != security.EventUnauthorizedAccess {
		t.Errorf("Expected UNAUTHORIZED_ACCESS, got %q", event.EventType)
	}
	if event.ActorID == nil || *event.ActorID != 7 {
		t.Errorf("Expected actor 7, got %v", event.ActorID)
	}
	if event.ActorEmail != "officer@example.edu" {
		t.Errorf("Expected actor email, got %q", event.ActorEmail)
	}
}
