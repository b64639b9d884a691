package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/config"
	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// isolate runs the test in an empty directory with no database configured,
// so no roster.yaml or developer environment leaks in.
func isolate(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change to test directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	t.Setenv("DATABASE_URL", "")
	t.Setenv("ROSTER_DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("ROSTER_ADMIN_PASSWORD", "")
	cfgFile = ""
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "roster" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "roster")
	}

	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range []string{"serve", "migrate", "assign", "admin"} {
		if !cmdMap[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestAssignCommand_UnknownFormat(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "assign", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), `unknown format "xml"`) {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestAssignCommand_RequiresDatabase(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "assign", "--format", "text", "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL must be set") {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestMigrateCommand_RequiresDatabase(t *testing.T) {
	isolate(t)

	for _, sub := range []string{"up", "down", "version"} {
		_, err := executeCommand(rootCmd, "migrate", sub)
		if err == nil || !strings.Contains(err.Error(), "DATABASE_URL must be set") {
			t.Errorf("migrate %s: expected missing database error, got %v", sub, err)
		}
	}
}

func TestAdminCreateCommand_RequiresPassword(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "admin", "create", "--email", "chair@example.edu", "--name", "Dana", "--password", "")
	if err == nil || !strings.Contains(err.Error(), "a password is required") {
		t.Fatalf("expected missing password error, got %v", err)
	}
}

func TestConfigFlag_MissingFile(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "assign", "--config", "does-not-exist.yaml", "--format", "text")
	cfgFile = ""
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Fatalf("expected config read error, got %v", err)
	}
}

func newTestApp(t *testing.T) (*fiber.App, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	cfg := config.Default()
	rl := newLimiters(cfg.Security())
	t.Cleanup(rl.stop)

	app := newApp(cfg, security.NewLoggerTo(&buf), services.NewLocalRunGuard(), cache.NewMemory(), rl)
	return app, &buf
}

// TestNewApp_Routes checks the wiring without a database: protected routes
// refuse anonymous callers and input is validated before any query.
func TestNewApp_Routes(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		method, path, body string
		expected           int
	}{
		{"GET", "/admin/dashboard", "", fiber.StatusUnauthorized},
		{"POST", "/admin/assign", "", fiber.StatusUnauthorized},
		{"DELETE", "/admin/teams/1", "", fiber.StatusUnauthorized},
		{"POST", "/apply", `{"name":"Ada","email":"ada@example.edu","preferences":[]}`, fiber.StatusBadRequest},
		{"GET", "/healthz", "", fiber.StatusServiceUnavailable},
		{"GET", "/nowhere", "", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		if tt.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != tt.expected {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.expected, resp.StatusCode)
		}
	}
}

func TestNewApp_SecureHeadersAndLogging(t *testing.T) {
	app, logs := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/me", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if !strings.Contains(logs.String(), `"message":"GET /admin/me 401"`) {
		t.Errorf("expected request to be logged, got %s", logs.String())
	}
}

func TestNewApp_ApplyRateLimited(t *testing.T) {
	app, _ := newTestApp(t)

	limit := config.Default().RateLimit.Apply
	var last int
	for i := 0; i <= limit; i++ {
		req := httptest.NewRequest("POST", "/apply", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}

	if last != fiber.StatusTooManyRequests {
		t.Errorf("expected request %d to be rate limited, got %d", limit+1, last)
	}
}

func TestAdminHashPasswordCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "admin", "hash-password", "Sup3rSecret")
	if err != nil {
		t.Fatalf("hash-password failed: %v", err)
	}

	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("Sup3rSecret")); err != nil {
		t.Errorf("printed hash does not verify: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(hash)); cost != security.DefaultSecurityConfig().BcryptCost {
		t.Errorf("expected cost %d, got %d", security.DefaultSecurityConfig().BcryptCost, cost)
	}
}
