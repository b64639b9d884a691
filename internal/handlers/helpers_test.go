package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/handlers"
	"github.com/avissapr/roster/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

// mockDB replaces the global pool with a pgxmock pool for the duration of the test.
func mockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = mock
	t.Cleanup(func() {
		database.DB = oldDB
		mock.Close()
	})

	return mock
}

// newApp builds a Fiber app with the JSON error handler. When asAdmin is
// set, every request carries the identity AuthRequired would have loaded.
func newApp(logger *security.Logger, asAdmin bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
	if asAdmin {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user_id", 1)
			c.Locals("user_email", "chair@example.edu")
			c.Locals("user_name", "Dana Chair")
			c.Locals("user_role", "admin")
			return c.Next()
		})
	}
	return app
}

func testLogger() (*security.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return security.NewLoggerTo(&buf), &buf
}

// doJSON sends body as JSON (nil for no body) and returns the response.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doForm(t *testing.T, app *fiber.App, method, path, form string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	return body.Error
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
