package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/config"
	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/handlers"
	"github.com/avissapr/roster/internal/middleware"
	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve starts the JSON API: the public intake form endpoints, console
login, and the admin routes for teams, applications, absences and
assignment runs.

Set DATABASE_URL (required) and optionally REDIS_URL to share the run lock
and view cache between several server instances.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before starting")
}

// limiters holds the per-endpoint token buckets.
type limiters struct {
	login, apply, assign *security.RateLimiter
}

func newLimiters(sec *security.SecurityConfig) *limiters {
	return &limiters{
		login:  security.NewRateLimiter(sec.RateLimitLogin, security.PerMinute(sec.RateLimitLogin)),
		apply:  security.NewRateLimiter(sec.RateLimitApply, security.PerMinute(sec.RateLimitApply)),
		assign: security.NewRateLimiter(sec.RateLimitAssign, security.PerMinute(sec.RateLimitAssign)),
	}
}

func (l *limiters) stop() {
	l.login.Stop()
	l.apply.Stop()
	l.assign.Stop()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := security.NewLogger()

	cfg, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if serveMigrate {
		if err := database.RunMigrations(cfg.Migrations, cfg.Database.URL); err != nil {
			return err
		}
	}

	infra, err := newRunInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close()

	rl := newLimiters(cfg.Security())
	defer rl.stop()

	app := newApp(cfg, logger, infra.guard, infra.cache, rl)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting on :" + cfg.Port + " (" + cfg.Env + ")")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		logger.Critical("server stopped", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newApp wires middleware, handlers and routes.
func newApp(cfg *config.Config, logger *security.Logger, guard *services.RunGuard, viewCache cache.Cache, rl *limiters) *fiber.App {
	sec := cfg.Security()

	app := fiber.New(fiber.Config{
		AppName:      "roster",
		ErrorHandler: handlers.ErrorHandler(logger),
		BodyLimit:    64 * 1024,
	})

	sm := middleware.NewSecurityMiddleware(logger, sec)

	// Panic recovery first so a panicking handler still gets logged.
	app.Use(recover.New())
	app.Use(sm.RequestLogger())
	app.Use(sm.SecureHeaders())

	store := session.New(session.Config{
		Expiration:     sec.SessionTimeout,
		KeyLookup:      "cookie:" + sec.SessionCookieName,
		CookieSecure:   sec.SessionSecure,
		CookieHTTPOnly: true,
		CookieSameSite: sec.SessionSameSite,
		CookiePath:     "/",
	})

	assignments := services.NewAssignmentService(guard, viewCache, logger)
	authService := services.NewAuthService(sec)

	publicHandler := handlers.NewPublicHandler(sec, logger, viewCache, cfg.Redis.CacheTTL)
	authHandler := handlers.NewAuthHandler(store, authService, logger)
	adminHandler := handlers.NewAdminHandler(handlers.AdminDeps{
		Assignments: assignments,
		Auth:        authService,
		Config:      sec,
		Logger:      logger,
		Cache:       viewCache,
		CacheTTL:    cfg.Redis.CacheTTL,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if !database.IsConnected(c.Context()) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public routes
	app.Get("/teams", publicHandler.Teams)
	app.Post("/apply", sm.RateLimit(rl.apply, "apply"), publicHandler.Apply)

	app.Post("/login", sm.RateLimit(rl.login, "login"), authHandler.Login)
	app.Get("/logout", authHandler.Logout)
	app.Post("/logout", authHandler.Logout)

	// Console routes: officers read and record absences, admins change data.
	console := app.Group("/admin",
		middleware.AuthRequired(store),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOfficer),
	)
	adminOnly := middleware.AdminOnly()

	console.Get("/me", authHandler.Me)
	console.Get("/dashboard", adminHandler.Dashboard)

	console.Get("/teams", adminHandler.ListTeams)
	console.Post("/teams", adminOnly, adminHandler.CreateTeam)
	console.Put("/teams/:id", adminOnly, adminHandler.UpdateTeam)
	console.Delete("/teams/:id", adminOnly, adminHandler.DeleteTeam)
	console.Get("/teams/:id/roster", adminHandler.TeamRoster)

	console.Get("/applications", adminHandler.ListApplications)
	console.Get("/applications/:id", adminHandler.GetApplication)
	console.Put("/applications/:id/status", adminOnly, adminHandler.OverrideStatus)
	console.Delete("/applications/:id", adminOnly, adminHandler.DeleteApplication)

	console.Get("/absences", adminHandler.ListAbsences)
	console.Post("/absences", adminHandler.CreateAbsence)
	console.Delete("/absences/:id", adminOnly, adminHandler.DeleteAbsence)

	console.Get("/assign/preview", adminHandler.PreviewAssign)
	console.Post("/assign", adminOnly, sm.RateLimit(rl.assign, "assign"), adminHandler.Assign)
	console.Get("/runs", adminHandler.ListRuns)
	console.Get("/runs/:id/summary", adminHandler.RunSummary)

	console.Get("/users", adminOnly, adminHandler.ListUsers)
	console.Post("/users", adminOnly, adminHandler.CreateUser)
	console.Get("/audit", adminOnly, adminHandler.ViewAuditLog)

	return app
}
