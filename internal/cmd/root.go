// Package cmd implements the roster command line: the HTTP server, schema
// migrations, command-line assignment runs and account bootstrap.
package cmd

import (
	"context"
	"fmt"

	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/config"
	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Team roster with automatic preference-based team assignment",
	Long: `Roster collects applications to an organization's teams, lets admins
manage teams and members, and places pending applicants on their
highest-ranked team that still has room.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./roster.yaml or /etc/roster/roster.yaml)")
}

// loadConfig reads configuration from defaults, the config file and the environment.
func loadConfig() (*config.Config, error) {
	v, err := config.New(cfgFile)
	if err != nil {
		return nil, err
	}
	return config.Load(v)
}

// connectDatabase loads the config, requires a database URL and opens the pool.
func connectDatabase(ctx context.Context) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	if err := database.Connect(ctx, database.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runInfra is the run guard and view cache shared by the server and the CLI.
// With Redis configured both are distributed; otherwise they are process-local.
type runInfra struct {
	guard *services.RunGuard
	cache cache.Cache
	close func()
}

func newRunInfra(ctx context.Context, cfg *config.Config, logger *security.Logger) (*runInfra, error) {
	if cfg.Redis.URL == "" {
		logger.Info("redis not configured; using in-process run lock and view cache")
		return &runInfra{
			guard: services.NewLocalRunGuard(),
			cache: cache.NewMemory(),
			close: func() {},
		}, nil
	}

	client, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("redis connected; run lock and view cache are shared")

	return &runInfra{
		guard: services.NewRunGuard(client, cfg.Redis.LockTTL),
		cache: cache.NewRedis(client),
		close: func() { _ = client.Close() },
	}, nil
}
