package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/middleware"
	"github.com/avissapr/roster/internal/services"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminName     string
	adminRole     string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage console accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a console account",
	Long: `Create adds an admin or officer account. Use it to bootstrap the first
admin; later accounts can be added from the console.

The password is read from --password or, if that is empty, from the
ROSTER_ADMIN_PASSWORD environment variable.`,
	Args: cobra.NoArgs,
	RunE: runAdminCreate,
}

var adminHashCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash of a password",
	Long: `Hash-password prints the hash Roster would store for a password, using
the configured bcrypt cost. Useful for seeding the users table by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		hash, err := services.NewAuthServiceWithStore(nil, cfg.Security()).HashPassword(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd, adminHashCmd)

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Account email (required)")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "Display name (required)")
	adminCreateCmd.Flags().StringVar(&adminRole, "role", middleware.RoleAdmin, "Role: admin or officer")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Password (default $ROSTER_ADMIN_PASSWORD)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("name")
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		password = os.Getenv("ROSTER_ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required (--password or ROSTER_ADMIN_PASSWORD)")
	}

	cfg, err := connectDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	user, err := services.NewAuthService(cfg.Security()).
		CreateUser(cmd.Context(), adminEmail, adminName, adminRole, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (id %d)\n", user.Role, user.Email, user.ID)
	return nil
}
