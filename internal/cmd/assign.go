package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/avissapr/roster/internal/allocation"
	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/security"
	"github.com/avissapr/roster/internal/services"
	"github.com/spf13/cobra"
)

var (
	assignDryRun bool
	assignFormat string
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Place every pending application on a team",
	Long: `Assign runs the same team assignment as the admin console's
"Auto Assign Teams" action and prints the run summary.

Pending applications are processed in submission order. Each one is placed
on its highest-ranked team that still has room, or waitlisted when every
ranked team is full. All placements are saved together or not at all.

Use --dry-run to see what would happen without saving anything.`,
	Args: cobra.NoArgs,
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
	assignCmd.Flags().BoolVar(&assignDryRun, "dry-run", false, "Compute the assignment without saving it")
	assignCmd.Flags().StringVarP(&assignFormat, "format", "o", "text", "Output format: text, yaml or json")
}

func runAssign(cmd *cobra.Command, args []string) error {
	switch assignFormat {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("unknown format %q (must be text, yaml or json)", assignFormat)
	}

	ctx := cmd.Context()
	// Keep stdout for the report.
	logger := security.NewLoggerTo(cmd.ErrOrStderr())

	cfg, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	infra, err := newRunInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close()

	svc := services.NewAssignmentService(infra.guard, infra.cache, logger)

	var report *allocation.Report
	if assignDryRun {
		report, err = svc.Preview(ctx)
	} else {
		report, err = svc.Run(ctx, services.Actor{IPAddress: "cli", UserAgent: "roster-cli"})
	}
	if err != nil {
		return err
	}

	return writeReport(cmd, report, assignFormat)
}

func writeReport(cmd *cobra.Command, report *allocation.Report, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "yaml":
		return report.WriteYAML(out)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteText(out)
}
