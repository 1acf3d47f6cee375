package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/foresight/internal/buildinfo"
)

// globalFlags are shared by every project command.
type globalFlags struct {
	repo string
	json bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "foresight",
		Short:   "Cash-flow forecasting, anomaly detection and savings goals",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.repo, "repo", ".", "project directory")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(flags),
		newSummaryCommand(flags),
		newForecastCommand(flags),
		newAnomaliesCommand(flags),
		newGoalCommand(flags),
		newReportCommand(flags),
	)

	return rootCmd
}
