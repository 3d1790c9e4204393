package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracelay/workspaced/cmd/workspaced/commands"
	"github.com/tracelay/workspaced/logger"
)

var rootCmd = &cobra.Command{
	Use:   "workspaced",
	Short: "workspaced - workspace lifecycle worker",
	Long: `workspaced - workspace lifecycle worker daemon.

workspaced pulls pending workspace jobs from the account service and drives
each workspace through its current lifecycle phase: create, upgrade, archive,
migrate, restore or delete, reporting progress back to the control-plane.

Available commands:
  run     - Start the lifecycle worker
  version - Show version information

Examples:
  workspaced run                          # Start with defaults + environment
  workspaced run --config workspaced.toml # Start with a config file
  workspaced run --json                   # Structured log output`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
