package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "labtrack",
	Short: "Labtrack - specimen tracking dashboard",
	Long: `Labtrack tracks lab specimens from receipt to reported results.
The lab adds samples and moves them through the workflow; the ED watches
its queue and claims results once they are available.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
	dbPath     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "Sample API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/labtrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to local SQLite database (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
