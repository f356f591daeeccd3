// launchready runs the LaunchReady findings reconciliation engine.
//
// Usage:
//
//	launchready serve    [--config=config.yaml]
//	launchready migrate  [--config=config.yaml]
//	launchready classify [--text=T | --file=F]     (reads stdin otherwise)
//	launchready discover --project=<uuid> [--file=F] [--summary=S]
//	launchready catalog  [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dennissolver/LaunchReady-sub000/pkg/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:   "launchready",
	Short: "IP-protection findings reconciliation engine",
	Long: "LaunchReady turns founder conversations into protection-item findings\n" +
		"and merges them into each project's checklist without ever lowering urgency.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", config.DefaultPath,
		"Path to config file (environment only when the default file is absent)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
