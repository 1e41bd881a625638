package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/botmaro/secrets-manager/cmd/secrets-manager/commands"
	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe any enclave material before the process exits.
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "secrets-manager",
		Short: "Multi-environment secret management backed by Google Secret Manager",
		Long: `secrets-manager bootstraps, validates, and distributes the secrets your
environments and projects declare in secrets.yml, backed by Google Secret
Manager.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; fail instead")

	rootCmd.AddCommand(
		commands.NewBootstrapCommand(cfg),
		commands.NewSetCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewExportCommand(cfg),
		commands.NewImportCommand(cfg),
		commands.NewGrantAccessCommand(cfg),
		commands.NewCheckCommand(cfg),
		commands.NewVersionCommand(version, commit, date),
	)

	return rootCmd.Execute()
}
