package commands

import (
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/envfile"
	"github.com/botmaro/secrets-manager/internal/execenv"
	"github.com/spf13/cobra"
)

func NewBootstrapCommand(cfg *config.Config) *cobra.Command {
	var (
		project string
		export  bool
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "bootstrap <environment>",
		Short: "Load every declared secret for an environment",
		Long: `Load all secrets declared for an environment (and optionally one project)
from the secret store and merge them into a single mapping.

Environment-level categories are resolved first, then project categories in
their declared order; a name declared twice keeps the later value. Without
--project, secrets from every project in the environment are included.

Examples:
  # Bootstrap staging and export into this process environment
  secrets-manager bootstrap staging

  # Bootstrap one project only
  secrets-manager bootstrap staging --project myapp

  # Write a .env file instead of exporting
  secrets-manager bootstrap staging --export=false --output .env.staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envName := args[0]

			_, eng, err := newEngine(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			set, err := eng.Bootstrap(cmd.Context(), envName, project)
			if err != nil {
				return err
			}

			if export {
				if err := execenv.Export(set.Values()); err != nil {
					return fmt.Errorf("exporting to environment: %w", err)
				}
			}

			if output != "" {
				if err := envfile.WriteFile(output, pairsFromSet(set), envfile.FormatEnv); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				cfg.Logger.Info("Secrets written to %s", output)
			}

			scope := envName
			if project != "" {
				scope = envName + "." + project
			}
			if verbose {
				for _, name := range set.Names() {
					value, _ := set.Get(name)
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, mask(value))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d secrets for %s\n", set.Len(), scope)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name to scope secrets")
	cmd.Flags().BoolVar(&export, "export", true, "Export secrets to this process's environment variables")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the resolved secrets to a .env file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List resolved secrets with masked values")

	return cmd
}
