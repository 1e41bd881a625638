package commands

import (
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/envfile"
	"github.com/spf13/cobra"
)

func NewExportCommand(cfg *config.Config) *cobra.Command {
	var (
		project string
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export <environment>",
		Short: "Export resolved secrets as .env or JSON",
		Long: `Resolve all secrets in scope, exactly as bootstrap does, and write them as
a .env or JSON document to stdout or a file.

Examples:
  secrets-manager export prod > .env.prod
  secrets-manager export prod --format json --output secrets.json
  secrets-manager export staging --project myapp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envName := args[0]

			fmtParsed, err := envfile.ParseFormat(format)
			if err != nil {
				return err
			}

			_, eng, err := newEngine(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			set, err := eng.Bootstrap(cmd.Context(), envName, project)
			if err != nil {
				return err
			}
			pairs := pairsFromSet(set)

			if output == "" {
				return envfile.Write(cmd.OutOrStdout(), pairs, fmtParsed)
			}
			if err := envfile.WriteFile(output, pairs, fmtParsed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d secrets to %s\n", len(pairs), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name to scope secrets")
	cmd.Flags().StringVarP(&format, "format", "f", "env", "Output format: env or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}
