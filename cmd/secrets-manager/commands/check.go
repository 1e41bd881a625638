package commands

import (
	"encoding/json"
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/spf13/cobra"
)

func NewCheckCommand(cfg *config.Config) *cobra.Command {
	var (
		project   string
		workflows string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "check <environment>",
		Short: "Validate declared secrets against the store",
		Long: `Cross-reference the declared schema with the live store: report missing
required secrets, placeholder values, placeholder service accounts, missing
access bindings, and (with --workflows) secret references in workflow files
that no declaration covers.

Placeholder values are warnings. Missing secrets, missing access, and
undefined workflow references fail the command.

Examples:
  secrets-manager check staging
  secrets-manager check staging --project myapp --workflows .github/workflows
  secrets-manager check prod --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envName := args[0]

			_, eng, err := newEngine(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			report, err := eng.Check(cmd.Context(), envName, project, workflows)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				scope := envName
				if project != "" {
					scope = envName + "." + project
				}
				fmt.Fprintf(out, "Checking %s\n\n", scope)

				for _, name := range report.MissingSecrets {
					fmt.Fprintf(out, "  MISSING     %s\n", name)
				}
				for _, finding := range report.PlaceholderSecrets {
					fmt.Fprintf(out, "  PLACEHOLDER %s = %s\n", finding.Name, mask(finding.Value))
				}
				for _, sa := range report.PlaceholderServiceAccounts {
					fmt.Fprintf(out, "  PLACEHOLDER service account %s\n", sa)
				}
				for _, finding := range report.MissingAccess {
					fmt.Fprintf(out, "  NO ACCESS   %s for %s\n", finding.Secret, finding.ServiceAccount)
				}
				for _, name := range report.UndefinedWorkflowSecrets {
					fmt.Fprintf(out, "  UNDEFINED   %s (referenced in workflows)\n", name)
				}

				if report.HasErrors() {
					fmt.Fprintln(out)
				} else if len(report.PlaceholderSecrets) > 0 || len(report.PlaceholderServiceAccounts) > 0 {
					fmt.Fprintln(out, "\nOK with warnings")
				} else {
					fmt.Fprintln(out, "All checks passed")
				}
			}

			if report.HasErrors() {
				return fmt.Errorf("check failed: %d missing secrets, %d missing access bindings, %d undefined workflow references",
					len(report.MissingSecrets), len(report.MissingAccess), len(report.UndefinedWorkflowSecrets))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name to scope the check")
	cmd.Flags().StringVar(&workflows, "workflows", "", "Workflow file or directory to scan for secret references")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")

	return cmd
}
