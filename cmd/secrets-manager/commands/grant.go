package commands

import (
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/spf13/cobra"
)

func NewGrantAccessCommand(cfg *config.Config) *cobra.Command {
	var serviceAccounts []string

	cmd := &cobra.Command{
		Use:   "grant-access <environment[.project]>",
		Short: "Grant service accounts access to every secret in scope",
		Long: `Enumerate all secrets in an environment or project scope and grant each
service account the accessor role on each secret.

A secret is only counted as updated when every requested account succeeded
for it; failures are reported and the command exits non-zero.

Examples:
  secrets-manager grant-access staging -s runtime@proj.iam.gserviceaccount.com
  secrets-manager grant-access staging.myapp -s a@x.iam.gserviceaccount.com -s b@x.iam.gserviceaccount.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ParseTarget(args[0])
			if err != nil {
				return err
			}
			if target.Secret != "" {
				return fmt.Errorf("grant-access operates on an environment or project scope, not a single secret (got %q)", args[0])
			}

			_, eng, err := newEngine(cmd.Context(), cfg, target.Environment)
			if err != nil {
				return err
			}

			result, grantErr := eng.GrantBulk(cmd.Context(), target.Environment, target.Project, serviceAccounts)
			fmt.Fprintf(cmd.OutOrStdout(), "Granted access to %d secrets for %d service accounts\n",
				result.SecretsUpdated, result.ServiceAccounts)
			return grantErr
		},
	}

	cmd.Flags().StringArrayVarP(&serviceAccounts, "service-account", "s", nil, "Service account to grant (repeatable, required)")
	_ = cmd.MarkFlagRequired("service-account")

	return cmd
}
