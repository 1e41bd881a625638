package commands

import (
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/spf13/cobra"
)

func NewSetCommand(cfg *config.Config) *cobra.Command {
	var (
		value string
		grant []string
	)

	cmd := &cobra.Command{
		Use:   "set <env[.project].SECRET_NAME>",
		Short: "Create or update a secret value",
		Long: `Set a secret value, creating the secret on first write.

The value comes from --value, from piped stdin, or from a hidden prompt.

Examples:
  # Set an environment-scoped secret
  secrets-manager set staging.API_KEY --value "sk-123456"

  # Set a project-scoped secret
  secrets-manager set staging.myapp.DATABASE_URL --value "postgres://..."

  # Read the value from stdin
  echo "secret-value" | secrets-manager set staging.MY_SECRET

  # Grant a service account access after writing
  secrets-manager set staging.API_KEY --value "sk-123" --grant bot@proj.iam.gserviceaccount.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ParseTarget(args[0])
			if err != nil {
				return err
			}
			if target.Secret == "" {
				return fmt.Errorf("target %q does not name a secret: use env[.project].SECRET_NAME", args[0])
			}

			env, st, err := openStore(cmd.Context(), cfg, target.Environment)
			if err != nil {
				return err
			}
			key := env.SecretKey(target.Secret)

			sealed, err := readSecretValue(cfg, value, target.Secret)
			if err != nil {
				return err
			}

			var result store.SetResult
			err = sealed.With(func(data []byte) error {
				var err error
				result, err = st.Set(cmd.Context(), key, data)
				return err
			})
			if err != nil {
				return err
			}

			status := "updated"
			if result.Created {
				status = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Secret %s %s (version %s)\n", target, status, result.Version)

			for _, sa := range grant {
				if err := st.GrantAccess(cmd.Context(), key, sa); err != nil {
					return err
				}
				cfg.Logger.Info("Granted access to %s", sa)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&value, "value", "v", "", "Secret value (omit to use stdin or a hidden prompt)")
	cmd.Flags().StringArrayVarP(&grant, "grant", "g", nil, "Service accounts to grant access after writing")

	return cmd
}
