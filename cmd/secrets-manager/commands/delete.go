package commands

import (
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/spf13/cobra"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <env[.project].SECRET_NAME>",
		Short: "Delete a secret",
		Long: `Delete a secret and all its versions from the store.

Examples:
  secrets-manager delete staging.OLD_API_KEY
  secrets-manager delete staging.OLD_API_KEY --force`,
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

			if !force {
				if !confirm(cfg, fmt.Sprintf("Delete secret '%s'?", target)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			deleted, err := st.Delete(cmd.Context(), env.SecretKey(target.Secret))
			if err != nil {
				return err
			}
			if !deleted {
				cfg.Logger.Warn("Secret not found: %s", target)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Secret %s deleted\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}
