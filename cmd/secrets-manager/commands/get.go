package commands

import (
	"errors"
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/spf13/cobra"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		version string
		reveal  bool
	)

	cmd := &cobra.Command{
		Use:   "get <env[.project].SECRET_NAME>",
		Short: "Get a secret value",
		Long: `Retrieve one secret value. Values are masked unless --reveal is given, so
an accidental 'get' never prints a live credential.

Examples:
  # Get the latest version, masked
  secrets-manager get staging.API_KEY

  # Print the full value (suitable for scripting)
  secrets-manager get staging.API_KEY --reveal

  # Get a specific version
  secrets-manager get staging.API_KEY --version 2`,
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

			value, err := st.Get(cmd.Context(), env.SecretKey(target.Secret), version)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("secret not found: %s", target)
			}
			if err != nil {
				return err
			}

			if reveal {
				fmt.Fprint(cmd.OutOrStdout(), value)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Value: %s (use --reveal to show the full value)\n", mask(value))
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "latest", "Secret version to retrieve")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show the full secret value")

	return cmd
}
