package commands

import (
	"fmt"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/botmaro/secrets-manager/internal/envfile"
	"github.com/botmaro/secrets-manager/internal/secure"
	"github.com/botmaro/secrets-manager/internal/store"
	"github.com/spf13/cobra"
)

func NewImportCommand(cfg *config.Config) *cobra.Command {
	var (
		input  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "import <environment>",
		Short: "Import secrets from a .env or JSON file",
		Long: `Read NAME=value pairs from a file and write each one to the secret store
under the environment's prefix.

Examples:
  secrets-manager import staging --input .env.staging
  secrets-manager import prod --input secrets.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envName := args[0]

			fmtParsed, err := envfile.ParseFormat(format)
			if err != nil {
				return err
			}

			pairs, err := envfile.Read(input, fmtParsed)
			if err != nil {
				return err
			}

			env, st, err := openStore(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			created, updated := 0, 0
			for _, pair := range pairs {
				sealed := secure.NewValue([]byte(pair.Value))
				var result store.SetResult
				err := sealed.With(func(data []byte) error {
					var err error
					result, err = st.Set(cmd.Context(), env.SecretKey(pair.Name), data)
					return err
				})
				if err != nil {
					return err
				}
				if result.Created {
					created++
				} else {
					updated++
				}
				cfg.Logger.Debug("Imported %s (version %s)", pair.Name, result.Version)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d secrets into %s (%d created, %d updated)\n",
				len(pairs), envName, created, updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "env", "Input format: env or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
