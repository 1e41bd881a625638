package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/botmaro/secrets-manager/internal/config"
	"github.com/spf13/cobra"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	var (
		project string
		reveal  bool
	)

	cmd := &cobra.Command{
		Use:   "list <environment>",
		Short: "List declared secrets and their store state",
		Long: `List every secret declared for an environment, in enumeration order, with
its category, project, and current value (masked unless --reveal).

Examples:
  secrets-manager list staging
  secrets-manager list staging --project myapp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envName := args[0]

			_, eng, err := newEngine(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			entries, err := eng.List(cmd.Context(), envName, project)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tPROJECT\tVALUE")
			for _, entry := range entries {
				value := "<not found>"
				switch {
				case entry.Found && reveal:
					value = entry.Value
				case entry.Found:
					value = mask(entry.Value)
				}
				projectName := entry.Project
				if projectName == "" {
					projectName = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Name, entry.Category, projectName, value)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d secrets\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name to filter by")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values")

	return cmd
}
