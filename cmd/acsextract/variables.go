package main

import (
	"fmt"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/extract"
	"github.com/spf13/cobra"
)

func newVariablesCmd(cfg *config.Config) *cobra.Command {
	var longTitles bool

	cmd := &cobra.Command{
		Use:   "variables [flags] VAR...",
		Short: "List the variables a set of specs resolves to",
		Long: `Resolves variable specs against the lookup table and prints each variable
with its reconstructed title and output column names. No data files are read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := extract.Resolve(cmd.Context(), cfg.Summary.Index, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range res.Index.Sorted() {
				fmt.Fprintf(out, "%s: %s\n", v.Key(), v.Name)
				fmt.Fprintf(out, "    estimate: %s\n", acs.ColumnName(v, false, longTitles))
				fmt.Fprintf(out, "    moe:      %s\n", acs.ColumnName(v, true, longTitles))
			}
			for _, spec := range res.Unmatched {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s matched no variables\n", spec)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Summary.Index, "index", cfg.Summary.Index, "Lookup table path or URL (ACS_SUMMARY_INDEX)")
	cmd.Flags().BoolVar(&longTitles, "long-titles", false, "Show long-title column names")
	return cmd
}
