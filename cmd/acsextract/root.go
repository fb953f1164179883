package main

import (
	"fmt"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/extract"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/JonMunkholm/acsextract/internal/store"
	"github.com/spf13/cobra"
)

// extractFlags are the per-run options that have no configuration
// counterpart. Summary overrides are bound to the config directly.
type extractFlags struct {
	tracts      bool
	blockgroups bool
	longTitles  bool
	readme      string
	database    bool
}

func (f *extractFlags) register(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	flags.StringVar(&cfg.Summary.Index, "index", cfg.Summary.Index, "Lookup table path or URL (ACS_SUMMARY_INDEX)")
	flags.StringVar(&cfg.Summary.Layout, "layout", cfg.Summary.Layout, "Geography layout YAML (ACS_SUMMARY_LAYOUT)")
	flags.IntVar(&cfg.Summary.Year, "year", cfg.Summary.Year, "Release year (ACS_SUMMARY_YEAR)")
	flags.IntVar(&cfg.Summary.Span, "span", cfg.Summary.Span, "Release span in years (ACS_SUMMARY_SPAN)")
	flags.StringVar(&cfg.Summary.State, "state", cfg.Summary.State, "Two-letter state code in file names (ACS_SUMMARY_STATE)")
	flags.IntVar(&cfg.Summary.RecordColumn, "record-column", cfg.Summary.RecordColumn, "Data-file column of the logical record number, 0 for the default")

	flags.BoolVar(&f.tracts, "tracts", false, "Extract census tracts")
	flags.BoolVar(&f.blockgroups, "blockgroups", false, "Extract block groups")
	flags.BoolVar(&f.longTitles, "long-titles", false, "Name columns by their full titles")
	flags.StringVar(&f.readme, "readme", "", "Also write a README describing the variables")
	flags.BoolVar(&f.database, "database", false, "Also store the run in PostgreSQL (ACS_DATABASE_URL)")
}

func (f *extractFlags) request(cfg *config.Config, args []string) extract.Request {
	req := extract.RequestFromConfig(cfg)
	req.DataDir = args[0]
	req.Specs = args[1 : len(args)-1]
	req.Output = args[len(args)-1]
	req.Tracts = f.tracts
	req.BlockGroups = f.blockgroups
	req.LongTitles = f.longTitles
	req.Readme = f.readme
	return req
}

// extractArgs requires PATH, at least one VAR and OUTPUT.
func extractArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: want PATH VAR... OUTPUT, got %d arguments", acs.ErrConfig, len(args))
	}
	return nil
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "acsextract [flags] PATH VAR... OUTPUT",
		Short: "Extract ACS summary-file variables into a single table",
		Long: `Extracts variables from an American Community Survey summary-file release
into one table with a row per tract or block group and a column per variable.

PATH is the directory (or storage URL) holding the geography and sequence files.
Each VAR is TABLE_NUMBER (B19001_3), TABLE_START-END (B19001_3-6) or TABLE_*.
OUTPUT is written as CSV, or as an Excel workbook when it ends in .xlsx.`,
		Args:          extractArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Flags are parsed by now, so overrides are validated along with
		// the environment.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			logging.FromContext(cmd.Context()).Debug("configuration loaded", "config", cfg.String())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.request(cfg, args)

			// Fail on a bad request before connecting anywhere.
			if err := req.Validate(); err != nil {
				return err
			}

			var opts []extract.Option
			if flags.database {
				if !cfg.Database.Enabled() {
					return fmt.Errorf("%w: --database requires ACS_DATABASE_URL", acs.ErrConfig)
				}
				pool, err := store.Connect(cmd.Context(), cfg.Database)
				if err != nil {
					return err
				}
				defer pool.Close()
				opts = append(opts, extract.WithStore(store.New(pool)))
			}

			summary, err := extract.NewService(opts...).Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows, %d columns to %s (run %s)\n",
				summary.Rows, summary.Columns, req.Output, summary.RunID)
			for _, spec := range summary.Unmatched {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s matched no variables\n", spec)
			}
			return nil
		},
	}

	flags.register(cmd, cfg)

	cmd.AddCommand(newVariablesCmd(cfg), newServeCmd(cfg))
	return cmd
}
