package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/report"
)

var (
	exportScenario string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest results of a scenario as an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Service.GetScenario(cmd.Context(), exportScenario)
		if err != nil {
			return err
		}
		results, err := env.Service.LatestResults(cmd.Context(), exportScenario)
		if err != nil {
			return err
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return eris.Wrap(err, "create export file")
		}
		err = report.WriteXLSX(f, report.Report{Scenario: *d.Scenario, Stages: d.Stages, Results: *results})
		if cerr := f.Close(); err == nil && cerr != nil {
			err = eris.Wrap(cerr, "close export file")
		}
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (run %s)\n", exportOut, results.RunID)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportScenario, "scenario", "", "scenario ID")
	exportCmd.Flags().StringVar(&exportOut, "out", "results.xlsx", "output file")
	_ = exportCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(exportCmd)
}
