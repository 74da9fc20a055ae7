package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/report"
)

var (
	computeScenario string
	computeJSON     bool
	computeLatest   bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute environmental and circularity results for a scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		var results *model.Results
		if computeLatest {
			results, err = env.Service.LatestResults(cmd.Context(), computeScenario)
		} else {
			results, err = env.Service.ComputeScenarioResults(cmd.Context(), computeScenario)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if computeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		stages, err := env.Store.ListStagesByScenario(cmd.Context(), computeScenario)
		if err != nil {
			return err
		}
		formatResults(out, stages, results)
		return nil
	},
}

// formatResults writes the environmental rows followed by the circularity
// metrics.
func formatResults(out io.Writer, stages []model.LifecycleStage, r *model.Results) {
	names := make(map[string]string, len(stages))
	for _, st := range stages {
		names[st.ID] = st.Name
	}

	_, _ = fmt.Fprintf(out, "run %s\n\n", r.RunID)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tINDICATOR\tVALUE\tUNIT")
	for _, e := range r.Environmental {
		stage := "TOTAL"
		if e.StageID != "" {
			stage = names[e.StageID]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", stage, e.IndicatorType, e.Value, e.Unit)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "METRIC\tVALUE\tUNIT\tDETAILS")
	for _, c := range r.Circularity {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", c.MetricType, c.Value, c.Unit, report.FormatDetails(c.Details))
	}
	_ = w.Flush()
}

func init() {
	computeCmd.Flags().StringVar(&computeScenario, "scenario", "", "scenario ID")
	computeCmd.Flags().BoolVar(&computeJSON, "json", false, "print results as JSON")
	computeCmd.Flags().BoolVar(&computeLatest, "latest", false, "show the latest completed results without recomputing")
	_ = computeCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(computeCmd)
}
