package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lca-cli/internal/model"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Record and list material flows between stages",
}

var (
	flowsScenario string
	flowsFile     string
)

var flowsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Record material flows from a YAML file",
	Long: `Reads a YAML list of flows and records them against the scenario:

  - from_stage_id: <stage>   # omit for material entering the scenario
    to_stage_id: <stage>     # omit for material leaving it
    material_type: scrap
    quantity: 750
    unit: kg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flows, err := readFlowsFile(flowsFile)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Service.RecordMaterialFlows(cmd.Context(), flowsScenario, flows)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recorded %d flows\n", n)
		return nil
	},
}

var flowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a scenario's material flows",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Service.GetScenario(cmd.Context(), flowsScenario)
		if err != nil {
			return err
		}
		flows, err := env.Service.ListMaterialFlows(cmd.Context(), flowsScenario)
		if err != nil {
			return err
		}
		formatFlows(cmd.OutOrStdout(), d.Stages, flows)
		return nil
	},
}

func readFlowsFile(path string) ([]model.MaterialFlow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read flows file %s", path)
	}
	var flows []model.MaterialFlow
	if err := yaml.Unmarshal(data, &flows); err != nil {
		return nil, eris.Wrapf(err, "parse flows file %s", path)
	}
	return flows, nil
}

func formatFlows(out io.Writer, stages []model.LifecycleStage, flows []model.MaterialFlow) {
	names := map[string]string{"": "-"}
	for _, st := range stages {
		names[st.ID] = st.Name
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FROM\tTO\tMATERIAL\tQUANTITY\tUNIT")
	for _, f := range flows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", names[f.FromStageID], names[f.ToStageID], f.MaterialType, f.Quantity, f.Unit)
	}
	_ = w.Flush()
}

func init() {
	flowsImportCmd.Flags().StringVar(&flowsFile, "file", "", "YAML file with a list of flows")
	_ = flowsImportCmd.MarkFlagRequired("file")

	for _, c := range []*cobra.Command{flowsImportCmd, flowsListCmd} {
		c.Flags().StringVar(&flowsScenario, "scenario", "", "scenario ID")
		_ = c.MarkFlagRequired("scenario")
	}

	flowsCmd.AddCommand(flowsImportCmd, flowsListCmd)
	scenarioCmd.AddCommand(flowsCmd)
}
