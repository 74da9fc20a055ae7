package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/scenario"
	"github.com/sells-group/lca-cli/internal/store"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Create, fill, and inspect scenarios",
}

var (
	createProject     string
	createName        string
	createRoute       string
	createBaseline    bool
	createDescription string
)

var scenarioCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scenario and scaffold its stages and parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Service.CreateScenario(cmd.Context(), model.NewScenario{
			ProjectID:   createProject,
			Name:        createName,
			RouteType:   model.RouteType(createRoute),
			IsBaseline:  createBaseline,
			Description: createDescription,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, d.Scenario.ID)
		_, _ = fmt.Fprintf(out, "route %s: %d stages, %d parameters\n", d.Scenario.RouteType, len(d.Stages), len(d.Parameters))
		return nil
	},
}

var (
	setParam      string
	setStage      string
	setName       string
	setValue      string
	setSource     string
	setModel      string
	setConfidence float64
)

var scenarioSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a parameter value",
	Long:  "Sets one parameter, addressed either by --param or by --stage and --name.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		paramID := setParam
		if paramID == "" {
			paramID, err = findParameter(cmd, env.Store, setStage, setName)
			if err != nil {
				return err
			}
		}

		v := model.ParameterValue{
			TextValue: model.String(setValue),
			Source:    model.ParseParameterSource(setSource),
		}
		if v.Source == model.SourceAIPrediction {
			v.AI = &model.AIProvenance{ModelName: setModel, Confidence: setConfidence}
		}

		p, err := env.Service.SetParameterValue(cmd.Context(), paramID, v)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", p.Name, formatValue(*p), p.Source)
		return nil
	},
}

func findParameter(cmd *cobra.Command, st store.ParameterRepo, stageID, name string) (string, error) {
	if stageID == "" || name == "" {
		return "", eris.New("either --param or both --stage and --name are required")
	}
	params, err := st.ListParametersByStage(cmd.Context(), stageID)
	if err != nil {
		return "", err
	}
	for _, p := range params {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return "", eris.Wrapf(scenario.ErrParameterNotFound, "stage %s parameter %s", stageID, name)
}

var autofillScenario string

var scenarioAutofillCmd = &cobra.Command{
	Use:   "autofill",
	Short: "Fill unset parameters from industry defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Service.ApplyIndustryDefaults(cmd.Context(), autofillScenario)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "filled %d parameters\n", n)
		return nil
	},
}

var statusScenario string

var scenarioStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show parameter completeness for a scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Service.GetScenario(cmd.Context(), statusScenario)
		if err != nil {
			return err
		}
		rep, err := env.Service.Completeness(cmd.Context(), statusScenario)
		if err != nil {
			return err
		}
		formatStatus(cmd.OutOrStdout(), d, rep)
		return nil
	},
}

var (
	listProject string
	listStatus  string
	listLimit   int
)

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		filter := store.ScenarioFilter{ProjectID: listProject, Limit: listLimit}
		if listStatus != "" {
			filter.Status = model.ParseScenarioStatus(listStatus)
		}
		scenarios, err := env.Service.ListScenarios(cmd.Context(), filter)
		if err != nil {
			return err
		}
		formatScenarioList(cmd.OutOrStdout(), scenarios)
		return nil
	},
}

// formatStatus writes a completeness summary followed by the missing
// parameters grouped under their stage names.
func formatStatus(out io.Writer, d *scenario.Detail, rep *scenario.Report) {
	state := color.New(color.FgYellow).Sprint("incomplete")
	if rep.Complete {
		state = color.New(color.FgHiGreen).Sprint("complete")
	}
	_, _ = fmt.Fprintf(out, "%s  %s  [%s]\n", d.Scenario.Name, color.New(color.FgCyan).Sprint(d.Scenario.Status), state)
	_, _ = fmt.Fprintf(out, "parameters: %d/%d filled (%.0f%%)\n", rep.Filled, rep.Total, rep.Percent())

	if len(rep.Missing) == 0 {
		return
	}
	stageNames := make(map[string]string, len(d.Stages))
	for _, st := range d.Stages {
		stageNames[st.ID] = st.Name
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tPARAMETER\tUNIT\tID")
	for _, p := range rep.Missing {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			stageNames[p.StageID],
			color.New(color.FgRed).Sprint(p.Name),
			p.Unit,
			p.ID,
		)
	}
	_ = w.Flush()
}

func formatScenarioList(out io.Writer, scenarios []model.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROJECT\tNAME\tROUTE\tSTATUS\tCREATED")
	for _, s := range scenarios {
		name := s.Name
		if s.IsBaseline {
			name += " *"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.ProjectID, name, s.RouteType, s.Status,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func formatValue(p model.StageParameter) string {
	if p.Value != nil {
		return strconv.FormatFloat(*p.Value, 'f', -1, 64)
	}
	if p.TextValue != nil {
		return *p.TextValue
	}
	return "-"
}

func init() {
	scenarioCreateCmd.Flags().StringVar(&createProject, "project", "", "project ID")
	scenarioCreateCmd.Flags().StringVar(&createName, "name", "", "scenario name")
	scenarioCreateCmd.Flags().StringVar(&createRoute, "route", string(model.RouteTypePrimary), "route type (primary, secondary, hybrid)")
	scenarioCreateCmd.Flags().BoolVar(&createBaseline, "baseline", false, "mark as the project baseline")
	scenarioCreateCmd.Flags().StringVar(&createDescription, "description", "", "free-form description")
	_ = scenarioCreateCmd.MarkFlagRequired("project")
	_ = scenarioCreateCmd.MarkFlagRequired("name")

	scenarioSetCmd.Flags().StringVar(&setParam, "param", "", "parameter ID")
	scenarioSetCmd.Flags().StringVar(&setStage, "stage", "", "stage ID")
	scenarioSetCmd.Flags().StringVar(&setName, "name", "", "parameter name within the stage")
	scenarioSetCmd.Flags().StringVar(&setValue, "value", "", "value; numeric parameters must parse as numbers")
	scenarioSetCmd.Flags().StringVar(&setSource, "source", string(model.SourceManual), "value source (manual, ai_prediction, industry_default)")
	scenarioSetCmd.Flags().StringVar(&setModel, "model", "", "predicting model name, for ai_prediction")
	scenarioSetCmd.Flags().Float64Var(&setConfidence, "confidence", 0, "prediction confidence, for ai_prediction")
	_ = scenarioSetCmd.MarkFlagRequired("value")

	scenarioAutofillCmd.Flags().StringVar(&autofillScenario, "scenario", "", "scenario ID")
	_ = scenarioAutofillCmd.MarkFlagRequired("scenario")

	scenarioStatusCmd.Flags().StringVar(&statusScenario, "scenario", "", "scenario ID")
	_ = scenarioStatusCmd.MarkFlagRequired("scenario")

	scenarioListCmd.Flags().StringVar(&listProject, "project", "", "filter by project ID")
	scenarioListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	scenarioListCmd.Flags().IntVar(&listLimit, "limit", 100, "max scenarios to list")

	scenarioCmd.AddCommand(scenarioCreateCmd, scenarioSetCmd, scenarioAutofillCmd, scenarioStatusCmd, scenarioListCmd)
	rootCmd.AddCommand(scenarioCmd)
}
