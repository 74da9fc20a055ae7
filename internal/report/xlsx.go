// Package report exports scenario results as spreadsheets.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lca-cli/internal/model"
)

// Sheet names in the exported workbook.
const (
	SheetScenario      = "Scenario"
	SheetEnvironmental = "Environmental"
	SheetCircularity   = "Circularity"
)

// Report is the input to WriteXLSX.
type Report struct {
	Scenario model.Scenario
	Stages   []model.LifecycleStage
	Results  model.Results
}

// WriteXLSX writes a workbook with a scenario summary sheet, one row per
// environmental result and one row per circularity metric.
func WriteXLSX(w io.Writer, r Report) error {
	f := xlsx.NewFile()

	if err := addSheet(f, SheetScenario, [][]any{
		{"Field", "Value"},
		{"Scenario ID", r.Scenario.ID},
		{"Project ID", r.Scenario.ProjectID},
		{"Name", r.Scenario.Name},
		{"Route", string(r.Scenario.RouteType)},
		{"Baseline", r.Scenario.IsBaseline},
		{"Status", string(r.Scenario.Status)},
		{"Run ID", r.Results.RunID},
	}); err != nil {
		return err
	}

	stageNames := make(map[string]string, len(r.Stages))
	for _, st := range r.Stages {
		stageNames[st.ID] = st.Name
	}

	env := [][]any{{"Stage", "Indicator", "Value", "Unit", "Calculation method"}}
	for _, res := range r.Results.Environmental {
		stage := "Total"
		if res.StageID != "" {
			stage = stageNames[res.StageID]
			if stage == "" {
				stage = res.StageID
			}
		}
		env = append(env, []any{stage, string(res.IndicatorType), res.Value, res.Unit, res.CalculationMethod})
	}
	if err := addSheet(f, SheetEnvironmental, env); err != nil {
		return err
	}

	circ := [][]any{{"Metric", "Value", "Unit", "Calculation method", "Details"}}
	for _, res := range r.Results.Circularity {
		circ = append(circ, []any{string(res.MetricType), res.Value, res.Unit, res.CalculationMethod, FormatDetails(res.Details)})
	}
	if err := addSheet(f, SheetCircularity, circ); err != nil {
		return err
	}

	return eris.Wrap(f.Write(w), "report: write xlsx")
}

func addSheet(f *xlsx.File, name string, rows [][]any) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", name)
	}
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			cell := row.AddCell()
			switch v := v.(type) {
			case float64:
				cell.SetFloat(v)
			case bool:
				cell.SetBool(v)
			case string:
				cell.SetString(v)
			default:
				cell.SetString(fmt.Sprint(v))
			}
		}
	}
	return nil
}

// FormatDetails renders a metric's details as sorted key=value pairs joined by
// "; ". It is shared by the workbook and the CLI table.
func FormatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, "; ")
}
