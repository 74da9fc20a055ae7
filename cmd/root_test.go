package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lca-cli/internal/model"
	"github.com/sells-group/lca-cli/internal/store"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"migrate", "scenario", "compute", "templates", "export", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lca-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScenarioCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range scenarioCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"create", "set", "autofill", "status", "list", "flows"} {
		assert.True(t, names[name], "scenario should have subcommand %q", name)
	}
}

func TestScenarioCreateCommand_Flags(t *testing.T) {
	for _, name := range []string{"project", "name", "route", "baseline", "description"} {
		assert.NotNil(t, scenarioCreateCmd.Flags().Lookup(name), "create should have --%s flag", name)
	}
	assert.Equal(t, "primary", scenarioCreateCmd.Flags().Lookup("route").DefValue)
}

func TestScenarioSetCommand_Flags(t *testing.T) {
	for _, name := range []string{"param", "stage", "name", "value", "source", "model", "confidence"} {
		assert.NotNil(t, scenarioSetCmd.Flags().Lookup(name), "set should have --%s flag", name)
	}
	assert.Equal(t, "manual", scenarioSetCmd.Flags().Lookup("source").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, flag)
	assert.Equal(t, "results.xlsx", flag.DefValue)
}

func chdirTemp(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644))
	}
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	oldCfg := cfg
	t.Cleanup(func() { cfg = oldCfg })
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_PersistentPreRunE_WithValidConfig(t *testing.T) {
	chdirTemp(t, `
store:
  driver: sqlite
  database_url: custom.db
log:
  level: info
  format: console
`)
	cfg = nil

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "custom.db", cfg.Store.DatabaseURL)
}

func TestRootCmd_PersistentPreRunE_NoConfigFile(t *testing.T) {
	chdirTemp(t, "")
	cfg = nil

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "local", cfg.Lease.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestRootCmd_PersistentPreRunE_BadLogLevel(t *testing.T) {
	chdirTemp(t, `
log:
  level: NOT_A_LEVEL
  format: console
`)
	cfg = nil

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init logger")
}

func TestInitApp_RejectsInvalidConfig(t *testing.T) {
	chdirTemp(t, `
store:
  driver: mysql
log:
  level: error
`)

	_, err := runCLI(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestTemplatesList(t *testing.T) {
	chdirTemp(t, "log:\n  level: error\n")

	out, err := runCLI(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "secondary")
	assert.Contains(t, out, "scrap_sorting")
	assert.Contains(t, out, "energy_consumption")
}

func lineContaining(t *testing.T, out, needle string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	t.Fatalf("no line containing %q in:\n%s", needle, out)
	return ""
}

func TestScenarioWorkflow(t *testing.T) {
	dir := chdirTemp(t, `
store:
  driver: sqlite
  database_url: workflow.db
log:
  level: error
`)

	out, err := runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated sqlite store")

	out, err = runCLI(t, "scenario", "create", "--project", "p1", "--name", "Billet", "--route", "secondary")
	require.NoError(t, err)
	id := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	require.NotEmpty(t, id)
	assert.Contains(t, out, "8 stages")

	_, err = runCLI(t, "compute", "--scenario", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete scenario")

	out, err = runCLI(t, "scenario", "autofill", "--scenario", id)
	require.NoError(t, err)
	assert.Contains(t, out, "filled")

	out, err = runCLI(t, "scenario", "status", "--scenario", id)
	require.NoError(t, err)
	assert.Contains(t, out, "incomplete")
	fields := strings.Fields(lineContaining(t, out, "application"))
	paramID := fields[len(fields)-1]

	out, err = runCLI(t, "scenario", "set", "--param", paramID, "--value", "construction")
	require.NoError(t, err)
	assert.Contains(t, out, "application = construction (manual)")

	out, err = runCLI(t, "scenario", "list", "--project", "p1")
	require.NoError(t, err)
	assert.Contains(t, lineContaining(t, out, id), "ready")

	out, err = runCLI(t, "compute", "--scenario", id)
	require.NoError(t, err)
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "loop_closure")

	out, err = runCLI(t, "compute", "--scenario", id, "--latest", "--json")
	require.NoError(t, err)
	var results model.Results
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results.Circularity, 5)

	xlsxPath := filepath.Join(dir, "out.xlsx")
	out, err = runCLI(t, "export", "--scenario", id, "--out", xlsxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestScenarioFlows(t *testing.T) {
	dir := chdirTemp(t, `
store:
  driver: sqlite
  database_url: flows.db
log:
  level: error
`)

	out, err := runCLI(t, "scenario", "create", "--project", "p1", "--name", "Billet", "--route", "secondary")
	require.NoError(t, err)
	id := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])

	st, err := store.NewSQLite(filepath.Join(dir, "flows.db"))
	require.NoError(t, err)
	stages, err := st.ListStagesByScenario(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.GreaterOrEqual(t, len(stages), 2)

	flowsPath := filepath.Join(dir, "flows.yaml")
	require.NoError(t, os.WriteFile(flowsPath, []byte(`
- to_stage_id: `+stages[0].ID+`
  material_type: post_consumer_scrap
  quantity: 1100
  unit: kg
- from_stage_id: `+stages[0].ID+`
  to_stage_id: `+stages[1].ID+`
  material_type: sorted_scrap
  quantity: 1050
  unit: kg
`), 0o644))

	out, err = runCLI(t, "scenario", "flows", "import", "--scenario", id, "--file", flowsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "recorded 2 flows")

	out, err = runCLI(t, "scenario", "flows", "list", "--scenario", id)
	require.NoError(t, err)
	line := lineContaining(t, out, "sorted_scrap")
	assert.Contains(t, line, stages[0].Name)
	assert.Contains(t, line, stages[1].Name)
	assert.Contains(t, line, "1050.00")
	assert.Contains(t, lineContaining(t, out, "post_consumer_scrap"), "-")

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("- material_type: scrap\n  quantity: -1\n"), 0o644))
	_, err = runCLI(t, "scenario", "flows", "import", "--scenario", id, "--file", badPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity must be a non-negative number")
}

func TestFormatResults_DetailsMatchWorkbook(t *testing.T) {
	var out bytes.Buffer
	formatResults(&out, nil, &model.Results{
		RunID: "run-1",
		Circularity: []model.CircularityResult{{
			MetricType: model.MetricLoopClosure,
			Value:      30,
			Unit:       "%",
			Details:    map[string]any{"recycled_content": 40, "recovery_rate": 75},
		}},
	})
	assert.Contains(t, lineContaining(t, out.String(), "loop_closure"), "recovery_rate=75; recycled_content=40")
}
