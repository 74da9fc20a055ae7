package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the stage and parameter template catalog",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the active template catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := template.Load(cfg.Templates.Path)
		if err != nil {
			return err
		}
		formatCatalog(cmd.OutOrStdout(), catalog)
		return nil
	},
}

// formatCatalog writes each route's stages with the parameters each stage
// type declares.
func formatCatalog(out io.Writer, c *template.Catalog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, route := range c.Routes() {
		_, _ = fmt.Fprintf(w, "%s\n", route)
		defs, _ := c.StageTemplate(route)
		for _, d := range defs {
			_, _ = fmt.Fprintf(w, "  %d\t%s\t%s\n", d.Order, d.StageType, d.Name)
		}
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "STAGE TYPE\tPARAMETER\tTYPE\tUNIT\tDEFAULT")
	for _, st := range c.StageTypes() {
		for _, p := range c.ParameterTemplates(st) {
			def := "-"
			if p.DefaultValue != nil {
				def = strconv.FormatFloat(*p.DefaultValue, 'f', -1, 64)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st, p.Name, p.Type, p.Unit, def)
		}
	}
	_ = w.Flush()
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	rootCmd.AddCommand(templatesCmd)
}
