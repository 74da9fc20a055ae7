package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the scenario tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		// initApp migrates as part of setup.
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", cfg.Store.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
