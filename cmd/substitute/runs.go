package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "列出最近的分配运行（仅 postgres 后端）",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Backend != config.BackendPostgres {
			return fmt.Errorf("runs requires store.backend=%s", config.BackendPostgres)
		}
		rt, err := newDeps(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		runs, err := rt.repo.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), runs)
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "返回条数")
	rootCmd.AddCommand(runsCmd)
}
