package main

import (
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "读取并校验名册、课表、课程表与人工补录",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newDeps(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		summary, err := rt.svc.Inspect()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
