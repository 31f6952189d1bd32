package main

import (
	"github.com/spf13/cobra"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "清空分配文档",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newDeps(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.svc.Reset(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Str("backend", cfg.Store.Backend).Msg("分配文档已清空")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
