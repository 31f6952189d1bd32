package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyStrict bool

var verifyCmd = &cobra.Command{
	Use:   "verify [absent-teacher...]",
	Short: "复查当前分配文档",
	Long: `对当前分配文档运行全部检查并输出报告。

未指定缺勤教师时从缺勤名单文件读取文档日期的名单。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newDeps(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := rt.svc.Verify(cmd.Context(), args)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if verifyStrict && !resp.Pass {
			return fmt.Errorf("verification failed for %s", resp.Date)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "存在未通过的检查时以非零状态退出")
	rootCmd.AddCommand(verifyCmd)
}
