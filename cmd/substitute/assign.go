package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/ingest"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/service"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/stats"
)

var (
	assignDate   string
	assignReport bool
)

var assignCmd = &cobra.Command{
	Use:   "assign [teacher...]",
	Short: "为缺勤教师分配代课",
	Long: `为缺勤教师分配代课并保存分配文档。

未指定教师时从缺勤名单文件（data.absent）读取当天的名单。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := newDeps(ctx, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		teachers := args
		if len(teachers) == 0 {
			date := assignDate
			if date == "" {
				date = time.Now().Format(model.DateLayout)
			}
			if teachers, err = ingest.LoadAbsentList(cfg.Data.Path(cfg.Data.Absent), date); err != nil {
				return err
			}
		}

		resp, err := rt.svc.Assign(ctx, service.AssignRequest{Date: assignDate, Teachers: teachers})
		if err != nil {
			return err
		}
		if assignReport {
			fmt.Fprint(cmd.ErrOrStderr(), stats.NewCoverageAnalyzer().GenerateCoverageReport(resp.Coverage))
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	assignCmd.Flags().StringVarP(&assignDate, "date", "d", "", "分配日期 YYYY-MM-DD，默认今天")
	assignCmd.Flags().BoolVar(&assignReport, "report", false, "在标准错误输出覆盖率报告")
	rootCmd.AddCommand(assignCmd)
}
