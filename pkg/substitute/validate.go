package substitute

import (
	"fmt"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/diagnostics"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/workload"
)

// validate 运行结束后的复查：工作量上限与年级匹配
//
// 正常情况下候选过滤已保证两项都满足，这里只记录异常。
func (r *run) validate() {
	issues := 0

	for _, load := range r.ctx.Tracker.OverCap() {
		msg := fmt.Sprintf("%s exceeded maximum workload (%d/%d)", load.Substitute, load.Count, r.ctx.Tracker.Cap())
		r.warn(msg)
		r.diag.Error(diagnostics.ActionValidation, msg, nil)
		issues++
	}

	for _, a := range r.result.Assignments {
		grade, ok := r.grades[workload.Key(a.Substitute)]
		if !ok {
			continue
		}
		if classifyGrade(grade, model.GradeOf(a.ClassName)) == tierExcluded {
			msg := fmt.Sprintf("Grade conflict: %s (grade %d) assigned to %s", a.Substitute, grade, a.ClassName)
			r.warn(msg)
			r.diag.Error(diagnostics.ActionValidation, msg, nil)
			issues++
		}
	}

	r.diag.Info(diagnostics.ActionValidation, "Post-run validation finished", model.JSONMap{"issues": issues})
}
