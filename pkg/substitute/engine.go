// Package substitute 提供代课分配引擎
package substitute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/diagnostics"
	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/timetable"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/workload"
)

// Options 引擎参数
type Options struct {
	WorkloadCap int

	// DefaultGrade 名册未填写年级能力时使用，<= 0 时为 model.DefaultGradeLevel
	DefaultGrade int
}

// Engine 代课分配引擎
//
// 引擎本身不保存跨运行的状态，每次 Run 都新建工作量跟踪器和诊断日志。
type Engine struct {
	opts        Options
	constraints []Constraint
}

// NewEngine 创建使用默认约束的引擎
func NewEngine(opts Options) *Engine {
	return NewEngineWithConstraints(opts, DefaultConstraints())
}

// NewEngineWithConstraints 创建带自定义约束的引擎
func NewEngineWithConstraints(opts Options, constraints []Constraint) *Engine {
	if opts.WorkloadCap <= 0 {
		opts.WorkloadCap = workload.DefaultCap
	}
	if opts.DefaultGrade <= 0 {
		opts.DefaultGrade = model.DefaultGradeLevel
	}
	return &Engine{opts: opts, constraints: constraints}
}

// Request 分配请求
type Request struct {
	RunID          string
	Date           time.Time
	AbsentTeachers []string
	Roster         []model.RosterEntry
	Index          *timetable.Index
	Schedules      DirectSchedule
	Overrides      []model.ManualOverride

	// Persisted 当天已持久化的分配，用于初始化工作量
	Persisted []model.SubstituteAssignment
}

// Coverage 缺勤课程覆盖情况
type Coverage struct {
	Total    int `json:"total"`
	Filled   int `json:"filled"`
	Unfilled int `json:"unfilled"`
}

// Result 分配结果
type Result struct {
	RunID       string                       `json:"runId"`
	Date        string                       `json:"date"`
	Day         model.Day                    `json:"day"`
	Assignments []model.SubstituteAssignment `json:"assignments"`
	Warnings    []string                     `json:"warnings"`
	Workload    []workload.Load              `json:"workload"`
	Coverage    Coverage                     `json:"coverage"`
	Uncovered   []model.UncoveredPeriod      `json:"uncovered"`
	Diagnostics *diagnostics.Log             `json:"-"`
}

// coveredKey 已有代课的缺勤课程
type coveredKey struct {
	teacher   string
	period    int
	className string
}

// run 单次运行的可变状态
type run struct {
	ctx         *Context
	constraints []Constraint
	diag        *diagnostics.Log
	log         *logger.EngineLogger
	pool        []*Candidate
	result      *Result
	grades      map[string]int
	resolver    *resolver

	// covered 当天已保存的分配，值为代课教师
	covered map[coveredKey]string
}

// Run 为缺勤教师分配代课
//
// 缺勤教师按名单顺序处理，候选人按名册顺序；相同输入得到完全相同的结果。
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Index == nil {
		return nil, apperrors.InvalidInput("timetable", "课表索引不能为空")
	}
	if req.Date.IsZero() {
		return nil, apperrors.InvalidInput("date", "日期不能为空")
	}
	if req.RunID == "" {
		req.RunID = uuid.New().String()
	}

	start := time.Now()
	elog := logger.NewEngineLogger(req.RunID)
	diag := diagnostics.New(req.RunID, elog.Base())
	day := model.DayOf(req.Date)
	date := req.Date.Format(model.DateLayout)

	diag.Info(diagnostics.ActionProcessStart, "Starting substitute assignment",
		model.JSONMap{"date": date, "absent": len(req.AbsentTeachers)})
	done := diag.Timed(diagnostics.ActionProcessComplete)
	diag.Info(diagnostics.ActionDayCalculation, fmt.Sprintf("%s is a %s", date, day), nil)

	tracker := workload.New(e.opts.WorkloadCap)
	tracker.Seed(req.Persisted)

	r := &run{
		ctx: &Context{
			Day:       day,
			Index:     req.Index,
			Schedules: req.Schedules,
			Tracker:   tracker,
			absent:    make(map[string]bool),
		},
		constraints: e.constraints,
		diag:        diag,
		log:         elog,
		result: &Result{
			RunID:       req.RunID,
			Date:        date,
			Day:         day,
			Assignments: []model.SubstituteAssignment{},
			Warnings:    []string{},
			Uncovered:   []model.UncoveredPeriod{},
			Diagnostics: diag,
		},
		grades:  make(map[string]int),
		covered: make(map[coveredKey]string),
		resolver: &resolver{
			day:       day,
			index:     req.Index,
			schedules: req.Schedules,
			overrides: req.Overrides,
			roster:    req.Roster,
			diag:      diag,
		},
	}

	for _, name := range req.AbsentTeachers {
		for _, key := range identityKeys(req.Index, name) {
			r.ctx.absent[key] = true
		}
	}
	for _, a := range req.Persisted {
		r.covered[r.coverKey(a.OriginalTeacher, a.Period, a.ClassName)] = a.Substitute
	}
	r.pool = buildPool(req.Roster, e.opts.DefaultGrade)
	for _, c := range r.pool {
		r.grades[workload.Key(c.Name)] = c.GradeLevel
	}

	diag.Info(diagnostics.ActionDataLoading, "Loaded run inputs", model.JSONMap{
		"roster":    len(req.Roster),
		"pool":      len(r.pool),
		"entries":   len(req.Index.Entries()),
		"overrides": len(req.Overrides),
		"persisted": len(req.Persisted),
	})
	elog.StartRun(date, len(req.AbsentTeachers), len(r.pool))

	for _, name := range req.AbsentTeachers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.processTeacher(name)
	}

	r.validate()
	r.result.Workload = tracker.Totals()

	done("Substitute assignment finished", diagnostics.StatusInfo, model.JSONMap{
		"assignments": len(r.result.Assignments),
		"warnings":    len(r.result.Warnings),
		"filled":      r.result.Coverage.Filled,
		"unfilled":    r.result.Coverage.Unfilled,
	})
	elog.RunComplete(time.Since(start), len(r.result.Assignments), len(r.result.Warnings))

	return r.result, nil
}

// buildPool 名册中有联系电话的教师，保持名册顺序
func buildPool(roster []model.RosterEntry, defaultGrade int) []*Candidate {
	pool := make([]*Candidate, 0, len(roster))
	for _, entry := range roster {
		if !entry.CanSubstitute() {
			continue
		}
		c := &Candidate{
			Name:       normalizer.CanonicalName(entry.Name),
			Phone:      entry.Phone,
			GradeLevel: defaultGrade,
			Variations: entry.Variations,
			position:   len(pool),
		}
		if entry.GradeLevel != nil {
			c.GradeLevel = *entry.GradeLevel
			c.Declared = true
		}
		pool = append(pool, c)
	}
	return pool
}

func (r *run) warn(msg string) {
	r.result.Warnings = append(r.result.Warnings, msg)
}

// displayName 缺勤教师的显示名称：注册表中的规范名称，否则为原始输入
func (r *run) displayName(name string) string {
	if identity, ok := r.ctx.Index.Registry().Lookup(name); ok {
		return identity.CanonicalName
	}
	return normalizer.CanonicalName(name)
}

// coverKey 以规范化的缺勤教师姓名为键，与输入写法无关
func (r *run) coverKey(teacher string, period int, className string) coveredKey {
	return coveredKey{
		teacher:   normalizer.NormalizeName(r.displayName(teacher)),
		period:    period,
		className: className,
	}
}

func (r *run) processTeacher(name string) {
	teacher := r.displayName(name)
	done := r.diag.Timed(diagnostics.ActionTeacherProcessing)
	defer func() {
		done(fmt.Sprintf("Finished absent teacher %s", teacher), diagnostics.StatusInfo, nil)
	}()
	r.diag.Info(diagnostics.ActionTeacherProcessing, fmt.Sprintf("Processing absent teacher %s", teacher), nil)
	r.diag.Info(diagnostics.ActionNameProcessing, fmt.Sprintf("Normalized %q", name),
		model.JSONMap{"normalized": normalizer.NormalizeName(name), "display": teacher})

	slots := r.resolver.resolve(name)
	if len(slots) == 0 {
		msg := fmt.Sprintf("No periods found for %s on %s", teacher, r.ctx.Day)
		r.warn(msg)
		r.diag.Warning(diagnostics.ActionPeriodsFound, msg, nil)
		r.log.PeriodsResolved(teacher, 0, nil)
		return
	}

	sources := make([]string, 0, len(slots))
	periods := make([]model.JSONMap, 0, len(slots))
	for _, s := range slots {
		sources = append(sources, s.Source)
		periods = append(periods, model.JSONMap{"period": s.Period, "className": s.ClassName, "source": s.Source})
	}
	r.diag.Info(diagnostics.ActionPeriodsFound,
		fmt.Sprintf("Found %d periods for %s", len(slots), teacher), model.JSONMap{"periods": periods})
	r.log.PeriodsResolved(teacher, len(slots), sources)

	for _, s := range slots {
		if sub, ok := r.covered[r.coverKey(teacher, s.Period, s.ClassName)]; ok {
			r.diag.Info(diagnostics.ActionAlreadyCovered,
				fmt.Sprintf("%s period %d class %s already covered by %s", teacher, s.Period, s.ClassName, sub),
				model.JSONMap{"substitute": sub, "period": s.Period, "className": s.ClassName})
			continue
		}
		r.assign(teacher, Slot{
			Teacher:     teacher,
			Period:      s.Period,
			ClassName:   s.ClassName,
			TargetGrade: model.GradeOf(s.ClassName),
		})
	}
}

// assign 为一节课选择代课教师
func (r *run) assign(teacher string, slot Slot) {
	r.result.Coverage.Total++

	var preferred, fallback []*Candidate
	for _, c := range r.pool {
		if ok, reason := r.evaluate(c, slot); !ok {
			r.diag.Info(diagnostics.ActionCandidateFiltered, reason,
				model.JSONMap{"candidate": c.Name, "period": slot.Period, "className": slot.ClassName})
			continue
		}
		switch tierOf(c, slot.TargetGrade) {
		case tierPreferred:
			preferred = append(preferred, c)
		case tierFallback:
			fallback = append(fallback, c)
		default:
			r.diag.Info(diagnostics.ActionCandidateFiltered,
				fmt.Sprintf("%s grade %d below %s", c.Name, c.GradeLevel, slot.ClassName),
				model.JSONMap{"candidate": c.Name, "period": slot.Period, "className": slot.ClassName})
		}
	}

	candidates, usedFallback := preferred, false
	if len(candidates) == 0 && len(fallback) > 0 {
		candidates, usedFallback = fallback, true
	}
	if len(candidates) == 0 {
		msg := fmt.Sprintf("No suitable substitute found for %s, period %d, class %s", teacher, slot.Period, slot.ClassName)
		r.warn(msg)
		r.result.Coverage.Unfilled++
		r.result.Uncovered = append(r.result.Uncovered, model.UncoveredPeriod{
			Teacher:   teacher,
			Period:    slot.Period,
			ClassName: slot.ClassName,
		})
		r.diag.Warning(diagnostics.ActionNoSubstitute, msg, nil)
		r.log.NoSubstitute(teacher, slot.Period, slot.ClassName)
		return
	}

	chosen := r.leastLoaded(candidates)
	if usedFallback {
		msg := fmt.Sprintf("Using higher-grade substitute %s for %s", chosen.Name, slot.ClassName)
		r.warn(msg)
		r.diag.Warning(diagnostics.ActionAssignmentCreated, msg, nil)
	}

	r.ctx.Tracker.Commit(chosen.Name, slot.Period)
	r.result.Assignments = append(r.result.Assignments, model.SubstituteAssignment{
		OriginalTeacher: teacher,
		Period:          slot.Period,
		ClassName:       slot.ClassName,
		Substitute:      chosen.Name,
		SubstitutePhone: chosen.Phone,
	})
	r.result.Coverage.Filled++

	r.diag.Info(diagnostics.ActionAssignmentCreated,
		fmt.Sprintf("Assigned %s to %s period %d for %s", chosen.Name, slot.ClassName, slot.Period, teacher),
		model.JSONMap{
			"substitute": chosen.Name,
			"workload":   r.ctx.Tracker.Count(chosen.Name),
			"preferred":  len(preferred),
			"fallback":   len(fallback),
		})
}

func (r *run) evaluate(c *Candidate, slot Slot) (bool, string) {
	for _, constraint := range r.constraints {
		if ok, reason := constraint.Evaluate(c, slot, r.ctx); !ok {
			return false, fmt.Sprintf("[%s] %s", constraint.Name(), reason)
		}
	}
	return true, ""
}

// leastLoaded 工作量最少者优先，相同时按名册顺序
func (r *run) leastLoaded(candidates []*Candidate) *Candidate {
	best := candidates[0]
	bestLoad := r.ctx.Tracker.Count(best.Name)
	for _, c := range candidates[1:] {
		load := r.ctx.Tracker.Count(c.Name)
		if load < bestLoad || (load == bestLoad && c.position < best.position) {
			best, bestLoad = c, load
		}
	}
	return best
}
