// Package service 串联输入加载、分配引擎、存储与诊断
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/ingest"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/metrics"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/repository"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/diagnostics"
	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/stats"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/store"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/substitute"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/timetable"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/validator"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/workload"
)

// RunRecorder 记录运行摘要（PostgreSQL 后端提供）
type RunRecorder interface {
	RecordRun(ctx context.Context, rec repository.RunRecord) error
}

// Options 服务依赖
type Options struct {
	Config  *config.Config
	Store   store.Store
	Sink    diagnostics.Sink
	Metrics *metrics.Recorder
	Runs    RunRecorder
	Now     func() time.Time
}

// Service 代课分配服务
//
// 同一时间只允许一个分配任务运行，后来的请求直接返回 RUN_IN_PROGRESS。
type Service struct {
	cfg      *config.Config
	store    store.Store
	sink     diagnostics.Sink
	metrics  *metrics.Recorder
	runs     RunRecorder
	engine   *substitute.Engine
	detector *validator.ConflictDetector
	now      func() time.Time
	log      zerolog.Logger

	mu sync.Mutex
}

// New 创建服务；Store 与 Sink 为空时按配置使用文件实现
func New(opts Options) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Store == nil {
		opts.Store = store.NewFileStore(cfg.Data.Path(cfg.Data.Assignments))
	}
	if opts.Sink == nil {
		opts.Sink = diagnostics.NewFileSink(cfg.Data.Path(cfg.Data.Logs))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	detector := validator.NewConflictDetector(&validator.DetectorConfig{
		WorkloadCap: cfg.Engine.WorkloadCap,
		MaxGini:     cfg.Engine.MaxGini,
	})
	engine := substitute.NewEngine(substitute.Options{
		WorkloadCap:  cfg.Engine.WorkloadCap,
		DefaultGrade: cfg.Engine.DefaultGrade,
	})
	return &Service{
		cfg:      cfg,
		store:    opts.Store,
		sink:     opts.Sink,
		metrics:  opts.Metrics,
		runs:     opts.Runs,
		engine:   engine,
		detector: detector,
		now:      opts.Now,
		log:      *logger.WithField("component", "service"),
	}
}

// AssignRequest 分配请求
type AssignRequest struct {
	Date     string   `json:"date"`
	Teachers []string `json:"teachers"`
}

// AssignResponse 分配结果
type AssignResponse struct {
	RunID       string                       `json:"runId"`
	Date        string                       `json:"date"`
	Day         model.Day                    `json:"day"`
	Assignments []model.SubstituteAssignment `json:"assignments"`
	Warnings    []string                     `json:"warnings"`
	Workload    []workload.Load              `json:"workload"`
	Coverage    *stats.CoverageMetrics       `json:"coverage"`
	Fairness    *stats.FairnessMetrics       `json:"fairness"`
	Document    model.AssignmentDocument     `json:"document"`
	LogArchived string                       `json:"logArchived,omitempty"`
}

// inputs 单次运行读取的输入
type inputs struct {
	roster    []model.RosterEntry
	index     *timetable.Index
	warnings  []string
	schedules substitute.DirectSchedule
	overrides []model.ManualOverride
}

// Assign 为指定日期的缺勤教师分配代课并持久化
func (s *Service) Assign(ctx context.Context, req AssignRequest) (*AssignResponse, error) {
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}
	names := ingest.UniqueNames(req.Teachers)
	if len(names) == 0 {
		return nil, apperrors.ErrEmptyAbsentList
	}

	if !s.mu.TryLock() {
		return nil, apperrors.ErrRunInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	resp, err := s.assign(ctx, date, names)
	if s.metrics != nil {
		outcome := metrics.RunOutcome{Success: err == nil, Duration: time.Since(start)}
		if resp != nil {
			outcome.Assignments = len(resp.Assignments)
			outcome.Warnings = len(resp.Warnings)
			outcome.Unfilled = len(resp.Coverage.Uncovered)
			s.metrics.SetCoverageRate(resp.Coverage.OverallCoverage)
			s.metrics.SetFairnessGini(resp.Fairness.WorkloadGini)
		}
		s.metrics.RecordRun(outcome)
	}
	if err != nil {
		return nil, err
	}

	if s.runs != nil {
		rec := repository.RunRecord{
			Date:        resp.Date,
			Absent:      len(names),
			Assignments: len(resp.Assignments),
			Warnings:    len(resp.Warnings),
			DurationMs:  time.Since(start).Milliseconds(),
		}
		if id, perr := uuid.Parse(resp.RunID); perr == nil {
			rec.RunID = id
		}
		if err := s.runs.RecordRun(ctx, rec); err != nil {
			s.log.Warn().Err(err).Msg("记录运行摘要失败")
		}
	}
	return resp, nil
}

func (s *Service) assign(ctx context.Context, date time.Time, names []string) (*AssignResponse, error) {
	in, err := s.loadInputs()
	if err != nil {
		return nil, err
	}

	doc, recovery, err := s.store.Load(ctx)
	if err != nil {
		return nil, apperrors.StoreFailed("读取分配文档", err)
	}
	dateStr := date.Format(model.DateLayout)
	sameDay := doc.ForDate(dateStr)
	var persisted []model.SubstituteAssignment
	if sameDay {
		persisted = doc.Assignments
	}

	res, err := s.engine.Run(ctx, substitute.Request{
		RunID:          uuid.New().String(),
		Date:           date,
		AbsentTeachers: names,
		Roster:         in.roster,
		Index:          in.index,
		Schedules:      in.schedules,
		Overrides:      in.overrides,
		Persisted:      persisted,
	})
	if err != nil {
		return nil, err
	}

	warnings := make([]string, 0, len(recovery)+len(in.warnings)+len(res.Warnings))
	warnings = append(warnings, recovery...)
	warnings = append(warnings, in.warnings...)
	warnings = append(warnings, res.Warnings...)

	next := model.EmptyDocument()
	next.Date = dateStr
	if sameDay {
		next.Assignments = append(next.Assignments, doc.Assignments...)
		next.Warnings = append(next.Warnings, doc.Warnings...)
	}
	next.Assignments = append(next.Assignments, res.Assignments...)
	next.Warnings = append(next.Warnings, warnings...)

	saved := res.Diagnostics.Timed(diagnostics.ActionDataSave)
	if err := s.store.Save(ctx, next); err != nil {
		saved("Failed to save assignment document: "+err.Error(), diagnostics.StatusError, nil)
		if _, perr := s.sink.Persist(ctx, dateStr, res.Diagnostics); perr != nil {
			s.log.Warn().Err(perr).Str("date", dateStr).Msg("写入诊断日志失败")
		}
		return nil, apperrors.StoreFailed("保存分配文档", err)
	}
	saved("Saved assignment document", diagnostics.StatusInfo, model.JSONMap{
		"added": len(res.Assignments),
		"total": len(next.Assignments),
	})

	archived, err := s.sink.Persist(ctx, dateStr, res.Diagnostics)
	if err != nil {
		// 诊断日志写入失败不影响分配结果
		s.log.Warn().Err(err).Str("date", dateStr).Msg("写入诊断日志失败")
	}

	pool := poolNames(in.roster)
	return &AssignResponse{
		RunID:       res.RunID,
		Date:        res.Date,
		Day:         res.Day,
		Assignments: res.Assignments,
		Warnings:    warnings,
		Workload:    res.Workload,
		Coverage:    stats.NewCoverageAnalyzer().Analyze(res.Assignments, res.Uncovered),
		Fairness:    stats.NewFairnessAnalyzer(s.cfg.Engine.WorkloadCap).Analyze(next.Assignments, pool),
		Document:    next,
		LogArchived: archived,
	}, nil
}

// loadInputs 读取名册、课表、直接课程表与人工补录，并重建课表索引
func (s *Service) loadInputs() (*inputs, error) {
	data := s.cfg.Data
	roster, err := ingest.LoadRoster(data.Path(data.Roster))
	if err != nil {
		return nil, err
	}

	table, err := ingest.LoadTimetable(data.Path(data.Timetable))
	if err != nil {
		return nil, err
	}
	registry := normalizer.NewRegistry(s.cfg.Engine.SimilarityThreshold)
	registry.RegisterRoster(roster)
	index, warnings, err := timetable.Build(table, registry)
	if err != nil {
		return nil, err
	}

	schedules, err := ingest.LoadSchedules(data.Path(data.Schedules))
	if err != nil {
		return nil, err
	}
	overrides, err := ingest.LoadOverrides(data.Path(data.Overrides))
	if err != nil {
		return nil, err
	}

	return &inputs{
		roster:    roster,
		index:     index,
		warnings:  warnings,
		schedules: schedules,
		overrides: overrides,
	}, nil
}

func (s *Service) resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidDate(raw)
	}
	return date, nil
}

// Assignments 返回当前分配文档，读取时的恢复警告追加在文档警告之后
func (s *Service) Assignments(ctx context.Context) (model.AssignmentDocument, error) {
	doc, recovery, err := s.store.Load(ctx)
	if err != nil {
		return model.EmptyDocument(), apperrors.StoreFailed("读取分配文档", err)
	}
	doc = doc.Normalize()
	doc.Warnings = append(doc.Warnings, recovery...)
	return doc, nil
}

// Reset 清空分配文档
func (s *Service) Reset(ctx context.Context) error {
	if !s.mu.TryLock() {
		return apperrors.ErrRunInProgress
	}
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return apperrors.StoreFailed("清空分配文档", err)
	}
	s.log.Info().Msg("分配文档已重置")
	return nil
}

// VerifyResponse 校验结果
type VerifyResponse struct {
	Date     string                     `json:"date"`
	Day      model.Day                  `json:"day"`
	Pass     bool                       `json:"pass"`
	Reports  []model.VerificationReport `json:"reports"`
	Fairness *stats.FairnessMetrics     `json:"fairness"`
}

// Verify 复查当前分配文档
//
// absent 为空时从缺勤名单文件读取；课表缺失时跳过可用性检查。
func (s *Service) Verify(ctx context.Context, absent []string) (*VerifyResponse, error) {
	doc, err := s.Assignments(ctx)
	if err != nil {
		return nil, err
	}
	date, err := s.resolveDate(doc.Date)
	if err != nil {
		return nil, err
	}
	dateStr := date.Format(model.DateLayout)

	var (
		index *timetable.Index
		pool  []string
	)
	in, err := s.loadInputs()
	switch {
	case err == nil:
		index = in.index
		pool = poolNames(in.roster)
	case apperrors.Is(err, apperrors.CodeInputMissing):
		s.log.Warn().Err(err).Msg("输入缺失，跳过可用性检查")
	default:
		return nil, err
	}

	if len(absent) == 0 {
		names, err := ingest.LoadAbsentList(s.cfg.Data.Path(s.cfg.Data.Absent), dateStr)
		if err != nil && !apperrors.Is(err, apperrors.CodeInputMissing) {
			return nil, err
		}
		absent = names
	}

	verifyInput := validator.Input{
		Document: doc,
		Day:      model.DayOf(date),
		Absent:   ingest.UniqueNames(absent),
		Index:    index,
		Pool:     pool,
	}
	reports := s.detector.Verify(verifyInput)
	pass := true
	for _, r := range reports {
		pass = pass && r.Pass
	}

	return &VerifyResponse{
		Date:     dateStr,
		Day:      verifyInput.Day,
		Pass:     pass,
		Reports:  reports,
		Fairness: stats.NewFairnessAnalyzer(s.cfg.Engine.WorkloadCap).Analyze(doc.Assignments, pool),
	}, nil
}

// InputSummary 输入文件检查结果
type InputSummary struct {
	RosterEntries int                      `json:"rosterEntries"`
	Substitutes   int                      `json:"substitutes"`
	Teachers      []*model.TeacherIdentity `json:"teachers"`
	Classes       []string                 `json:"classes"`
	Entries       int                      `json:"entries"`
	Overrides     int                      `json:"overrides"`
	Schedules     int                      `json:"schedules"`
	Warnings      []string                 `json:"warnings"`
}

// Inspect 读取并校验全部输入，不运行分配
func (s *Service) Inspect() (*InputSummary, error) {
	in, err := s.loadInputs()
	if err != nil {
		return nil, err
	}
	warnings := in.warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &InputSummary{
		RosterEntries: len(in.roster),
		Substitutes:   len(poolNames(in.roster)),
		Teachers:      in.index.Teachers(),
		Classes:       in.index.Classes(),
		Entries:       len(in.index.Entries()),
		Overrides:     len(in.overrides),
		Schedules:     len(in.schedules),
		Warnings:      warnings,
	}, nil
}

// poolNames 可代课教师（有联系电话）的名单，保持名册顺序
func poolNames(roster []model.RosterEntry) []string {
	var names []string
	for _, e := range roster {
		if e.CanSubstitute() {
			names = append(names, normalizer.CanonicalName(e.Name))
		}
	}
	return names
}
