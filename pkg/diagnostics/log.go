// Package diagnostics 记录代课分配过程中的每一步决策，用于事后审计
package diagnostics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// Status 日志条目状态
type Status string

const (
	StatusInfo    Status = "info"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Action 决策步骤
type Action string

const (
	ActionProcessStart      Action = "ProcessStart"
	ActionDayCalculation    Action = "DayCalculation"
	ActionDataLoading       Action = "DataLoading"
	ActionTeacherProcessing Action = "TeacherProcessing"
	ActionNameProcessing    Action = "NameProcessing"
	ActionClassMapLookup    Action = "ClassMapLookup"
	ActionScheduleAnalysis  Action = "ScheduleAnalysis"
	ActionVariationCheck    Action = "VariationCheck"
	ActionSpecialCaseLookup Action = "SpecialCaseLookup"
	ActionPeriodValidation  Action = "PeriodValidation"
	ActionDeduplication     Action = "Deduplication"
	ActionPeriodsFound      Action = "PeriodsFound"
	ActionAlreadyCovered    Action = "AlreadyCovered"
	ActionCandidateFiltered Action = "CandidateFiltered"
	ActionAssignmentCreated Action = "AssignmentCreated"
	ActionNoSubstitute      Action = "NoSubstitute"
	ActionValidation        Action = "Validation"
	ActionDataSave          Action = "DataSave"
	ActionProcessComplete   Action = "ProcessComplete"
)

// Entry 单条诊断记录
type Entry struct {
	Timestamp  time.Time     `json:"timestamp"`
	Action     Action        `json:"action"`
	Detail     string        `json:"detail"`
	Status     Status        `json:"status"`
	DurationMs int64         `json:"durationMs"`
	Data       model.JSONMap `json:"data,omitempty"`
}

// Log 单次运行的诊断日志，只追加
type Log struct {
	mu      sync.Mutex
	runID   string
	now     func() time.Time
	entries []Entry
	echo    *zerolog.Logger
}

// New 创建诊断日志，echo 非空时每条记录同时写入结构化日志
func New(runID string, echo *zerolog.Logger) *Log {
	return &Log{runID: runID, now: time.Now, echo: echo}
}

// RunID 运行ID
func (l *Log) RunID() string {
	return l.runID
}

// Info 追加 info 记录
func (l *Log) Info(action Action, detail string, data model.JSONMap) {
	l.append(action, detail, StatusInfo, 0, data)
}

// Warning 追加 warning 记录
func (l *Log) Warning(action Action, detail string, data model.JSONMap) {
	l.append(action, detail, StatusWarning, 0, data)
}

// Error 追加 error 记录
func (l *Log) Error(action Action, detail string, data model.JSONMap) {
	l.append(action, detail, StatusError, 0, data)
}

// Timed 开始计时，返回的函数在步骤结束时调用并记录耗时
func (l *Log) Timed(action Action) func(detail string, status Status, data model.JSONMap) {
	start := l.now()
	return func(detail string, status Status, data model.JSONMap) {
		l.append(action, detail, status, l.now().Sub(start).Milliseconds(), data)
	}
}

// Entries 返回记录副本
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Len 记录数量
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) append(action Action, detail string, status Status, durationMs int64, data model.JSONMap) {
	entry := Entry{
		Timestamp:  l.now(),
		Action:     action,
		Detail:     detail,
		Status:     status,
		DurationMs: durationMs,
		Data:       data,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	if l.echo == nil {
		return
	}
	var ev *zerolog.Event
	switch status {
	case StatusWarning:
		ev = l.echo.Warn()
	case StatusError:
		ev = l.echo.Error()
	default:
		ev = l.echo.Debug()
	}
	ev.Str("action", string(action)).
		Int64("duration_ms", durationMs).
		Fields(map[string]interface{}(data)).
		Msg(detail)
}
