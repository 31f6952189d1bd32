// Package validator 提供代课分配结果的复查
package validator

import (
	"fmt"
	"strings"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/stats"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/timetable"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/workload"
)

// ConflictType 冲突类型，同时作为校验项名称
type ConflictType string

const (
	ConflictWorkload         ConflictType = "substitute_limits"     // 超过每日代课上限
	ConflictDoubleBooking    ConflictType = "no_double_booking"     // 同一节课被安排两次
	ConflictAvailability     ConflictType = "availability_review"   // 代课时段本人有课
	ConflictDuplicate        ConflictType = "no_duplicates"         // 同一缺勤课程重复分配
	ConflictAbsentSubstitute ConflictType = "absent_not_substitute" // 缺勤教师被安排代课
	ConflictFairness         ConflictType = "workload_fairness"     // 工作量分布不均
)

// Checks 校验项的固定顺序
var Checks = []ConflictType{
	ConflictWorkload,
	ConflictDoubleBooking,
	ConflictAvailability,
	ConflictDuplicate,
	ConflictAbsentSubstitute,
	ConflictFairness,
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Conflict 冲突信息
type Conflict struct {
	Type       ConflictType `json:"type"`
	Severity   string       `json:"severity"`
	Substitute string       `json:"substitute,omitempty"`
	Period     int          `json:"period,omitempty"`
	ClassName  string       `json:"className,omitempty"`
	Message    string       `json:"message"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	WorkloadCap int     // 每日代课上限
	MaxGini     float64 // 工作量基尼系数上限，超过视为分布不均
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		WorkloadCap: workload.DefaultCap,
		MaxGini:     0.5,
	}
}

// Input 待校验的数据
type Input struct {
	Document model.AssignmentDocument
	Day      model.Day
	Absent   []string
	// Index 为空时跳过可用性检查
	Index *timetable.Index
	// Pool 可代课教师名单，用于公平性统计；为空时只统计已分配的教师
	Pool []string
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	if config.WorkloadCap <= 0 {
		config.WorkloadCap = workload.DefaultCap
	}
	return &ConflictDetector{config: config}
}

// DetectAll 检测所有冲突
func (d *ConflictDetector) DetectAll(in Input) []Conflict {
	var conflicts []Conflict
	conflicts = append(conflicts, d.detectWorkload(in)...)
	conflicts = append(conflicts, d.detectDoubleBooking(in)...)
	conflicts = append(conflicts, d.detectAvailability(in)...)
	conflicts = append(conflicts, d.detectDuplicates(in)...)
	conflicts = append(conflicts, d.detectAbsentSubstitutes(in)...)
	conflicts = append(conflicts, d.detectUnfairness(in)...)
	return conflicts
}

// Verify 逐项给出校验报告，顺序与 Checks 一致
func (d *ConflictDetector) Verify(in Input) []model.VerificationReport {
	byType := make(map[ConflictType][]string)
	for _, c := range d.DetectAll(in) {
		byType[c.Type] = append(byType[c.Type], c.Message)
	}

	reports := make([]model.VerificationReport, 0, len(Checks))
	for _, check := range Checks {
		messages := byType[check]
		report := model.VerificationReport{Check: string(check), Pass: len(messages) == 0}
		if report.Pass {
			report.Detail = d.passDetail(check, in)
		} else {
			report.Detail = strings.Join(messages, "; ")
		}
		reports = append(reports, report)
	}
	return reports
}

func (d *ConflictDetector) passDetail(check ConflictType, in Input) string {
	n := len(in.Document.Assignments)
	switch check {
	case ConflictWorkload:
		return fmt.Sprintf("All substitutes within the maximum of %d", d.config.WorkloadCap)
	case ConflictDoubleBooking:
		return fmt.Sprintf("No substitute has two assignments in the same period (%d checked)", n)
	case ConflictAvailability:
		if in.Index == nil {
			return "Skipped: no timetable loaded"
		}
		return "No substitute is assigned during their own class"
	case ConflictDuplicate:
		return "Each absent period is covered at most once"
	case ConflictAbsentSubstitute:
		return fmt.Sprintf("None of the %d absent teachers is used as a substitute", len(in.Absent))
	case ConflictFairness:
		m := stats.NewFairnessAnalyzer(d.config.WorkloadCap).Analyze(in.Document.Assignments, in.Pool)
		return fmt.Sprintf("Workload gini %.2f within %.2f", m.WorkloadGini, d.config.MaxGini)
	}
	return ""
}

func (d *ConflictDetector) detectWorkload(in Input) []Conflict {
	counts := make(map[string]int)
	var order []string
	names := make(map[string]string)
	for _, a := range in.Document.Assignments {
		key := workload.Key(a.Substitute)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
			names[key] = a.Substitute
		}
		counts[key]++
	}

	var conflicts []Conflict
	for _, key := range order {
		if counts[key] <= d.config.WorkloadCap {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       ConflictWorkload,
			Severity:   SeverityError,
			Substitute: names[key],
			Message: fmt.Sprintf("%s has %d assignments, exceeding the maximum of %d",
				names[key], counts[key], d.config.WorkloadCap),
		})
	}
	return conflicts
}

func (d *ConflictDetector) detectDoubleBooking(in Input) []Conflict {
	type booking struct {
		substitute string
		period     int
	}
	seen := make(map[booking]int)
	var conflicts []Conflict
	for _, a := range in.Document.Assignments {
		k := booking{workload.Key(a.Substitute), a.Period}
		seen[k]++
		if seen[k] != 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       ConflictDoubleBooking,
			Severity:   SeverityError,
			Substitute: a.Substitute,
			Period:     a.Period,
			ClassName:  a.ClassName,
			Message:    fmt.Sprintf("%s has multiple assignments on %s period %d", a.Substitute, in.Day, a.Period),
		})
	}
	return conflicts
}

func (d *ConflictDetector) detectAvailability(in Input) []Conflict {
	if in.Index == nil {
		return nil
	}
	var conflicts []Conflict
	for _, a := range in.Document.Assignments {
		key := in.Index.TeacherKeyOf(a.Substitute)
		if key == "" {
			continue
		}
		for _, own := range in.Index.TeacherDay(key, in.Day) {
			if own.Period != a.Period {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:       ConflictAvailability,
				Severity:   SeverityError,
				Substitute: a.Substitute,
				Period:     a.Period,
				ClassName:  a.ClassName,
				Message: fmt.Sprintf("%s teaches %s in period %d on %s but was assigned to %s",
					a.Substitute, own.ClassName, a.Period, in.Day, a.ClassName),
			})
			break
		}
	}
	return conflicts
}

func (d *ConflictDetector) detectDuplicates(in Input) []Conflict {
	type slot struct {
		teacher string
		period  int
	}
	seen := make(map[slot]int)
	var conflicts []Conflict
	for _, a := range in.Document.Assignments {
		k := slot{normalizer.NormalizeName(a.OriginalTeacher), a.Period}
		seen[k]++
		if seen[k] != 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       ConflictDuplicate,
			Severity:   SeverityError,
			Substitute: a.Substitute,
			Period:     a.Period,
			ClassName:  a.ClassName,
			Message:    fmt.Sprintf("Duplicate assignment: %s on %s period %d", a.OriginalTeacher, in.Day, a.Period),
		})
	}
	return conflicts
}

func (d *ConflictDetector) detectAbsentSubstitutes(in Input) []Conflict {
	absent := make(map[string]bool)
	for _, name := range in.Absent {
		for _, key := range identityKeys(in.Index, name) {
			absent[key] = true
		}
	}

	var conflicts []Conflict
	for _, a := range in.Document.Assignments {
		hit := false
		for _, key := range identityKeys(in.Index, a.Substitute) {
			hit = hit || absent[key]
		}
		if !hit {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       ConflictAbsentSubstitute,
			Severity:   SeverityError,
			Substitute: a.Substitute,
			Period:     a.Period,
			ClassName:  a.ClassName,
			Message: fmt.Sprintf("Substitute '%s' is absent on %s but assigned to %s",
				a.Substitute, in.Day, a.OriginalTeacher),
		})
	}
	return conflicts
}

func (d *ConflictDetector) detectUnfairness(in Input) []Conflict {
	m := stats.NewFairnessAnalyzer(d.config.WorkloadCap).Analyze(in.Document.Assignments, in.Pool)
	if m.WorkloadGini <= d.config.MaxGini {
		return nil
	}
	return []Conflict{{
		Type:     ConflictFairness,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("Workload gini %.2f exceeds %.2f (max %d, min %d periods)",
			m.WorkloadGini, d.config.MaxGini, m.MaxPeriods, m.MinPeriods),
	}}
}

// identityKeys 规范化姓名，以及课表注册表中的身份键
func identityKeys(idx *timetable.Index, name string) []string {
	keys := []string{normalizer.NormalizeName(name)}
	if idx != nil {
		if key := idx.TeacherKeyOf(name); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
