package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// CoverageMetrics 缺勤课程覆盖率指标
type CoverageMetrics struct {
	TotalPeriods    int     `json:"total_periods"`    // 需要代课的课程数
	CoveredPeriods  int     `json:"covered_periods"`  // 已安排代课的课程数
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	PeriodCoverage map[int]PeriodCoverage `json:"period_coverage"` // 按节次统计
	ClassCoverage  map[string]float64     `json:"class_coverage"`  // 按班级覆盖率

	Uncovered []model.UncoveredPeriod `json:"uncovered"`
}

// PeriodCoverage 单节次覆盖情况
type PeriodCoverage struct {
	Period       int     `json:"period"`
	Required     int     `json:"required"`
	Covered      int     `json:"covered"`
	CoverageRate float64 `json:"coverage_rate"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 根据已分配和未覆盖的课程计算覆盖率
func (c *CoverageAnalyzer) Analyze(assignments []model.SubstituteAssignment, uncovered []model.UncoveredPeriod) *CoverageMetrics {
	metrics := &CoverageMetrics{
		TotalPeriods:    len(assignments) + len(uncovered),
		CoveredPeriods:  len(assignments),
		OverallCoverage: 100,
		PeriodCoverage:  make(map[int]PeriodCoverage),
		ClassCoverage:   make(map[string]float64),
		Uncovered:       uncovered,
	}
	if metrics.Uncovered == nil {
		metrics.Uncovered = []model.UncoveredPeriod{}
	}
	if metrics.TotalPeriods == 0 {
		return metrics
	}
	metrics.OverallCoverage = percent(metrics.CoveredPeriods, metrics.TotalPeriods)

	classRequired := make(map[string]int)
	classCovered := make(map[string]int)
	count := func(period int, className string, covered bool) {
		pc := metrics.PeriodCoverage[period]
		pc.Period = period
		pc.Required++
		classRequired[className]++
		if covered {
			pc.Covered++
			classCovered[className]++
		}
		metrics.PeriodCoverage[period] = pc
	}
	for _, a := range assignments {
		count(a.Period, a.ClassName, true)
	}
	for _, u := range uncovered {
		count(u.Period, u.ClassName, false)
	}

	for period, pc := range metrics.PeriodCoverage {
		pc.CoverageRate = percent(pc.Covered, pc.Required)
		metrics.PeriodCoverage[period] = pc
	}
	for className, required := range classRequired {
		metrics.ClassCoverage[className] = percent(classCovered[className], required)
	}
	return metrics
}

func percent(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(part) / float64(total) * 100
}

// GenerateCoverageReport 生成覆盖率报告
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	var b strings.Builder
	b.WriteString("=== Coverage Report ===\n\n")
	fmt.Fprintf(&b, "Periods needing cover: %d\n", metrics.TotalPeriods)
	fmt.Fprintf(&b, "Periods covered:       %d\n", metrics.CoveredPeriods)
	fmt.Fprintf(&b, "Coverage:              %.1f%%\n", metrics.OverallCoverage)

	if len(metrics.PeriodCoverage) > 0 {
		periods := make([]int, 0, len(metrics.PeriodCoverage))
		for p := range metrics.PeriodCoverage {
			periods = append(periods, p)
		}
		sort.Ints(periods)

		b.WriteString("\nBy period:\n")
		for _, p := range periods {
			pc := metrics.PeriodCoverage[p]
			fmt.Fprintf(&b, "  period %d: %d/%d (%.0f%%)\n", p, pc.Covered, pc.Required, pc.CoverageRate)
		}
	}

	if len(metrics.Uncovered) > 0 {
		b.WriteString("\nUncovered:\n")
		for _, u := range metrics.Uncovered {
			fmt.Fprintf(&b, "  - %s period %d class %s\n", u.Teacher, u.Period, u.ClassName)
		}
	}
	return b.String()
}
