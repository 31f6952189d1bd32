// Package stats 提供代课工作量与覆盖率统计分析
package stats

import (
	"math"
	"sort"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	WorkloadGini     float64 `json:"workload_gini"`     // 代课节数基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance float64 `json:"workload_variance"` // 方差
	WorkloadStdDev   float64 `json:"workload_std_dev"`  // 标准差
	AvgPerSubstitute float64 `json:"avg_per_substitute"`
	MaxPeriods       int     `json:"max_periods"`
	MinPeriods       int     `json:"min_periods"`
	PeriodRange      int     `json:"period_range"`
	OverCap          int     `json:"over_cap"` // 超过上限的代课教师人数

	SubstituteStats []SubstituteStat `json:"substitute_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合公平性评分 (0-100)
}

// SubstituteStat 单个代课教师的统计
type SubstituteStat struct {
	Substitute string  `json:"substitute"`
	Periods    int     `json:"periods"`
	Classes    int     `json:"classes"`
	Deviation  float64 `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	workloadCap int
}

// NewFairnessAnalyzer 创建公平性分析器，cap 为每日代课上限
func NewFairnessAnalyzer(cap int) *FairnessAnalyzer {
	return &FairnessAnalyzer{workloadCap: cap}
}

// Analyze 分析当天代课分配的公平性
//
// pool 为可代课教师名单，没有分配的教师按 0 节计入，
// 这样只有少数人承担全部代课时基尼系数会升高。
func (f *FairnessAnalyzer) Analyze(assignments []model.SubstituteAssignment, pool []string) *FairnessMetrics {
	stats := f.calculateSubstituteStats(assignments, pool)
	if len(stats) == 0 {
		return &FairnessMetrics{
			SubstituteStats:      []SubstituteStat{},
			OverallFairnessScore: 100,
		}
	}

	values := make([]float64, len(stats))
	for i, s := range stats {
		values[i] = float64(s.Periods)
	}

	mean := calculateMean(values)
	variance := calculateVariance(values, mean)
	stdDev := math.Sqrt(variance)
	maxV, minV := calculateRange(values)

	overCap := 0
	for i := range stats {
		if mean > 0 {
			stats[i].Deviation = (float64(stats[i].Periods) - mean) / mean * 100
		}
		if f.workloadCap > 0 && stats[i].Periods > f.workloadCap {
			overCap++
		}
	}

	gini := calculateGini(values)

	return &FairnessMetrics{
		WorkloadGini:         gini,
		WorkloadVariance:     variance,
		WorkloadStdDev:       stdDev,
		AvgPerSubstitute:     mean,
		MaxPeriods:           int(maxV),
		MinPeriods:           int(minV),
		PeriodRange:          int(maxV - minV),
		OverCap:              overCap,
		SubstituteStats:      stats,
		OverallFairnessScore: calculateOverallScore(gini, stdDev, mean, overCap, len(stats)),
	}
}

// calculateSubstituteStats 按规范化姓名汇总，结果按节数降序、姓名升序
func (f *FairnessAnalyzer) calculateSubstituteStats(assignments []model.SubstituteAssignment, pool []string) []SubstituteStat {
	statMap := make(map[string]*SubstituteStat)
	classes := make(map[string]map[string]bool)

	ensure := func(name string) *SubstituteStat {
		key := normalizer.NormalizeName(name)
		if key == "" {
			return nil
		}
		stat, ok := statMap[key]
		if !ok {
			stat = &SubstituteStat{Substitute: normalizer.CanonicalName(name)}
			statMap[key] = stat
			classes[key] = make(map[string]bool)
		}
		return stat
	}

	for _, name := range pool {
		ensure(name)
	}
	for _, a := range assignments {
		stat := ensure(a.Substitute)
		if stat == nil {
			continue
		}
		stat.Periods++
		classes[normalizer.NormalizeName(a.Substitute)][a.ClassName] = true
	}

	result := make([]SubstituteStat, 0, len(statMap))
	for key, stat := range statMap {
		stat.Classes = len(classes[key])
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Periods != result[j].Periods {
			return result[i].Periods > result[j].Periods
		}
		return result[i].Substitute < result[j].Substitute
	})
	return result
}

// calculateMean 计算平均值
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// calculateRange 计算极值
func calculateRange(values []float64) (maxV, minV float64) {
	if len(values) == 0 {
		return 0, 0
	}
	maxV, minV = values[0], values[0]
	for _, v := range values[1:] {
		maxV = math.Max(maxV, v)
		minV = math.Min(minV, v)
	}
	return
}

// calculateGini 计算基尼系数
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// calculateOverallScore 计算综合公平性评分
func calculateOverallScore(gini, stdDev, mean float64, overCap, total int) float64 {
	const (
		giniWeight    = 0.6
		stdDevWeight  = 0.2
		overCapWeight = 0.2
	)

	giniScore := (1 - gini) * 100

	cvScore := 100.0
	if mean > 0 {
		cvScore = math.Max(0, 100-stdDev/mean*100)
	}

	capScore := 100.0
	if total > 0 {
		capScore = 100 * (1 - float64(overCap)/float64(total))
	}

	score := giniWeight*giniScore + stdDevWeight*cvScore + overCapWeight*capScore
	return math.Max(0, math.Min(100, score))
}

// CompareRuns 比较两次分配的公平性
func (f *FairnessAnalyzer) CompareRuns(run1, run2 []model.SubstituteAssignment, pool []string) map[string]float64 {
	metrics1 := f.Analyze(run1, pool)
	metrics2 := f.Analyze(run2, pool)

	return map[string]float64{
		"workload_gini_diff": metrics2.WorkloadGini - metrics1.WorkloadGini,
		"overall_score_diff": metrics2.OverallFairnessScore - metrics1.OverallFairnessScore,
		"run1_overall_score": metrics1.OverallFairnessScore,
		"run2_overall_score": metrics2.OverallFairnessScore,
	}
}
