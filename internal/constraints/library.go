// Package constraints 约束系统
package constraints

import (
	"strconv"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/substitute"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/validator"
)

// 约束类型
const (
	TypeHard   = "hard"
	TypeSoft   = "soft"
	TypeReview = "review" // 只在复查阶段检查
)

// ConstraintParam 约束参数定义，Key 为对应的配置项
type ConstraintParam struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params,omitempty"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 返回分配阶段与复查阶段的全部规则，参数取当前配置值
func GetLibrary(cfg config.EngineConfig) []ConstraintDefinition {
	capParam := ConstraintParam{
		Name:        "workload_cap",
		Key:         "engine.workload_cap",
		Type:        "int",
		Description: "每位代课教师每天最多代课节数",
		Value:       strconv.Itoa(cfg.WorkloadCap),
		Min:         "1",
	}

	library := []ConstraintDefinition{
		// =====================================================
		// 分配阶段
		// =====================================================
		{
			Name:        "absent",
			DisplayName: "缺勤教师不代课",
			Type:        TypeHard,
			Category:    "候选过滤",
			Description: "当天缺勤名单中的教师（含别名）不会进入候选人。",
		},
		{
			Name:        "availability",
			DisplayName: "本节有课不代课",
			Type:        TypeHard,
			Category:    "候选过滤",
			Description: "候选人在课表或直接课程表中本节有自己的课时被排除。",
		},
		{
			Name:        "double_booking",
			DisplayName: "同一节不重复分配",
			Type:        TypeHard,
			Category:    "候选过滤",
			Description: "同一天同一节已经代课的教师不再分配，包括当天已保存的分配。",
		},
		{
			Name:        "workload_cap",
			DisplayName: "每日代课上限",
			Type:        TypeHard,
			Category:    "工作量",
			Description: "达到上限的教师不再分配，已保存的当天分配计入工作量。",
			Params:      []ConstraintParam{capParam},
		},
		{
			Name:        "grade_level",
			DisplayName: "年级匹配",
			Type:        TypeSoft,
			Category:    "候选排序",
			Description: "年级能力不低于班级年级的教师优先；8 年级及以下的班级可由 9 年级以上能力的教师后备代课并产生警告。",
			Params: []ConstraintParam{{
				Name:        "default_grade",
				Key:         "engine.default_grade",
				Type:        "int",
				Description: "名册未填写年级能力时的默认值",
				Value:       strconv.Itoa(cfg.DefaultGrade),
				Min:         "1",
				Max:         "12",
			}},
		},
		{
			Name:        "least_loaded",
			DisplayName: "工作量最少优先",
			Type:        TypeSoft,
			Category:    "候选排序",
			Description: "同一层级内选择当天工作量最少的教师，相同时按名册顺序。",
		},
	}

	// =====================================================
	// 复查阶段
	// =====================================================
	review := map[validator.ConflictType]ConstraintDefinition{
		validator.ConflictWorkload: {
			DisplayName: "代课上限复查",
			Description: "文档中每位代课教师的分配数不超过上限。",
			Params:      []ConstraintParam{capParam},
		},
		validator.ConflictDoubleBooking: {
			DisplayName: "重复分配复查",
			Description: "同一教师同一节只出现一次。",
		},
		validator.ConflictAvailability: {
			DisplayName: "可用性复查",
			Description: "代课教师本节没有自己的课；未加载课表时跳过。",
		},
		validator.ConflictDuplicate: {
			DisplayName: "重复覆盖复查",
			Description: "同一缺勤课程最多由一位教师代课。",
		},
		validator.ConflictAbsentSubstitute: {
			DisplayName: "缺勤代课复查",
			Description: "缺勤教师没有被安排代课。",
		},
		validator.ConflictFairness: {
			DisplayName: "工作量公平性",
			Description: "代课节数的基尼系数不超过阈值，超过时给出警告。",
			Params: []ConstraintParam{{
				Name:        "max_gini",
				Key:         "engine.max_gini",
				Type:        "float",
				Description: "允许的最大基尼系数",
				Value:       strconv.FormatFloat(cfg.MaxGini, 'f', -1, 64),
				Min:         "0",
				Max:         "1",
			}},
		},
	}
	for _, check := range validator.Checks {
		def := review[check]
		def.Name = string(check)
		def.Type = TypeReview
		def.Category = "复查"
		library = append(library, def)
	}
	return library
}

// EngineRules 分配阶段实际生效的候选过滤约束名称
func EngineRules() []string {
	rules := substitute.DefaultConstraints()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name())
	}
	return names
}

// GetByType 按类型筛选
func GetByType(library []ConstraintDefinition, typ string) []ConstraintDefinition {
	var out []ConstraintDefinition
	for _, def := range library {
		if def.Type == typ {
			out = append(out, def)
		}
	}
	return out
}
