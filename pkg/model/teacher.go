package model

import (
	"regexp"
	"strconv"
)

// DefaultGradeLevel 未声明年级能力时的默认值（最高年级）
const DefaultGradeLevel = 10

// TeacherIdentity 教师身份（多种姓名写法合并后的规范表示）
type TeacherIdentity struct {
	Key           string   `json:"key"`
	CanonicalName string   `json:"canonical_name"`
	Phone         string   `json:"phone,omitempty"`
	Variations    []string `json:"variations"`
	GradeLevel    int      `json:"grade_level"`
}

// HasVariation 是否已记录该原始写法
func (t *TeacherIdentity) HasVariation(raw string) bool {
	for _, v := range t.Variations {
		if v == raw {
			return true
		}
	}
	return false
}

// AddVariation 记录新的原始写法（去重，保持顺序）
func (t *TeacherIdentity) AddVariation(raw string) {
	if raw == "" || t.HasVariation(raw) {
		return
	}
	t.Variations = append(t.Variations, raw)
}

// RosterEntry 教师名册条目
type RosterEntry struct {
	Name       string   `json:"name" yaml:"name" validate:"required,min=2"`
	Phone      string   `json:"phone" yaml:"phone" validate:"omitempty,min=3,max=20"`
	Variations []string `json:"variations,omitempty" yaml:"variations,omitempty" validate:"dive,required"`
	GradeLevel *int     `json:"gradeLevel,omitempty" yaml:"gradeLevel,omitempty" validate:"omitempty,min=1,max=12"`
}

// Grade 返回年级能力，未设置时为默认值
func (r RosterEntry) Grade() int {
	if r.GradeLevel == nil || *r.GradeLevel <= 0 {
		return DefaultGradeLevel
	}
	return *r.GradeLevel
}

// CanSubstitute 是否可以进入代课候选池（必须有联系电话）
func (r RosterEntry) CanSubstitute() bool {
	return r.Phone != ""
}

var digitsPattern = regexp.MustCompile(`\d+`)

// GradeOf 从班级名称中提取年级数字，如 "10A" -> 10，无数字时返回 0
func GradeOf(className string) int {
	m := digitsPattern.FindString(className)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
