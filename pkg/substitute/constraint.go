package substitute

import (
	"fmt"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/timetable"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/workload"
)

// Constraint 候选代课教师的硬约束
type Constraint interface {
	Name() string
	// Evaluate 返回候选人是否满足约束，不满足时附带原因
	Evaluate(c *Candidate, slot Slot, ctx *Context) (bool, string)
}

// Candidate 代课候选人（名册中有联系电话的教师）
type Candidate struct {
	Name       string
	Phone      string
	GradeLevel int
	Variations []string

	// Declared 名册中填写了年级能力；未填写时按默认值参与匹配，不走后备
	Declared bool

	position int
}

// Slot 需要代课的一节课
type Slot struct {
	Teacher     string
	Period      int
	ClassName   string
	TargetGrade int
}

// Context 约束评估上下文
type Context struct {
	Day       model.Day
	Index     *timetable.Index
	Schedules DirectSchedule
	Tracker   *workload.Tracker
	absent    map[string]bool
}

// IsAbsent 候选人是否在缺勤名单中
func (ctx *Context) IsAbsent(c *Candidate) bool {
	for _, key := range identityKeys(ctx.Index, c.Name) {
		if ctx.absent[key] {
			return true
		}
	}
	return false
}

// IsTeaching 候选人在该天该节是否有自己的课（课表或直接课程表，含别名）
func (ctx *Context) IsTeaching(c *Candidate, period int) bool {
	names := append([]string{c.Name}, c.Variations...)
	for _, name := range names {
		if ctx.Index != nil && ctx.Index.IsTeaching(name, ctx.Day, period) {
			return true
		}
		for _, e := range ctx.Schedules.lookup(name) {
			if model.NormalizeDay(string(e.Day)) == ctx.Day && e.Period == period {
				return true
			}
		}
	}
	return false
}

type baseConstraint struct {
	name string
}

func (b baseConstraint) Name() string { return b.name }

// =========================================
// 1. AbsentTeacherConstraint 缺勤教师不能代课
// =========================================
type AbsentTeacherConstraint struct {
	baseConstraint
}

func NewAbsentTeacherConstraint() *AbsentTeacherConstraint {
	return &AbsentTeacherConstraint{baseConstraint{name: "absent"}}
}

func (c *AbsentTeacherConstraint) Evaluate(cand *Candidate, slot Slot, ctx *Context) (bool, string) {
	if ctx.IsAbsent(cand) {
		return false, fmt.Sprintf("%s is absent", cand.Name)
	}
	return true, ""
}

// =========================================
// 2. AvailabilityConstraint 本节有自己的课
// =========================================
type AvailabilityConstraint struct {
	baseConstraint
}

func NewAvailabilityConstraint() *AvailabilityConstraint {
	return &AvailabilityConstraint{baseConstraint{name: "availability"}}
}

func (c *AvailabilityConstraint) Evaluate(cand *Candidate, slot Slot, ctx *Context) (bool, string) {
	if ctx.IsTeaching(cand, slot.Period) {
		return false, fmt.Sprintf("%s teaches period %d", cand.Name, slot.Period)
	}
	return true, ""
}

// =========================================
// 3. DoubleBookingConstraint 本节已被分配
// =========================================
type DoubleBookingConstraint struct {
	baseConstraint
}

func NewDoubleBookingConstraint() *DoubleBookingConstraint {
	return &DoubleBookingConstraint{baseConstraint{name: "double_booking"}}
}

func (c *DoubleBookingConstraint) Evaluate(cand *Candidate, slot Slot, ctx *Context) (bool, string) {
	if ctx.Tracker.IsOccupied(cand.Name, slot.Period) {
		return false, fmt.Sprintf("%s already substitutes period %d", cand.Name, slot.Period)
	}
	return true, ""
}

// =========================================
// 4. WorkloadCapConstraint 每日代课上限
// =========================================
type WorkloadCapConstraint struct {
	baseConstraint
}

func NewWorkloadCapConstraint() *WorkloadCapConstraint {
	return &WorkloadCapConstraint{baseConstraint{name: "workload_cap"}}
}

func (c *WorkloadCapConstraint) Evaluate(cand *Candidate, slot Slot, ctx *Context) (bool, string) {
	if count := ctx.Tracker.Count(cand.Name); count >= ctx.Tracker.Cap() {
		return false, fmt.Sprintf("%s reached workload cap (%d/%d)", cand.Name, count, ctx.Tracker.Cap())
	}
	return true, ""
}

// DefaultConstraints 默认约束集合，按评估顺序排列
func DefaultConstraints() []Constraint {
	return []Constraint{
		NewAbsentTeacherConstraint(),
		NewAvailabilityConstraint(),
		NewDoubleBookingConstraint(),
		NewWorkloadCapConstraint(),
	}
}

// gradeTier 年级匹配分层
type gradeTier int

const (
	tierExcluded gradeTier = iota
	tierPreferred
	tierFallback
)

// classifyGrade 按年级能力分层
//
// 8 年级及以下的班级优先由低年级教师代课，9 年级及以上能力的教师只作为后备；
// 班级名称不含年级数字时不区分。
func classifyGrade(gradeLevel, targetGrade int) gradeTier {
	if targetGrade <= 0 {
		return tierPreferred
	}
	senior := gradeLevel >= 9 && targetGrade <= 8
	switch {
	case senior:
		return tierFallback
	case gradeLevel >= targetGrade:
		return tierPreferred
	default:
		return tierExcluded
	}
}

// tierOf 候选人对某节课的年级分层；未声明年级的教师不会被归入后备
func tierOf(c *Candidate, targetGrade int) gradeTier {
	tier := classifyGrade(c.GradeLevel, targetGrade)
	if tier == tierFallback && !c.Declared {
		return tierPreferred
	}
	return tier
}

// identityKeys 姓名对应的身份键：规范化姓名以及注册表中的身份键
func identityKeys(idx *timetable.Index, name string) []string {
	keys := []string{normalizer.NormalizeName(name)}
	if idx != nil {
		if identity, ok := idx.Registry().Lookup(name); ok && identity.Key != keys[0] {
			keys = append(keys, identity.Key)
		}
	}
	return keys
}
