package model

// ScheduleEntry 课表条目：某天某节由某位教师给某个班级上课
type ScheduleEntry struct {
	Day         Day    `json:"day"`
	Period      int    `json:"period"`
	ClassName   string `json:"className"`
	TeacherKey  string `json:"teacherKey"`
	TeacherName string `json:"teacherName"`
}

// PeriodSlot 某位教师一天中的一节课
type PeriodSlot struct {
	Period    int    `json:"period"`
	ClassName string `json:"className"`
}

// Valid 节次为正且班级非空
func (p PeriodSlot) Valid() bool {
	return p.Period > 0 && p.ClassName != ""
}

// TeacherDaySchedule 教师 -> 星期 -> 按节次排序的课程列表
type TeacherDaySchedule map[string]map[Day][]PeriodSlot

// ManualOverride 人工补录的课表记录，用于修补已知的数据缺口
type ManualOverride struct {
	Teacher   string `json:"teacher" yaml:"teacher" validate:"required"`
	Day       string `json:"day" yaml:"day" validate:"required"`
	Period    int    `json:"period" yaml:"period" validate:"required,min=1"`
	ClassName string `json:"className" yaml:"className" validate:"required"`
}

// Slot 转换为课程节次
func (o ManualOverride) Slot() PeriodSlot {
	return PeriodSlot{Period: o.Period, ClassName: o.ClassName}
}
