package model

// AbsenceRequest 缺勤申请
type AbsenceRequest struct {
	TeacherName string `json:"name" validate:"required"`
	Date        string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SubstituteAssignment 代课分配结果
type SubstituteAssignment struct {
	OriginalTeacher string `json:"originalTeacher"`
	Period          int    `json:"period"`
	ClassName       string `json:"className"`
	Substitute      string `json:"substitute"`
	SubstitutePhone string `json:"substitutePhone"`
}

// AssignmentDocument 持久化的分配文档
//
// Date 为可选字段，记录文档所属日期；重置后的空文档不带日期。
type AssignmentDocument struct {
	Date        string                 `json:"date,omitempty"`
	Assignments []SubstituteAssignment `json:"assignments"`
	Warnings    []string               `json:"warnings"`
}

// ForDate 已有文档是否可作为某天的种子数据（无日期的旧文档视为当天）
func (d AssignmentDocument) ForDate(date string) bool {
	return d.Date == "" || d.Date == date
}

// EmptyDocument 返回空文档，两个数组都非 nil，序列化为 []
func EmptyDocument() AssignmentDocument {
	return AssignmentDocument{
		Assignments: []SubstituteAssignment{},
		Warnings:    []string{},
	}
}

// Normalize 把 nil 数组替换为空数组
func (d AssignmentDocument) Normalize() AssignmentDocument {
	if d.Assignments == nil {
		d.Assignments = []SubstituteAssignment{}
	}
	if d.Warnings == nil {
		d.Warnings = []string{}
	}
	return d
}

// IsEmpty 没有分配也没有警告
func (d AssignmentDocument) IsEmpty() bool {
	return len(d.Assignments) == 0 && len(d.Warnings) == 0
}

// VerificationReport 校验报告
type VerificationReport struct {
	Check  string `json:"check"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// UncoveredPeriod 未能安排代课的课程
type UncoveredPeriod struct {
	Teacher   string `json:"teacher"`
	Period    int    `json:"period"`
	ClassName string `json:"className"`
}
