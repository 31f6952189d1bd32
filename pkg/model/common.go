// Package model 定义代课分配引擎的核心数据模型
package model

import (
	"strings"
	"time"
)

// Day 星期（小写英文全称）
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days 按周一到周日排列
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayPrefixes = map[string]Day{
	"mon": Monday,
	"tue": Tuesday,
	"wed": Wednesday,
	"thu": Thursday,
	"fri": Friday,
	"sat": Saturday,
	"sun": Sunday,
}

// NormalizeDay 按前三个字母识别星期，无法识别时返回空字符串
func NormalizeDay(raw string) Day {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) < 3 {
		return ""
	}
	return dayPrefixes[s[:3]]
}

// DayOf 返回日期对应的星期
func DayOf(t time.Time) Day {
	// time.Weekday 从周日开始
	return Days[(int(t.Weekday())+6)%7]
}

// Order 返回星期的排序序号，未知星期排在最后
func (d Day) Order() int {
	for i, day := range Days {
		if day == d {
			return i
		}
	}
	return len(Days)
}

// Valid 是否为合法星期
func (d Day) Valid() bool {
	return d.Order() < len(Days)
}

// DateLayout 日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD 日期
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// JSONMap 诊断日志附加数据
type JSONMap map[string]interface{}
