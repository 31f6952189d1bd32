// Package timetable 把周课表原始行转换为按教师、星期、班级、节次索引的课表
package timetable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
)

// MinColumns 每行至少包含 星期、节次、一个班级
const MinColumns = 3

// teacherNamespace 生成教师键的 UUIDv5 命名空间
var teacherNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("substitute/teacher"))

// Table 原始表格，第一行为表头
type Table [][]string

// TeacherKey 由规范化姓名派生稳定的教师键
func TeacherKey(normalized string) string {
	if normalized == "" {
		return ""
	}
	return uuid.NewSHA1(teacherNamespace, []byte(normalized)).String()
}

// Index 课表索引，构建后只读
type Index struct {
	registry *normalizer.Registry
	classes  []string
	entries  []model.ScheduleEntry

	byClass   map[string][]int
	byDay     map[model.Day][]int
	byTeacher map[string][]int
	byPeriod  map[int][]int
}

// Build 解析课表并建立索引
//
// 表头缺失或班级列不足时返回错误；单行格式错误只跳过该行并记录警告。
func Build(table Table, registry *normalizer.Registry) (*Index, []string, error) {
	if len(table) < 2 {
		return nil, nil, apperrors.New(apperrors.CodeTimetableInvalid, "课表至少需要表头和一行数据")
	}
	header := table[0]
	if len(header) < MinColumns {
		return nil, nil, apperrors.New(apperrors.CodeTimetableInvalid,
			fmt.Sprintf("表头至少需要 %d 列（星期、节次、班级）", MinColumns))
	}

	log := logger.WithField("component", "timetable")

	idx := &Index{
		registry:  registry,
		byClass:   make(map[string][]int),
		byDay:     make(map[model.Day][]int),
		byTeacher: make(map[string][]int),
		byPeriod:  make(map[int][]int),
	}
	for _, c := range header[2:] {
		idx.classes = append(idx.classes, strings.TrimSpace(c))
	}

	var warnings []string
	warn := func(msg string) {
		warnings = append(warnings, msg)
		log.Warn().Msg(msg)
	}

	for i, row := range table[1:] {
		line := i + 2
		if len(row) < MinColumns {
			warn(fmt.Sprintf("Skipping row %d: insufficient data (%d columns)", line, len(row)))
			continue
		}
		day := model.NormalizeDay(row[0])
		if day == "" {
			warn(fmt.Sprintf("Skipping row %d: invalid day '%s'", line, strings.TrimSpace(row[0])))
			continue
		}
		period, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || period <= 0 {
			warn(fmt.Sprintf("Skipping row %d: invalid period '%s'", line, strings.TrimSpace(row[1])))
			continue
		}

		for j, cell := range row[2:] {
			name := strings.TrimSpace(cell)
			if name == "" || strings.EqualFold(name, normalizer.EmptyMarker) {
				continue
			}
			if j >= len(idx.classes) || idx.classes[j] == "" {
				warn(fmt.Sprintf("Skipping row %d column %d: no corresponding class in header", line, j+3))
				continue
			}
			identity, ok := registry.RegisterTeacher(name, "")
			if !ok {
				continue
			}
			idx.add(model.ScheduleEntry{
				Day:         day,
				Period:      period,
				ClassName:   idx.classes[j],
				TeacherKey:  TeacherKey(identity.Key),
				TeacherName: name,
			})
		}
	}

	log.Info().
		Int("entries", len(idx.entries)).
		Int("classes", len(idx.classes)).
		Int("teachers", registry.Len()).
		Int("skipped", len(warnings)).
		Msg("课表索引构建完成")

	return idx, warnings, nil
}

func (idx *Index) add(e model.ScheduleEntry) {
	pos := len(idx.entries)
	idx.entries = append(idx.entries, e)
	idx.byClass[e.ClassName] = append(idx.byClass[e.ClassName], pos)
	idx.byDay[e.Day] = append(idx.byDay[e.Day], pos)
	idx.byTeacher[e.TeacherKey] = append(idx.byTeacher[e.TeacherKey], pos)
	idx.byPeriod[e.Period] = append(idx.byPeriod[e.Period], pos)
}

func (idx *Index) collect(positions []int) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, 0, len(positions))
	for _, p := range positions {
		out = append(out, idx.entries[p])
	}
	return out
}

// Registry 构建索引时使用的身份注册表
func (idx *Index) Registry() *normalizer.Registry {
	return idx.registry
}

// Classes 表头中的班级列表
func (idx *Index) Classes() []string {
	return append([]string(nil), idx.classes...)
}

// Entries 全部课表条目（按读入顺序）
func (idx *Index) Entries() []model.ScheduleEntry {
	return append([]model.ScheduleEntry(nil), idx.entries...)
}

// ByClass 某班级的全部条目
func (idx *Index) ByClass(className string) []model.ScheduleEntry {
	return idx.collect(idx.byClass[className])
}

// ByDay 某天的全部条目
func (idx *Index) ByDay(day model.Day) []model.ScheduleEntry {
	return idx.collect(idx.byDay[day])
}

// ByPeriod 某节次的全部条目
func (idx *Index) ByPeriod(period int) []model.ScheduleEntry {
	return idx.collect(idx.byPeriod[period])
}

// ByTeacher 某教师的全部条目
func (idx *Index) ByTeacher(teacherKey string) []model.ScheduleEntry {
	return idx.collect(idx.byTeacher[teacherKey])
}

// TeacherKeyOf 按原始姓名解析教师键，未知教师返回空字符串
func (idx *Index) TeacherKeyOf(name string) string {
	identity, ok := idx.registry.Lookup(name)
	if !ok {
		return ""
	}
	return TeacherKey(identity.Key)
}

// TeacherDay 某教师某天的课程，按节次排序
func (idx *Index) TeacherDay(teacherKey string, day model.Day) []model.PeriodSlot {
	var slots []model.PeriodSlot
	for _, p := range idx.byTeacher[teacherKey] {
		e := idx.entries[p]
		if e.Day == day {
			slots = append(slots, model.PeriodSlot{Period: e.Period, ClassName: e.ClassName})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Period < slots[j].Period
	})
	return slots
}

// IsTeaching 教师在某天某节是否有课
func (idx *Index) IsTeaching(name string, day model.Day, period int) bool {
	key := idx.TeacherKeyOf(name)
	if key == "" {
		return false
	}
	for _, p := range idx.byTeacher[key] {
		e := idx.entries[p]
		if e.Day == day && e.Period == period {
			return true
		}
	}
	return false
}

// DaySchedule 派生视图：教师键 -> 星期 -> 课程列表
func (idx *Index) DaySchedule() model.TeacherDaySchedule {
	out := make(model.TeacherDaySchedule)
	for key := range idx.byTeacher {
		days := make(map[model.Day][]model.PeriodSlot)
		for _, day := range model.Days {
			if slots := idx.TeacherDay(key, day); len(slots) > 0 {
				days[day] = slots
			}
		}
		out[key] = days
	}
	return out
}

// Teachers 课表中出现的教师身份，按首次出现顺序
func (idx *Index) Teachers() []*model.TeacherIdentity {
	seen := make(map[string]bool)
	var out []*model.TeacherIdentity
	for _, identity := range idx.registry.Identities() {
		key := TeacherKey(identity.Key)
		if _, ok := idx.byTeacher[key]; ok && !seen[key] {
			seen[key] = true
			out = append(out, identity)
		}
	}
	return out
}
