package substitute

import (
	"fmt"
	"sort"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/diagnostics"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/timetable"
)

// 课程来源
const (
	SourceTimetable          = "timetable"
	SourceSchedule           = "schedule"
	SourceVariationTimetable = "variation_timetable"
	SourceVariationSchedule  = "variation_schedule"
	SourceOverride           = "override"
)

// DirectSchedule 单独提供的教师课程表，键为规范化姓名
type DirectSchedule map[string][]model.ScheduleEntry

// NewDirectSchedule 规范化键名；多个原始键规范化后相同时按键名排序合并
func NewDirectSchedule(raw map[string][]model.ScheduleEntry) DirectSchedule {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(DirectSchedule, len(raw))
	for _, name := range names {
		key := normalizer.NormalizeName(name)
		if key == "" {
			continue
		}
		out[key] = append(out[key], raw[name]...)
	}
	return out
}

func (s DirectSchedule) lookup(name string) []model.ScheduleEntry {
	if s == nil {
		return nil
	}
	return s[normalizer.NormalizeName(name)]
}

// ResolvedSlot 解析出的一节课及其来源
type ResolvedSlot struct {
	model.PeriodSlot
	Source string `json:"source"`
}

// resolver 按 课表 -> 直接课程表 -> 别名 -> 人工补录 的顺序解析缺勤教师的课程
type resolver struct {
	day       model.Day
	index     *timetable.Index
	schedules DirectSchedule
	overrides []model.ManualOverride
	roster    []model.RosterEntry
	diag      *diagnostics.Log
}

// variations 教师的全部已知写法（注册表 + 名册），不含本名，保持顺序去重
func (r *resolver) variations(name string) []string {
	seen := map[string]bool{name: true}
	var out []string
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	if r.index != nil {
		if identity, ok := r.index.Registry().Lookup(name); ok {
			add(identity.CanonicalName)
			for _, v := range identity.Variations {
				add(v)
			}
		}
	}
	key := normalizer.NormalizeName(name)
	for _, e := range r.roster {
		if normalizer.NormalizeName(e.Name) != key && !containsNormalized(e.Variations, key) {
			continue
		}
		add(e.Name)
		for _, v := range e.Variations {
			add(v)
		}
	}
	return out
}

func (r *resolver) fromTimetable(name string) []model.PeriodSlot {
	if r.index == nil {
		return nil
	}
	key := r.index.TeacherKeyOf(name)
	if key == "" {
		return nil
	}
	return r.index.TeacherDay(key, r.day)
}

func (r *resolver) fromSchedule(name string) []model.PeriodSlot {
	var out []model.PeriodSlot
	for _, e := range r.schedules.lookup(name) {
		if model.NormalizeDay(string(e.Day)) == r.day {
			out = append(out, model.PeriodSlot{Period: e.Period, ClassName: e.ClassName})
		}
	}
	return out
}

func (r *resolver) fromOverrides(names []string) []model.PeriodSlot {
	keys := make(map[string]bool, len(names))
	for _, n := range names {
		keys[normalizer.NormalizeName(n)] = true
	}
	var out []model.PeriodSlot
	for _, o := range r.overrides {
		if keys[normalizer.NormalizeName(o.Teacher)] && model.NormalizeDay(o.Day) == r.day {
			out = append(out, o.Slot())
		}
	}
	return out
}

// resolve 合并所有来源，去掉无效节次，对相同 (节次, 班级) 去重且人工补录优先
func (r *resolver) resolve(name string) []ResolvedSlot {
	var raw []ResolvedSlot
	collect := func(source string, slots []model.PeriodSlot) int {
		for _, s := range slots {
			raw = append(raw, ResolvedSlot{PeriodSlot: s, Source: source})
		}
		return len(slots)
	}

	n := collect(SourceTimetable, r.fromTimetable(name))
	r.diag.Info(diagnostics.ActionClassMapLookup,
		fmt.Sprintf("Timetable lookup for %s on %s", name, r.day), model.JSONMap{"found": n})

	n = collect(SourceSchedule, r.fromSchedule(name))
	r.diag.Info(diagnostics.ActionScheduleAnalysis,
		fmt.Sprintf("Schedule lookup for %s on %s", name, r.day), model.JSONMap{"found": n})

	variations := r.variations(name)
	for _, v := range variations {
		found := collect(SourceVariationTimetable, r.fromTimetable(v))
		found += collect(SourceVariationSchedule, r.fromSchedule(v))
		r.diag.Info(diagnostics.ActionVariationCheck,
			fmt.Sprintf("Variation %q of %s", v, name), model.JSONMap{"found": found})
	}

	n = collect(SourceOverride, r.fromOverrides(append([]string{name}, variations...)))
	r.diag.Info(diagnostics.ActionSpecialCaseLookup,
		fmt.Sprintf("Manual override lookup for %s", name), model.JSONMap{"found": n})

	valid := raw[:0:0]
	for _, s := range raw {
		if !s.Valid() {
			r.diag.Warning(diagnostics.ActionPeriodValidation,
				fmt.Sprintf("Dropped invalid period %d (%q) for %s", s.Period, s.ClassName, name), nil)
			continue
		}
		valid = append(valid, s)
	}

	type slotKey struct {
		period    int
		className string
	}
	pos := make(map[slotKey]int)
	var out []ResolvedSlot
	for _, s := range valid {
		k := slotKey{s.Period, s.ClassName}
		if i, dup := pos[k]; dup {
			if s.Source == SourceOverride {
				out[i].Source = SourceOverride
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Period < out[j].Period
	})
	r.diag.Info(diagnostics.ActionDeduplication,
		fmt.Sprintf("%d raw periods merged into %d for %s", len(valid), len(out), name), nil)

	return out
}

func containsNormalized(values []string, key string) bool {
	for _, v := range values {
		if normalizer.NormalizeName(v) == key {
			return true
		}
	}
	return false
}
