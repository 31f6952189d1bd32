// Package workload 记录单次分配运行中每位代课教师的工作量与已占用节次
package workload

import (
	"sort"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
)

// DefaultCap 每日代课节数上限
const DefaultCap = 6

// Load 单个代课教师的工作量
type Load struct {
	Substitute string `json:"substitute"`
	Count      int    `json:"count"`
	Periods    []int  `json:"periods"`
}

type state struct {
	name     string
	count    int
	occupied map[int]bool
}

// Tracker 工作量跟踪器，仅在一次运行内有效，非并发安全
type Tracker struct {
	cap    int
	states map[string]*state
	order  []string
}

// New 创建跟踪器，cap <= 0 时使用默认上限
func New(cap int) *Tracker {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Tracker{
		cap:    cap,
		states: make(map[string]*state),
	}
}

// Key 代课教师的跟踪键
func Key(substitute string) string {
	if k := normalizer.NormalizeName(substitute); k != "" {
		return k
	}
	return substitute
}

// Cap 每日上限
func (t *Tracker) Cap() int {
	return t.cap
}

// Seed 用已持久化的分配初始化工作量，同一天重复运行不会重复占用
func (t *Tracker) Seed(assignments []model.SubstituteAssignment) {
	for _, a := range assignments {
		if a.Substitute == "" {
			continue
		}
		t.Commit(a.Substitute, a.Period)
	}
}

// CanAssign 节次未被占用且未达上限时返回 true
func (t *Tracker) CanAssign(substitute string, period int) bool {
	s, ok := t.states[Key(substitute)]
	if !ok {
		return t.cap > 0
	}
	if s.occupied[period] {
		return false
	}
	return s.count < t.cap
}

// IsOccupied 该节次是否已被占用
func (t *Tracker) IsOccupied(substitute string, period int) bool {
	s, ok := t.states[Key(substitute)]
	return ok && s.occupied[period]
}

// Count 当前代课节数
func (t *Tracker) Count(substitute string) int {
	if s, ok := t.states[Key(substitute)]; ok {
		return s.count
	}
	return 0
}

// Commit 记录一次分配：计数加一并占用节次
func (t *Tracker) Commit(substitute string, period int) {
	key := Key(substitute)
	s, ok := t.states[key]
	if !ok {
		s = &state{name: substitute, occupied: make(map[int]bool)}
		t.states[key] = s
		t.order = append(t.order, key)
	}
	s.count++
	s.occupied[period] = true
}

// Totals 全部代课教师的工作量，按首次出现顺序
func (t *Tracker) Totals() []Load {
	out := make([]Load, 0, len(t.order))
	for _, key := range t.order {
		s := t.states[key]
		periods := make([]int, 0, len(s.occupied))
		for p := range s.occupied {
			periods = append(periods, p)
		}
		sort.Ints(periods)
		out = append(out, Load{Substitute: s.name, Count: s.count, Periods: periods})
	}
	return out
}

// OverCap 超过上限的代课教师
func (t *Tracker) OverCap() []Load {
	var out []Load
	for _, l := range t.Totals() {
		if l.Count > t.cap {
			out = append(out, l)
		}
	}
	return out
}
