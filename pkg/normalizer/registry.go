package normalizer

import (
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// DefaultThreshold 合并相似姓名的默认阈值
const DefaultThreshold = 0.98

// Registry 教师身份注册表
//
// 身份按注册顺序保存，扫描合并候选时顺序固定，结果可复现。
type Registry struct {
	threshold  float64
	identities []*model.TeacherIdentity
	byKey      map[string]*model.TeacherIdentity
}

// NewRegistry 创建注册表，threshold <= 0 时使用默认阈值
func NewRegistry(threshold float64) *Registry {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Registry{
		threshold: threshold,
		byKey:     make(map[string]*model.TeacherIdentity),
	}
}

// Threshold 当前合并阈值
func (r *Registry) Threshold() float64 {
	return r.threshold
}

// RegisterTeacher 注册一个原始姓名，返回其归属的身份
//
// 空白或占位姓名返回 false。先按规范化结果精确匹配，其次在相似度达到阈值且
// 通过 IsSameTeacher 检查时并入已有身份，否则新建身份。
func (r *Registry) RegisterTeacher(raw, phone string) (*model.TeacherIdentity, bool) {
	if IsPlaceholder(raw) {
		return nil, false
	}
	normalized := NormalizeName(raw)
	if normalized == "" {
		return nil, false
	}

	if existing, ok := r.byKey[normalized]; ok {
		r.attach(existing, raw, phone)
		return existing, true
	}

	for _, identity := range r.identities {
		if identity.HasVariation(raw) {
			r.attach(identity, raw, phone)
			return identity, true
		}
	}

	for _, identity := range r.identities {
		if Similarity(normalized, identity.Key) < r.threshold {
			continue
		}
		if !IsSameTeacher(normalized, identity.Key) {
			continue
		}
		r.attach(identity, raw, phone)
		r.byKey[normalized] = identity
		return identity, true
	}

	identity := &model.TeacherIdentity{
		Key:           normalized,
		CanonicalName: CanonicalName(raw),
		Phone:         phone,
		Variations:    []string{raw},
		GradeLevel:    model.DefaultGradeLevel,
	}
	r.byKey[normalized] = identity
	r.identities = append(r.identities, identity)
	return identity, true
}

// RegisterRoster 注册名册条目及其所有别名
func (r *Registry) RegisterRoster(entries []model.RosterEntry) {
	for _, e := range entries {
		identity, ok := r.RegisterTeacher(e.Name, e.Phone)
		if !ok {
			continue
		}
		if e.GradeLevel != nil {
			identity.GradeLevel = e.Grade()
		}
		for _, v := range e.Variations {
			if IsPlaceholder(v) {
				continue
			}
			identity.AddVariation(v)
			// 别名的规范化结果也指向同一身份
			if key := NormalizeName(v); key != "" {
				if _, taken := r.byKey[key]; !taken {
					r.byKey[key] = identity
				}
			}
		}
	}
}

// Lookup 按原始姓名查找身份：规范化精确匹配，其次匹配已记录的写法
func (r *Registry) Lookup(raw string) (*model.TeacherIdentity, bool) {
	normalized := NormalizeName(raw)
	if normalized == "" {
		return nil, false
	}
	if identity, ok := r.byKey[normalized]; ok {
		return identity, true
	}
	for _, identity := range r.identities {
		for _, v := range identity.Variations {
			if NormalizeName(v) == normalized {
				return identity, true
			}
		}
	}
	return nil, false
}

// Identities 按注册顺序返回全部身份
func (r *Registry) Identities() []*model.TeacherIdentity {
	out := make([]*model.TeacherIdentity, len(r.identities))
	copy(out, r.identities)
	return out
}

// Len 身份数量
func (r *Registry) Len() int {
	return len(r.identities)
}

// Reset 清空注册表
func (r *Registry) Reset() {
	r.identities = nil
	r.byKey = make(map[string]*model.TeacherIdentity)
}

func (r *Registry) attach(identity *model.TeacherIdentity, raw, phone string) {
	identity.AddVariation(raw)
	if phone != "" && identity.Phone == "" {
		identity.Phone = phone
	}
}
