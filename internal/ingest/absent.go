package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/normalizer"
)

// 缺勤名单格式
const (
	AbsentFormatNames    = "names"
	AbsentFormatDetailed = "detailed"
)

// absentDocument 带格式标记的缺勤名单
type absentDocument struct {
	Format   string          `json:"format"`
	Teachers json.RawMessage `json:"teachers"`
}

// LoadAbsentList 读取缺勤名单文件，只保留 date 当天（或未标注日期）的教师
func LoadAbsentList(path, date string) ([]string, error) {
	data, err := readRequired(path)
	if err != nil {
		return nil, err
	}
	return ParseAbsentList(data, date)
}

// ParseAbsentList 解析缺勤名单
//
// 支持三种写法：
//
//	{"format":"names","teachers":["Ali Khan"]}
//	{"format":"detailed","teachers":[{"name":"Ali Khan","date":"2025-03-03"}]}
//	["Ali Khan"] 或 [{"name":"Ali Khan"}]   旧版裸数组
//
// 结果按规范化姓名去重，保持首次出现的顺序。
func ParseAbsentList(data []byte, date string) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []string{}, nil
	}

	switch trimmed[0] {
	case '[':
		return parseLegacyAbsent(trimmed, date)
	case '{':
		var doc absentDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, apperrors.AbsentListInvalid(err.Error())
		}
		switch doc.Format {
		case AbsentFormatNames:
			var names []string
			if err := unmarshalTeachers(doc.Teachers, &names); err != nil {
				return nil, err
			}
			return UniqueNames(names), nil
		case AbsentFormatDetailed:
			var requests []model.AbsenceRequest
			if err := unmarshalTeachers(doc.Teachers, &requests); err != nil {
				return nil, err
			}
			return namesForDate(requests, date)
		default:
			return nil, apperrors.AbsentListInvalid(fmt.Sprintf("unknown format %q", doc.Format))
		}
	default:
		return nil, apperrors.AbsentListInvalid("expected a JSON object or array")
	}
}

func unmarshalTeachers(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.AbsentListInvalid(err.Error())
	}
	return nil
}

// parseLegacyAbsent 旧版裸数组：元素为字符串或 {name, date} 对象，按首个元素判断
func parseLegacyAbsent(data []byte, date string) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, apperrors.AbsentListInvalid(err.Error())
	}
	if len(items) == 0 {
		return []string{}, nil
	}

	if first := bytes.TrimSpace(items[0]); len(first) > 0 && first[0] == '{' {
		var requests []model.AbsenceRequest
		if err := json.Unmarshal(data, &requests); err != nil {
			return nil, apperrors.AbsentListInvalid(err.Error())
		}
		return namesForDate(requests, date)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, apperrors.AbsentListInvalid(err.Error())
	}
	return UniqueNames(names), nil
}

func namesForDate(requests []model.AbsenceRequest, date string) ([]string, error) {
	names := make([]string, 0, len(requests))
	for i, r := range requests {
		if verrs := Validate(fmt.Sprintf("teachers[%d]", i), r); verrs.HasErrors() {
			return nil, verrs.ToAppError()
		}
		if date != "" && r.Date != "" && r.Date != date {
			continue
		}
		names = append(names, r.TeacherName)
	}
	return UniqueNames(names), nil
}

// UniqueNames 去掉空白、占位符和规范化后重复的姓名，保持顺序
func UniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if normalizer.IsPlaceholder(n) {
			continue
		}
		key := normalizer.NormalizeName(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
