package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// VariationSeparator CSV/XLSX 名册中别名列的分隔符
const VariationSeparator = "|"

// LoadRoster 读取教师名册（JSON、CSV 或 XLSX）
//
// JSON 可以是条目数组，也可以是 {"teachers": [...]}。
// 表格列顺序为 name, phone, variations, gradeLevel，首行为表头时自动跳过。
func LoadRoster(path string) ([]model.RosterEntry, error) {
	var (
		entries []model.RosterEntry
		err     error
	)
	switch formatOf(path) {
	case FormatJSON:
		var data []byte
		if data, err = readRequired(path); err != nil {
			return nil, err
		}
		entries, err = ParseRosterJSON(data)
	case FormatCSV, FormatXLSX:
		var rows [][]string
		if rows, err = readTable(path); err != nil {
			return nil, err
		}
		entries, err = RosterFromRows(rows)
	default:
		return nil, apperrors.InvalidInput("roster", fmt.Sprintf("unsupported roster format %q", filepath.Ext(path)))
	}
	if err != nil {
		return nil, err
	}
	if err := ValidateRoster(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseRosterJSON 解析 JSON 名册
func ParseRosterJSON(data []byte) ([]model.RosterEntry, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, apperrors.New(apperrors.CodeRosterInvalid, "名册为空")
	}

	var entries []model.RosterEntry
	if strings.HasPrefix(trimmed, "{") {
		var doc struct {
			Teachers []model.RosterEntry `json:"teachers"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeRosterInvalid, "名册解析失败")
		}
		entries = doc.Teachers
	} else if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRosterInvalid, "名册解析失败")
	}
	return entries, nil
}

// RosterFromRows 把表格行转换为名册条目，跳过表头与空名行
func RosterFromRows(rows [][]string) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(name, "name") {
			continue
		}
		if name == "" {
			continue
		}

		entry := model.RosterEntry{Name: name}
		if len(row) > 1 {
			entry.Phone = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			for _, v := range strings.Split(row[2], VariationSeparator) {
				if v = strings.TrimSpace(v); v != "" {
					entry.Variations = append(entry.Variations, v)
				}
			}
		}
		if len(row) > 3 {
			if raw := strings.TrimSpace(row[3]); raw != "" {
				grade, err := strconv.Atoi(raw)
				if err != nil {
					return nil, apperrors.New(apperrors.CodeRosterInvalid,
						fmt.Sprintf("第 %d 行年级无效: %q", i+1, raw))
				}
				entry.GradeLevel = &grade
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ValidateRoster 逐条校验名册
func ValidateRoster(entries []model.RosterEntry) error {
	all := &apperrors.ValidationErrors{}
	for i, e := range entries {
		verrs := Validate(fmt.Sprintf("roster[%d]", i), e)
		all.Errors = append(all.Errors, verrs.Errors...)
	}
	if all.HasErrors() {
		return all.ToAppError()
	}
	return nil
}
