package ingest

import (
	"encoding/json"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/substitute"
)

// LoadSchedules 读取按教师分组的直接课程表（JSON），文件不存在时返回 nil
//
//	{"Ali Khan": [{"day": "Monday", "period": 2, "className": "9B"}]}
func LoadSchedules(path string) (substitute.DirectSchedule, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}
	return ParseSchedules(data)
}

// ParseSchedules 解析直接课程表并规范化键名
func ParseSchedules(data []byte) (substitute.DirectSchedule, error) {
	var raw map[string][]model.ScheduleEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "课程表解析失败")
	}
	return substitute.NewDirectSchedule(raw), nil
}
