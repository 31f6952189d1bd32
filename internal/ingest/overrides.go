package ingest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// overrideFile 人工补录文件
//
//	overrides:
//	  - teacher: Ali Khan
//	    day: monday
//	    period: 3
//	    className: 10A
type overrideFile struct {
	Overrides []model.ManualOverride `yaml:"overrides"`
}

// LoadOverrides 读取人工补录记录；文件不存在时返回空列表
func LoadOverrides(path string) ([]model.ManualOverride, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}
	return ParseOverrides(data)
}

// ParseOverrides 解析 YAML 补录记录并逐条校验
func ParseOverrides(data []byte) ([]model.ManualOverride, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "人工补录文件解析失败")
	}
	for i, o := range f.Overrides {
		if verrs := Validate(fmt.Sprintf("overrides[%d]", i), o); verrs.HasErrors() {
			return nil, verrs.ToAppError()
		}
		if model.NormalizeDay(o.Day) == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("overrides[%d].day", i), fmt.Sprintf("unknown day %q", o.Day))
		}
	}
	return f.Overrides, nil
}
