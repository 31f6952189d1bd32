package ingest

import (
	"strings"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/timetable"
)

// LoadTimetable 读取课表（CSV 或 XLSX），返回去掉首尾空白的原始行
//
// 行的解析和校验由 timetable.Build 完成。
func LoadTimetable(path string) (timetable.Table, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	table := make(timetable.Table, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.TrimSpace(c)
		}
		table = append(table, cells)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
