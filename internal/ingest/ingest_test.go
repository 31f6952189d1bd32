package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoster_JSON(t *testing.T) {
	path := writeFile(t, "total_teacher.json", `[
		{"name": "Ali Khan", "phone": "03001234567", "variations": ["A. Khan"]},
		{"name": "Sara Malik", "phone": "03011234567", "gradeLevel": 8}
	]`)

	entries, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"A. Khan"}, entries[0].Variations)
	assert.Equal(t, 10, entries[0].Grade())
	assert.Equal(t, 8, entries[1].Grade())

	wrapped := writeFile(t, "roster.json", `{"teachers": [{"name": "Ali Khan", "phone": "0300"}]}`)
	entries, err = LoadRoster(wrapped)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadRoster_CSV(t *testing.T) {
	path := writeFile(t, "roster.csv", "name,phone,variations,gradeLevel\n"+
		"Ali Khan,0300123,A. Khan|Khan Sahib,9\n"+
		"Sara Malik,,,\n"+
		",0301,,\n")

	entries, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"A. Khan", "Khan Sahib"}, entries[0].Variations)
	assert.Equal(t, 9, entries[0].Grade())
	assert.False(t, entries[1].CanSubstitute())
}

func TestLoadRoster_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "phone", "variations", "gradeLevel"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Ali Khan", "03001234", "", "7"}))
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	entries, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ali Khan", entries[0].Name)
	assert.Equal(t, 7, entries[0].Grade())
}

func TestLoadRoster_Errors(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, apperrors.Is(err, apperrors.CodeInputMissing))

	_, err = LoadRoster(writeFile(t, "bad.json", `{"teachers": 5}`))
	assert.True(t, apperrors.Is(err, apperrors.CodeRosterInvalid))

	_, err = LoadRoster(writeFile(t, "grade.csv", "Ali Khan,0300,,nine\n"))
	assert.True(t, apperrors.Is(err, apperrors.CodeRosterInvalid))

	_, err = LoadRoster(writeFile(t, "short.json", `[{"name": "A", "phone": "0300"}]`))
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFail))

	_, err = LoadRoster(writeFile(t, "roster.txt", "Ali Khan"))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestLoadTimetable(t *testing.T) {
	path := writeFile(t, "timetable_file.csv", "\xef\xbb\xbfDay,Period,9A,9B\n"+
		"Monday, 1 ,Ali Khan,Sara Malik\n"+
		",,,\n"+
		"Monday,2,empty\n")

	table, err := LoadTimetable(path)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, []string{"Day", "Period", "9A", "9B"}, table[0])
	assert.Equal(t, "1", table[1][1])
	assert.Len(t, table[2], 3)

	_, err = LoadTimetable(filepath.Join(t.TempDir(), "none.csv"))
	assert.True(t, apperrors.Is(err, apperrors.CodeInputMissing))
}

func TestParseAbsentList(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"姓名格式", `{"format":"names","teachers":["Ali Khan","ali  khan","Sara Malik"]}`, []string{"Ali Khan", "Sara Malik"}},
		{"详细格式按日期过滤", `{"format":"detailed","teachers":[
			{"name":"Ali Khan","date":"2025-03-03"},
			{"name":"Sara Malik","date":"2025-03-04"},
			{"name":"Bilal Shah"}]}`, []string{"Ali Khan", "Bilal Shah"}},
		{"旧版字符串数组", `["Ali Khan", "empty", "", "Sara Malik"]`, []string{"Ali Khan", "Sara Malik"}},
		{"旧版对象数组", `[{"name":"Ali Khan","date":"2025-03-04"},{"name":"Sara Malik"}]`, []string{"Sara Malik"}},
		{"空文件", ``, []string{}},
		{"空数组", `[]`, []string{}},
		{"没有教师字段", `{"format":"names"}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAbsentList([]byte(tt.data), "2025-03-03")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAbsentList_Invalid(t *testing.T) {
	for _, data := range []string{
		`{"format":"csv","teachers":[]}`,
		`"Ali Khan"`,
		`{"format":"names","teachers":[1,2]}`,
		`[1, 2]`,
		`{"format":"detailed","teachers":[{"name":"Ali Khan","date":"03/03/2025"}]}`,
	} {
		_, err := ParseAbsentList([]byte(data), "")
		assert.Error(t, err, data)
	}

	_, err := ParseAbsentList([]byte(`{"format":"csv"}`), "")
	assert.True(t, apperrors.Is(err, apperrors.CodeAbsentListInvalid))
}

func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, "overrides.yaml", `
overrides:
  - teacher: Ali Khan
    day: monday
    period: 3
    className: 10A
  - teacher: Sara Malik
    day: Tue
    period: 1
    className: 9B
`)
	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, []model.ManualOverride{
		{Teacher: "Ali Khan", Day: "monday", Period: 3, ClassName: "10A"},
		{Teacher: "Sara Malik", Day: "Tue", Period: 1, ClassName: "9B"},
	}, overrides)

	missing, err := LoadOverrides(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = ParseOverrides([]byte("overrides:\n  - teacher: Ali\n    day: funday\n    period: 1\n    className: 9A\n"))
	assert.Error(t, err)

	_, err = ParseOverrides([]byte("overrides:\n  - teacher: Ali\n    day: monday\n    period: 0\n    className: 9A\n"))
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFail))
}

func TestLoadSchedules(t *testing.T) {
	path := writeFile(t, "teacher_schedules.json", `{
		"Sir Ali Khan": [{"day": "Monday", "period": 2, "className": "9B"}],
		"ali khan": [{"day": "Tuesday", "period": 1, "className": "9A"}]
	}`)

	schedules, err := LoadSchedules(path)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Len(t, schedules["ali khan"], 2)

	none, err := LoadSchedules(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUniqueNames(t *testing.T) {
	assert.Equal(t, []string{"Ali Khan", "Sara"}, UniqueNames([]string{" Ali Khan ", "Mr. Ali Khan", "x", "Sara", "EMPTY"}))
}
