package substitute

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/store"
)

// 场景A：工作量少的代课教师优先（Sana 为 0，Saad 已有 5 节）
func TestScenario_LowerWorkloadPreferred(t *testing.T) {
	roster := []model.RosterEntry{
		{Name: "Absent Teacher", Phone: "0399"},
		{Name: "Sana Iqbal", Phone: "0301"},
		{Name: "Saad Raza", Phone: "0302"},
	}
	idx := buildIndex(t, roster,
		[]string{"Monday", "6", "Absent Teacher", "empty", "empty"},
		[]string{"Monday", "7", "empty", "Absent Teacher", "empty"},
	)

	var persisted []model.SubstituteAssignment
	for p := 1; p <= 5; p++ {
		persisted = append(persisted, model.SubstituteAssignment{
			OriginalTeacher: "Other", Period: p, ClassName: "9A", Substitute: "Saad Raza", SubstitutePhone: "0302",
		})
	}

	res, err := NewEngine(Options{WorkloadCap: 6}).Run(context.Background(), Request{
		Date:           monday,
		AbsentTeachers: []string{"Absent Teacher"},
		Roster:         roster,
		Index:          idx,
		Persisted:      persisted,
	})
	require.NoError(t, err)

	require.Len(t, res.Assignments, 2)
	for _, a := range res.Assignments {
		assert.Equal(t, "Sana Iqbal", a.Substitute)
	}
	assert.Empty(t, res.Warnings)

	counts := map[string]int{}
	for _, load := range res.Workload {
		counts[load.Substitute] = load.Count
	}
	assert.Equal(t, 2, counts["Sana Iqbal"])
	assert.Equal(t, 5, counts["Saad Raza"])
}

// 场景B：只有高年级教师可用时走后备并给出警告
func TestScenario_HigherGradeFallback(t *testing.T) {
	roster := []model.RosterEntry{
		{Name: "Junior Teacher", Phone: "0399", GradeLevel: grade(7)},
		{Name: "Senior Sub", Phone: "0301", GradeLevel: grade(9)},
	}
	idx := buildIndex(t, roster,
		[]string{"Monday", "2", "empty", "empty", "Junior Teacher"},
	)

	res, err := NewEngine(Options{}).Run(context.Background(), Request{
		Date:           monday,
		AbsentTeachers: []string{"Junior Teacher"},
		Roster:         roster,
		Index:          idx,
	})
	require.NoError(t, err)

	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "Senior Sub", res.Assignments[0].Substitute)
	assert.Equal(t, "7B", res.Assignments[0].ClassName)
	assert.Equal(t, []string{"Using higher-grade substitute Senior Sub for 7B"}, res.Warnings)
}

// 场景C：找不到课程的教师只产生警告，不影响其他教师
func TestScenario_NoPeriodsFound(t *testing.T) {
	roster := []model.RosterEntry{
		{Name: "Ali Khan", Phone: "0300"},
		{Name: "Sara Malik", Phone: "0302"},
	}
	idx := buildIndex(t, roster,
		[]string{"Monday", "1", "Ali Khan", "empty", "empty"},
	)

	res, err := NewEngine(Options{}).Run(context.Background(), Request{
		Date:           monday,
		AbsentTeachers: []string{"Ghost Teacher", "Ali Khan"},
		Roster:         roster,
		Index:          idx,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"No periods found for Ghost Teacher on monday"}, res.Warnings)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "Ali Khan", res.Assignments[0].OriginalTeacher)
	for _, a := range res.Assignments {
		assert.NotEqual(t, "Ghost Teacher", a.OriginalTeacher)
	}
}

// 场景D：持久化文档为空字符串时返回空列表与恢复警告
func TestScenario_EmptyPersistedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assigned_teacher.json")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	doc, warnings, err := store.NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Assignments)
	assert.Equal(t, []string{store.RecoveryWarning}, warnings)

	// 恢复后的空文档可直接作为种子数据
	roster := []model.RosterEntry{{Name: "Ali Khan", Phone: "0300"}, {Name: "Sara Malik", Phone: "0302"}}
	idx := buildIndex(t, roster, []string{"Monday", "1", "Ali Khan", "empty", "empty"})
	res, err := NewEngine(Options{}).Run(context.Background(), Request{
		Date:           monday,
		AbsentTeachers: []string{"Ali Khan"},
		Roster:         roster,
		Index:          idx,
		Persisted:      doc.Assignments,
	})
	require.NoError(t, err)
	assert.Len(t, res.Assignments, 1)
}

// 场景E：名册未填写年级时使用默认年级，不产生后备警告
func TestScenario_UndeclaredGradeIsNotFallback(t *testing.T) {
	roster := []model.RosterEntry{
		{Name: "Junior Teacher", Phone: "0399", GradeLevel: grade(7)},
		{Name: "Plain Sub", Phone: "0301"},
		{Name: "Senior Sub", Phone: "0302", GradeLevel: grade(10)},
	}
	idx := buildIndex(t, roster,
		[]string{"Monday", "2", "empty", "empty", "Junior Teacher"},
		[]string{"Monday", "3", "empty", "empty", "Junior Teacher"},
	)

	res, err := NewEngine(Options{}).Run(context.Background(), Request{
		Date:           monday,
		AbsentTeachers: []string{"Junior Teacher"},
		Roster:         roster,
		Index:          idx,
	})
	require.NoError(t, err)

	require.Len(t, res.Assignments, 2)
	assert.Equal(t, "Plain Sub", res.Assignments[0].Substitute)
	assert.Equal(t, "Plain Sub", res.Assignments[1].Substitute, "declared senior stays behind preferred candidates")
	assert.Empty(t, res.Warnings)
}
