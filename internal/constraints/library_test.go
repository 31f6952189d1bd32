package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/validator"
)

func TestGetLibrary(t *testing.T) {
	cfg := config.Default().Engine
	cfg.WorkloadCap = 4
	library := GetLibrary(cfg)

	names := make(map[string]ConstraintDefinition, len(library))
	for _, def := range library {
		_, dup := names[def.Name]
		assert.False(t, dup, "duplicate rule name %s", def.Name)
		assert.NotEmpty(t, def.DisplayName, def.Name)
		assert.NotEmpty(t, def.Description, def.Name)
		names[def.Name] = def
	}

	// 分配阶段的过滤约束都在库里
	for _, rule := range EngineRules() {
		def, ok := names[rule]
		require.True(t, ok, rule)
		assert.Equal(t, TypeHard, def.Type)
	}
	assert.Equal(t, "4", names["workload_cap"].Params[0].Value)

	review := GetByType(library, TypeReview)
	require.Len(t, review, len(validator.Checks))
	for i, check := range validator.Checks {
		assert.Equal(t, string(check), review[i].Name)
	}
	assert.Equal(t, "0.5", names["workload_fairness"].Params[0].Value)
	assert.Equal(t, TypeReview, names["availability_review"].Type)
}

func TestEngineRules(t *testing.T) {
	assert.Equal(t, []string{"absent", "availability", "double_booking", "workload_cap"}, EngineRules())
}
