package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"total_teacher.json": `[{"name": "Ali Khan", "phone": "0300"}, {"name": "Sara Malik", "phone": "0302"}]`,
		"timetable_file.csv": "Day,Period,9A,9B\nMonday,1,Ali Khan,empty\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Setenv("SUBSTITUTE_DATA__DIR", dir)
	t.Setenv("SUBSTITUTE_LOG__LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.Bytes()
}

func TestCLI_AssignThenVerify(t *testing.T) {
	dir := setupData(t)

	var assigned struct {
		Assignments []struct {
			Substitute string `json:"substitute"`
		} `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(run(t, "assign", "--date", "2025-03-03", "Ali Khan"), &assigned))
	require.Len(t, assigned.Assignments, 1)
	assert.Equal(t, "Sara Malik", assigned.Assignments[0].Substitute)
	assert.FileExists(t, filepath.Join(dir, "assigned_teacher.json"))

	var verified struct {
		Pass bool `json:"pass"`
	}
	require.NoError(t, json.Unmarshal(run(t, "verify", "--strict", "Ali Khan"), &verified))
	assert.True(t, verified.Pass)

	run(t, "reset")
	data, err := os.ReadFile(filepath.Join(dir, "assigned_teacher.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignments":[],"warnings":[]}`, string(data))
}

func TestCLI_Import(t *testing.T) {
	setupData(t)

	var summary struct {
		RosterEntries int      `json:"rosterEntries"`
		Classes       []string `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(run(t, "import"), &summary))
	assert.Equal(t, 2, summary.RosterEntries)
	assert.Equal(t, []string{"9A", "9B"}, summary.Classes)
}
