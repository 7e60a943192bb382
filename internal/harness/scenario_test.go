package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ActivityReplace(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/activity_replace.yaml")
	require.NoError(t, err)

	assert.Equal(t, "activity_replace", s.Name)
	require.NotNil(t, s.Seed)
	assert.Len(t, s.Seed.Publishers, 2)
	assert.Len(t, s.Seed.Recurring, 1)

	require.Len(t, s.Steps, 3)
	assert.Equal(t, OpPutActivity, s.Steps[0].Op)
	require.NotNil(t, s.Steps[0].Activity)
	assert.Equal(t, ledger.March, s.Steps[0].Activity.Month)
	assert.Equal(t, uint64(120), s.Steps[0].Activity.Duration)
	assert.Equal(t, OpRemoveRecurring, s.Steps[2].Op)
	assert.Equal(t, "b.com", s.Steps[2].PublisherID)

	require.Len(t, s.Assertions, 4)
	require.NotNil(t, s.Assertions[0].Key)
	assert.Equal(t, ledger.March, s.Assertions[0].Key.Month)
}

func TestLoadScenario_ResolvesFixtureAgainstScenarioDir(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/exclusion_and_tips.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "scenarios", "fixtures", "publishers.yaml"), s.Fixture)

	filter := s.Assertions[0].Filter
	require.NotNil(t, filter)
	assert.Equal(t, queryir.FilterAllExceptExcluded, filter.Excluded)
	assert.Equal(t, ledger.March, filter.Month)

	require.NotNil(t, s.Steps[0].Exclude)
	assert.Equal(t, ledger.Excluded, *s.Steps[0].Exclude)
	assert.Equal(t, "NOT_FOUND", s.Steps[1].ExpectError)
	assert.Equal(t, ledger.CategoryTip, s.Steps[2].Contribution.Category)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled assertions key"
steps: []
assertion:
  - type: trace_count
    op: vacuum
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: "description is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps:\n  - op: explode\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: `unknown op "explode"`,
		},
		{
			name:    "step without record",
			content: "name: n\ndescription: d\nsteps:\n  - op: put_activity\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: "activity is required for put_activity",
		},
		{
			name:    "set_exclude without state",
			content: "name: n\ndescription: d\nsteps:\n  - {op: set_exclude, publisher_id: a.com}\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: "exclude is required for set_exclude",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nassertions:\n  - {type: sometimes}\n",
			wantErr: `unknown assertion type "sometimes"`,
		},
		{
			name:    "row_count without table",
			content: "name: n\ndescription: d\nassertions:\n  - {type: row_count, count: 1}\n",
			wantErr: "table is required for row_count",
		},
		{
			name:    "missing fixture",
			content: "name: n\ndescription: d\nfixture: nowhere.yaml\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: "fixture file not found",
		},
		{
			name:    "bad enum",
			content: "name: n\ndescription: d\nsteps:\n  - {op: set_exclude, publisher_id: a.com, exclude: maybe}\nassertions:\n  - {type: trace_count, op: vacuum, count: 0}\n",
			wantErr: "unknown exclude state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestFindScenarios_SkipsFixtures(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "activity_replace.yaml"),
		filepath.Join("testdata", "scenarios", "exclusion_and_tips.yaml"),
	}, files)
}

func TestFindScenarios_SingleFile(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios/activity_replace.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/activity_replace.yaml"}, files)
}
