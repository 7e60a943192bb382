package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/queryir"
)

// Scenario is a scripted run against a fresh store: optional seed data,
// a list of steps and assertions on the resulting state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is an optional fixture file, relative to the scenario file.
	Fixture string `yaml:"fixture,omitempty"`

	// Seed is an inline fixture applied after Fixture.
	Seed *Fixture `yaml:"seed,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one store operation. Op selects which record field is used.
type Step struct {
	Op string `yaml:"op"`

	Publisher    *ledger.PublisherInfo      `yaml:"publisher,omitempty"`
	Activity     *ledger.PublisherActivity  `yaml:"activity,omitempty"`
	Contribution *ledger.ContributionInfo   `yaml:"contribution,omitempty"`
	Media        *ledger.MediaPublisherInfo `yaml:"media,omitempty"`
	Recurring    *ledger.RecurringDonation  `yaml:"recurring,omitempty"`

	// PublisherID is the target of delete_publisher, remove_recurring and
	// set_exclude.
	PublisherID string `yaml:"publisher_id,omitempty"`

	// Exclude is the new state for set_exclude.
	Exclude *ledger.ExcludeState `yaml:"exclude,omitempty"`

	// ExpectError is the store error code the step must fail with.
	// Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpPutPublisher    = "put_publisher"
	OpPutActivity     = "put_activity"
	OpPutContribution = "put_contribution"
	OpPutMedia        = "put_media"
	OpPutRecurring    = "put_recurring"
	OpDeletePublisher = "delete_publisher"
	OpRemoveRecurring = "remove_recurring"
	OpSetExclude      = "set_exclude"
	OpVacuum          = "vacuum"
)

// Assertion checks the store after the steps ran.
type Assertion struct {
	Type string `yaml:"type"`

	// PublisherID is used by get_publisher and publisher_missing.
	PublisherID string `yaml:"publisher_id,omitempty"`

	// Key is used by get_activity.
	Key *ledger.ActivityKey `yaml:"key,omitempty"`

	// Filter is used by list_activity.
	Filter *queryir.ActivityFilter `yaml:"filter,omitempty"`

	// Expect holds expected record fields (get_activity, get_publisher).
	// Subset match on the JSON field names of the record.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Publishers is the expected publisher order (list_activity, recurring).
	Publishers []string `yaml:"publishers,omitempty"`

	// Table is used by row_count.
	Table string `yaml:"table,omitempty"`

	// Month and Year select the period for tips.
	Month ledger.Month `yaml:"month,omitempty"`
	Year  int          `yaml:"year,omitempty"`

	// Op is the step operation counted by trace_count.
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of rows, tips or trace events.
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertGetActivity      = "get_activity"
	AssertGetPublisher     = "get_publisher"
	AssertPublisherMissing = "publisher_missing"
	AssertListActivity     = "list_activity"
	AssertRowCount         = "row_count"
	AssertTips             = "tips"
	AssertRecurring        = "recurring"
	AssertTraceCount       = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative fixture path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the scenario files under path. A file path is
// returned as is; a directory is walked for .yaml and .yml files.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && p != path && info.Name() == "fixtures" {
			return filepath.SkipDir
		}
		if ext := filepath.Ext(p); !info.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Fixture != "" {
		if _, err := os.Stat(s.Fixture); os.IsNotExist(err) {
			return fmt.Errorf("fixture file not found: %s", s.Fixture)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks that the record a step needs is present.
func validateStep(index int, st *Step) error {
	var missing string
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpPutPublisher:
		if st.Publisher == nil {
			missing = "publisher"
		}
	case OpPutActivity:
		if st.Activity == nil {
			missing = "activity"
		}
	case OpPutContribution:
		if st.Contribution == nil {
			missing = "contribution"
		}
	case OpPutMedia:
		if st.Media == nil {
			missing = "media"
		}
	case OpPutRecurring:
		if st.Recurring == nil {
			missing = "recurring"
		}
	case OpDeletePublisher, OpRemoveRecurring:
		if st.PublisherID == "" {
			missing = "publisher_id"
		}
	case OpSetExclude:
		if st.PublisherID == "" {
			missing = "publisher_id"
		} else if st.Exclude == nil {
			missing = "exclude"
		}
	case OpVacuum:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	if missing != "" {
		return fmt.Errorf("steps[%d]: %s is required for %s", index, missing, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertGetActivity:
		if a.Key == nil {
			return fmt.Errorf("assertions[%d]: key is required for get_activity", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for get_activity", index)
		}
	case AssertGetPublisher:
		if a.PublisherID == "" {
			return fmt.Errorf("assertions[%d]: publisher_id is required for get_publisher", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for get_publisher", index)
		}
	case AssertPublisherMissing:
		if a.PublisherID == "" {
			return fmt.Errorf("assertions[%d]: publisher_id is required for publisher_missing", index)
		}
	case AssertListActivity:
		if a.Publishers == nil && a.Count == nil {
			return fmt.Errorf("assertions[%d]: publishers or count is required for list_activity", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for row_count", index)
		}
	case AssertTips:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for tips", index)
		}
	case AssertRecurring:
		if a.Publishers == nil {
			return fmt.Errorf("assertions[%d]: publishers is required for recurring", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
