package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rewardstore/internal/ledger"
	"github.com/roach88/rewardstore/internal/store"
	"github.com/roach88/rewardstore/internal/testutil"
)

// Fixture is a set of records loaded into a store before a scenario runs,
// or by the seed command.
//
// Records are written in field order: publishers first, then activity,
// contributions, media mappings and recurring donations.
type Fixture struct {
	Publishers    []ledger.PublisherInfo      `yaml:"publishers,omitempty"`
	Activity      []ledger.PublisherActivity  `yaml:"activity,omitempty"`
	Contributions []ledger.ContributionInfo   `yaml:"contributions,omitempty"`
	Media         []ledger.MediaPublisherInfo `yaml:"media,omitempty"`
	Recurring     []ledger.RecurringDonation  `yaml:"recurring,omitempty"`
}

// FixtureStats counts the records a fixture wrote.
type FixtureStats struct {
	Publishers    int `json:"publishers"`
	Activity      int `json:"activity"`
	Contributions int `json:"contributions"`
	Media         int `json:"media"`
	Recurring     int `json:"recurring"`
}

// Total returns the number of records written.
func (s FixtureStats) Total() int {
	return s.Publishers + s.Activity + s.Contributions + s.Media + s.Recurring
}

// LoadFixture reads a fixture YAML file. Unknown fields are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture YAML: %w", err)
	}
	return &f, nil
}

// Apply writes the fixture to st. Contribution dates and donation dates
// left at zero are taken from clock.
func (f *Fixture) Apply(ctx context.Context, st *store.Store, clock *testutil.StepClock) (FixtureStats, error) {
	var stats FixtureStats

	for i, p := range f.Publishers {
		if err := st.PutPublisher(ctx, p); err != nil {
			return stats, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		stats.Publishers++
	}
	for i, a := range f.Activity {
		if err := st.PutActivity(ctx, a); err != nil {
			return stats, fmt.Errorf("activity[%d]: %w", i, err)
		}
		stats.Activity++
	}
	for i, c := range f.Contributions {
		if c.Date == 0 {
			c.Date = clock.Next()
		}
		if err := st.PutContribution(ctx, c); err != nil {
			return stats, fmt.Errorf("contributions[%d]: %w", i, err)
		}
		stats.Contributions++
	}
	for i, m := range f.Media {
		if err := st.PutMediaPublisher(ctx, m); err != nil {
			return stats, fmt.Errorf("media[%d]: %w", i, err)
		}
		stats.Media++
	}
	for i, d := range f.Recurring {
		if d.AddedDate == 0 {
			d.AddedDate = clock.Next()
		}
		if err := st.PutRecurringDonation(ctx, d); err != nil {
			return stats, fmt.Errorf("recurring[%d]: %w", i, err)
		}
		stats.Recurring++
	}
	return stats, nil
}
