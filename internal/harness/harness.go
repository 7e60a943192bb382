package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/rewardstore/internal/queryir"
	"github.com/roach88/rewardstore/internal/store"
	"github.com/roach88/rewardstore/internal/testutil"
)

// Harness executes one scenario against one store.
type Harness struct {
	store  *store.Store
	clock  *testutil.StepClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database file in a temporary directory,
// removed afterwards. Unset contribution and donation dates come from a
// StepClock so reruns store identical rows.
//
// Execution flow:
// 1. Create a fresh store
// 2. Apply the fixture file and the inline seed
// 3. Execute steps, checking expected errors
// 4. Evaluate assertions
//
// The returned error is for infrastructure failures; step and assertion
// failures are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "rewardstore-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st := store.New(filepath.Join(dir, "publisher_info.db"), store.WithLogger(testutil.DiscardLogger()))
	if _, err := st.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open scenario store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewStepClock(0, 1),
		logger: testutil.DiscardLogger(),
	}
	return h.run(ctx, scenario)
}

// RunFile loads and runs the scenario at path.
func RunFile(ctx context.Context, path string) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(ctx, scenario)
	return scenario, result, err
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if scenario.Fixture != "" {
		f, err := LoadFixture(scenario.Fixture)
		if err != nil {
			return nil, err
		}
		if _, err := f.Apply(ctx, h.store, h.clock); err != nil {
			return nil, fmt.Errorf("failed to apply fixture: %w", err)
		}
	}
	if scenario.Seed != nil {
		if _, err := scenario.Seed.Apply(ctx, h.store, h.clock); err != nil {
			return nil, fmt.Errorf("failed to apply seed: %w", err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		subject, err := h.executeStep(ctx, step)
		outcome := outcomeOf(err)
		result.AddTrace(step.Op, subject, outcome)
		h.logger.Debug("step executed",
			"op", step.Op,
			"subject", subject,
			"outcome", outcome,
		)

		want := step.ExpectError
		if want == "" {
			want = OutcomeOK
		}
		if outcome != want {
			msg := fmt.Sprintf("steps[%d] %s %s: expected %s, got %s", i, step.Op, subject, want, outcome)
			if err != nil {
				msg += fmt.Sprintf(" (%v)", err)
			}
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{Store: h.store, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	state, err := h.captureState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture final state: %w", err)
	}
	result.State = state
	return result, nil
}

func (h *Harness) captureState(ctx context.Context) (*State, error) {
	activity, err := h.store.ListActivity(ctx, queryir.AllActivity())
	if err != nil {
		return nil, err
	}
	recurring, err := h.store.ListRecurringDonations(ctx)
	if err != nil {
		return nil, err
	}
	return &State{Activity: activity, Recurring: recurring}, nil
}

// executeStep runs one step and returns the key it touched.
func (h *Harness) executeStep(ctx context.Context, step Step) (string, error) {
	st := h.store
	switch step.Op {
	case OpPutPublisher:
		return step.Publisher.ID, st.PutPublisher(ctx, *step.Publisher)
	case OpPutActivity:
		return step.Activity.PublisherID, st.PutActivity(ctx, *step.Activity)
	case OpPutContribution:
		c := *step.Contribution
		if c.Date == 0 {
			c.Date = h.clock.Next()
		}
		return c.PublisherID, st.PutContribution(ctx, c)
	case OpPutMedia:
		return step.Media.MediaKey, st.PutMediaPublisher(ctx, *step.Media)
	case OpPutRecurring:
		d := *step.Recurring
		if d.AddedDate == 0 {
			d.AddedDate = h.clock.Next()
		}
		return d.PublisherID, st.PutRecurringDonation(ctx, d)
	case OpDeletePublisher:
		return step.PublisherID, st.DeletePublisher(ctx, step.PublisherID)
	case OpRemoveRecurring:
		return step.PublisherID, st.RemoveRecurring(ctx, step.PublisherID)
	case OpSetExclude:
		return step.PublisherID, st.SetPublisherExclude(ctx, step.PublisherID, *step.Exclude)
	case OpVacuum:
		return "", st.Vacuum(ctx)
	}
	return "", fmt.Errorf("unknown op %q", step.Op)
}

// outcomeOf maps a step error to its trace outcome.
func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var serr *store.Error
	if errors.As(err, &serr) {
		return string(serr.Code)
	}
	return "ERROR"
}
