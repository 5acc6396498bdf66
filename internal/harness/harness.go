package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/promptlab/internal/compare"
	"github.com/roach88/promptlab/internal/execute"
	"github.com/roach88/promptlab/internal/playground"
	"github.com/roach88/promptlab/internal/store"
	"github.com/roach88/promptlab/internal/testutil"
	"github.com/roach88/promptlab/internal/versions"
)

// Harness is the scenario execution engine.
// It owns one playground wired to deterministic collaborators.
type Harness struct {
	store      *store.Store
	playground *playground.Playground
	versions   *versions.Store
	selector   *compare.Selector
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and playground
// 2. Execute steps, checking each against its expected error
// 3. Evaluate assertions against the final state
// 4. Return result with pass/fail, trace, final versions and errors
//
// A step that fails with an error that has no scenario name (see ErrorName)
// aborts the run and is returned as an error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Playground: h.playground,
		Selector:   h.selector,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	for _, v := range h.versions.List() {
		result.Versions = append(result.Versions, VersionSummary{
			ID:    v.ID,
			Label: v.Label(),
			Model: v.Model,
			Note:  v.Note,
		})
	}

	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	clock := testutil.NewClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios

	vs, err := versions.Open(ctx, st,
		versions.WithIDGenerator(testutil.NewSequentialIDs("version")),
		versions.WithClock(clock.Now),
		versions.WithLogger(logger),
	)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open versions: %w", err)
	}

	mock := execute.NewMock(
		execute.WithDelay(0),
		execute.WithSeed(scenario.Seed),
		execute.WithClock(clock.Now),
		execute.WithLogger(logger),
	)

	pg, err := playground.New(ctx, st, vs, mock, playground.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create playground: %w", err)
	}

	return &Harness{
		store:      st,
		playground: pg,
		versions:   vs,
		selector:   pg.Selector(),
		logger:     logger,
	}, nil
}

// executeStep runs one step, records it in the trace and compares its
// outcome with the step's expected error.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	ev := TraceEvent{Action: step.Action, Ref: step.Ref}

	err := h.apply(ctx, step, &ev)
	outcome := ErrorName(err)
	if outcome == "" {
		return fmt.Errorf("%s: %w", step.Action, err)
	}

	ev.Outcome = outcome
	ev.Count = h.versions.Len()
	result.AddTrace(ev)

	want := step.Error
	if want == "" {
		want = OutcomeOK
	}
	if outcome != want {
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s", index, step.Action, want, outcome))
	}

	h.logger.Info("scenario step completed",
		"step", index,
		"action", step.Action,
		"outcome", outcome,
	)
	return nil
}

func (h *Harness) apply(ctx context.Context, step Step, ev *TraceEvent) error {
	switch step.Action {
	case StepSetConfig:
		_, err := h.playground.SetConfig(ctx, step.Config.Patch())
		return err

	case StepRun:
		_, err := h.playground.Run(ctx)
		return err

	case StepSave:
		v, err := h.playground.Save(ctx, step.Note)
		if err == nil {
			ev.Version = v.Label()
		}
		return err

	case StepDelete:
		id, label := h.resolve(step.Ref)
		ev.Version = label
		return h.versions.DeleteOne(ctx, id)

	case StepDeleteMany:
		ids := make([]string, len(step.Refs))
		for i, ref := range step.Refs {
			ids[i], _ = h.resolve(ref)
		}
		n, err := h.versions.DeleteMany(ctx, ids)
		ev.Removed = n
		return err

	case StepNote:
		id, label := h.resolve(step.Ref)
		ev.Version = label
		return h.versions.UpdateNote(ctx, id, step.Note)

	case StepLoad:
		v, err := h.playground.Load(ctx, step.Ref)
		if err == nil {
			ev.Version = v.Label()
		}
		return err

	case StepDuplicate:
		v, err := h.playground.Duplicate(ctx, step.Ref)
		if err == nil {
			ev.Version = v.Label()
		}
		return err

	case StepReset:
		return h.playground.Reset(ctx)

	case StepSelect:
		slot, err := compare.ParseSlot(step.Slot)
		if err != nil {
			return err
		}
		id, label := h.resolve(step.Ref)
		ev.Version = label
		return h.selector.Select(slot, id)

	case StepClear:
		slot, err := compare.ParseSlot(step.Slot)
		if err != nil {
			return err
		}
		h.selector.Clear(slot)
		return nil

	case StepCompare:
		_, err := h.selector.Compare()
		return err

	case StepResetCompare:
		h.selector.Reset()
		return nil

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// resolve maps a reference to a version id and label. Unknown references are
// passed through as ids so the operation reports them as not found.
func (h *Harness) resolve(ref string) (id, label string) {
	v, err := h.versions.Resolve(ref)
	if err != nil {
		return ref, ""
	}
	return v.ID, v.Label()
}
