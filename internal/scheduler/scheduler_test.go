package scheduler

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/runner"
)

type fakeRunSource struct {
    runs []*model.Run
}

func (f *fakeRunSource) ListActive(_ context.Context) ([]*model.Run, error) {
    return f.runs, nil
}

type scriptedEvaluator struct {
    mu       sync.Mutex
    outcomes map[int]runner.Outcome
    seen     []int
}

func (e *scriptedEvaluator) EvaluateRun(_ context.Context, run *model.Run) (runner.CycleResult, error) {
    e.mu.Lock()
    defer e.mu.Unlock()
    e.seen = append(e.seen, run.ID)
    out, ok := e.outcomes[run.ID]
    if !ok {
        out = runner.OutcomeDeferred
    }
    return runner.CycleResult{RunID: run.ID, Outcome: out}, nil
}

func activeRuns(ids ...int) []*model.Run {
    runs := make([]*model.Run, 0, len(ids))
    for _, id := range ids {
        runs = append(runs, &model.Run{ID: id, Status: model.RunActive})
    }
    return runs
}

func TestRunCycleCountsOutcomes(t *testing.T) {
    eval := &scriptedEvaluator{outcomes: map[int]runner.Outcome{
        1: runner.OutcomeSent,
        2: runner.OutcomeCompleted,
        3: runner.OutcomeDeferred,
        4: runner.OutcomeSkipped,
    }}
    s := New(Config{MaxConcurrent: 4}, &fakeRunSource{runs: activeRuns(1, 2, 3, 4)}, eval)

    stats, err := s.RunCycle(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 4, stats.Evaluated)
    assert.Equal(t, 2, stats.Sent)
    assert.Equal(t, 1, stats.Completed)
    assert.Equal(t, 1, stats.Deferred)
    assert.Equal(t, 1, stats.Skipped)
    assert.False(t, stats.Halted)

    total := s.Stats()
    assert.Equal(t, int64(1), total.Cycles)
    assert.Equal(t, int64(2), total.TotalSent)
}

func TestRunCycleHaltsAfterPause(t *testing.T) {
    eval := &scriptedEvaluator{outcomes: map[int]runner.Outcome{
        1: runner.OutcomeSent,
        2: runner.OutcomePaused,
        3: runner.OutcomeSent,
        4: runner.OutcomeSent,
    }}
    // MaxConcurrent 1 forces runs through in listing order, so the halt
    // point is deterministic.
    s := New(Config{MaxConcurrent: 1}, &fakeRunSource{runs: activeRuns(1, 2, 3, 4)}, eval)

    stats, err := s.RunCycle(context.Background())
    require.NoError(t, err)
    assert.True(t, stats.Halted)
    assert.Equal(t, 1, stats.Paused)
    assert.Equal(t, 1, stats.Sent)
    assert.Equal(t, 2, stats.Evaluated)
    assert.Equal(t, []int{1, 2}, eval.seen)
}

func TestRunCycleSkipsInFlightRuns(t *testing.T) {
    eval := &scriptedEvaluator{outcomes: map[int]runner.Outcome{}}
    s := New(Config{MaxConcurrent: 2}, &fakeRunSource{runs: activeRuns(1, 2)}, eval)

    // Simulate run 1 still being evaluated by a previous, slower cycle.
    require.True(t, s.markInFlight(1))

    stats, err := s.RunCycle(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, stats.Evaluated)
    assert.Equal(t, []int{2}, eval.seen)

    // Once the stale evaluation clears, the run is picked up again.
    s.clearInFlight(1)
    _, err = s.RunCycle(context.Background())
    require.NoError(t, err)
    assert.Contains(t, eval.seen, 1)
}

func TestStartStopLifecycle(t *testing.T) {
    eval := &scriptedEvaluator{outcomes: map[int]runner.Outcome{}}
    s := New(Config{TickInterval: 10 * time.Millisecond}, &fakeRunSource{}, eval)

    require.NoError(t, s.Start(context.Background()))
    assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
    assert.True(t, s.Stats().Running)

    require.NoError(t, s.Stop())
    assert.ErrorIs(t, s.Stop(), ErrNotRunning)
    assert.False(t, s.Stats().Running)
}
