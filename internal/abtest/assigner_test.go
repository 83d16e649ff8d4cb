package abtest_test

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/designgaga/outreach-backend/internal/abtest"
)

var variants = []string{"modern_minimal", "classic_elegant"}

func TestAssignIsIdempotent(t *testing.T) {
    ctx := context.Background()
    a := abtest.NewAssigner(abtest.NewMemoryStore())

    first, err := a.Assign(ctx, "1_email_welcome_luxury", 42, variants)
    require.NoError(t, err)
    assert.Contains(t, variants, first)

    for i := 0; i < 20; i++ {
        again, err := a.Assign(ctx, "1_email_welcome_luxury", 42, variants)
        require.NoError(t, err)
        assert.Equal(t, first, again)
    }
}

// A process restart means a fresh Assigner over the same store; the stored
// assignment must survive it.
func TestAssignSurvivesRestart(t *testing.T) {
    ctx := context.Background()
    store := abtest.NewMemoryStore()

    first, err := abtest.NewAssigner(store).Assign(ctx, "t", 7, variants)
    require.NoError(t, err)

    after, err := abtest.NewAssigner(store).Assign(ctx, "t", 7, variants)
    require.NoError(t, err)
    assert.Equal(t, first, after)
}

func TestAssignDistinctPairsAreIndependent(t *testing.T) {
    ctx := context.Background()
    a := abtest.NewAssigner(abtest.NewMemoryStore())

    seen := map[string]bool{}
    for contact := 1; contact <= 50; contact++ {
        v, err := a.Assign(ctx, "t", contact, variants)
        require.NoError(t, err)
        seen[v] = true
    }
    // With 50 contacts both arms are all but certain to appear.
    assert.Len(t, seen, 2)
}

func TestAssignNoVariants(t *testing.T) {
    _, err := abtest.NewAssigner(abtest.NewMemoryStore()).Assign(context.Background(), "t", 1, nil)
    assert.Error(t, err)
}

func TestResultsDeriveSuccessRate(t *testing.T) {
    ctx := context.Background()
    store := abtest.NewMemoryStore()
    a := abtest.NewAssigner(store)

    // Pin assignments so the report is deterministic.
    _, err := store.PutAssignment(ctx, "t", 1, "modern_minimal")
    require.NoError(t, err)
    _, err = store.PutAssignment(ctx, "t", 2, "modern_minimal")
    require.NoError(t, err)
    _, err = store.PutAssignment(ctx, "t", 3, "classic_elegant")
    require.NoError(t, err)

    require.NoError(t, a.RecordOutcome(ctx, "t", 1, true))
    require.NoError(t, a.RecordOutcome(ctx, "t", 2, false))
    require.NoError(t, a.RecordOutcome(ctx, "t", 3, true))

    results, err := a.Results(ctx, "t")
    require.NoError(t, err)
    require.Len(t, results, 2)

    assert.Equal(t, "classic_elegant", results[0].Variant)
    assert.Equal(t, 1, results[0].Assigned)
    assert.Equal(t, 1.0, results[0].Rate)

    assert.Equal(t, "modern_minimal", results[1].Variant)
    assert.Equal(t, 2, results[1].Assigned)
    assert.Equal(t, 2, results[1].Outcomes)
    assert.Equal(t, 0.5, results[1].Rate)
}
