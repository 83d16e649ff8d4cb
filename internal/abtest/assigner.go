// Package abtest assigns and tracks A/B test variants. A (test, contact)
// pair is assigned exactly once; the stored value wins over any later roll.
package abtest

import (
    "context"
    "fmt"
    "math/rand"
    "sync"
    "time"
)

// VariantStats is the derived per-variant report. Success rate is computed
// from the outcome log on read, never stored as a running value.
type VariantStats struct {
    Variant   string  `json:"variant"`
    Assigned  int     `json:"assigned"`
    Outcomes  int     `json:"outcomes"`
    Successes int     `json:"successes"`
    Rate      float64 `json:"success_rate"`
}

// Store persists assignments and outcome records.
type Store interface {
    // GetAssignment returns the stored variant, or "" when the pair has
    // never been assigned.
    GetAssignment(ctx context.Context, testID string, contactID int) (string, error)

    // PutAssignment stores the variant for the pair and returns the value
    // that ended up persisted. When a concurrent writer got there first the
    // existing variant is returned, so assignment stays idempotent.
    PutAssignment(ctx context.Context, testID string, contactID int, variant string) (string, error)

    // AppendOutcome records one immutable outcome for the pair.
    AppendOutcome(ctx context.Context, testID string, contactID int, succeeded bool) error

    // Results returns assignment and outcome counts grouped by variant.
    Results(ctx context.Context, testID string) ([]VariantStats, error)
}

// Assigner picks variants and delegates persistence to its store.
type Assigner struct {
    store Store

    mu  sync.Mutex
    rng *rand.Rand
}

// NewAssigner creates an Assigner with a time-seeded source.
func NewAssigner(store Store) *Assigner {
    return &Assigner{
        store: store,
        rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
    }
}

// Assign returns the pair's variant, picking and persisting one on first
// call. The pick is random but the persisted choice is stable across calls
// and restarts.
func (a *Assigner) Assign(ctx context.Context, testID string, contactID int, variants []string) (string, error) {
    if len(variants) == 0 {
        return "", fmt.Errorf("test %s has no variants", testID)
    }

    existing, err := a.store.GetAssignment(ctx, testID, contactID)
    if err != nil {
        return "", err
    }
    if existing != "" {
        return existing, nil
    }

    a.mu.Lock()
    pick := variants[a.rng.Intn(len(variants))]
    a.mu.Unlock()

    return a.store.PutAssignment(ctx, testID, contactID, pick)
}

// RecordOutcome appends one immutable outcome record for the pair.
func (a *Assigner) RecordOutcome(ctx context.Context, testID string, contactID int, succeeded bool) error {
    return a.store.AppendOutcome(ctx, testID, contactID, succeeded)
}

// Results reports per-variant success rates, derived from the outcome log.
func (a *Assigner) Results(ctx context.Context, testID string) ([]VariantStats, error) {
    return a.store.Results(ctx, testID)
}
