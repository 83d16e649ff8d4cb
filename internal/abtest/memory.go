package abtest

import (
    "context"
    "sort"
    "strconv"
    "sync"
)

type outcome struct {
    testID    string
    contactID int
    succeeded bool
}

// MemoryStore is an in-process Store for tests and single-process use.
type MemoryStore struct {
    mu          sync.Mutex
    assignments map[string]string // testID|contactID -> variant
    outcomes    []outcome
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{assignments: make(map[string]string)}
}

func pairKey(testID string, contactID int) string {
    return testID + "|" + strconv.Itoa(contactID)
}


func (s *MemoryStore) GetAssignment(_ context.Context, testID string, contactID int) (string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.assignments[pairKey(testID, contactID)], nil
}

func (s *MemoryStore) PutAssignment(_ context.Context, testID string, contactID int, variant string) (string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    k := pairKey(testID, contactID)
    if existing, ok := s.assignments[k]; ok {
        return existing, nil
    }
    s.assignments[k] = variant
    return variant, nil
}

func (s *MemoryStore) AppendOutcome(_ context.Context, testID string, contactID int, succeeded bool) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.outcomes = append(s.outcomes, outcome{testID: testID, contactID: contactID, succeeded: succeeded})
    return nil
}

func (s *MemoryStore) Results(_ context.Context, testID string) ([]VariantStats, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    byVariant := make(map[string]*VariantStats)
    variantOf := make(map[int]string)
    prefix := testID + "|"
    for k, v := range s.assignments {
        if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
            continue
        }
        st, ok := byVariant[v]
        if !ok {
            st = &VariantStats{Variant: v}
            byVariant[v] = st
        }
        st.Assigned++
        id, err := strconv.Atoi(k[len(prefix):])
        if err != nil {
            continue
        }
        variantOf[id] = v
    }

    for _, o := range s.outcomes {
        if o.testID != testID {
            continue
        }
        v, ok := variantOf[o.contactID]
        if !ok {
            continue
        }
        st := byVariant[v]
        st.Outcomes++
        if o.succeeded {
            st.Successes++
        }
    }

    out := make([]VariantStats, 0, len(byVariant))
    for _, st := range byVariant {
        if st.Outcomes > 0 {
            st.Rate = float64(st.Successes) / float64(st.Outcomes)
        }
        out = append(out, *st)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
    return out, nil
}


var _ Store = (*MemoryStore)(nil)
