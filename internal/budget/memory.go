package budget

import (
    "context"
    "sync"
    "time"

    "github.com/designgaga/outreach-backend/internal/model"
)

// Memory is a mutex-serialized in-process Reserver. It backs tests and
// single-process deployments; multi-process deployments share the
// Postgres-backed reserver instead.
type Memory struct {
    mu       sync.Mutex
    limits   map[model.Channel]int
    consumed map[string]int // channel + "|" + day

    // Now is injectable for tests.
    Now func() time.Time
}

// NewMemory creates an in-memory reserver. A limit of zero or below means
// the channel is uncapped.
func NewMemory(limits map[model.Channel]int) *Memory {
    return &Memory{
        limits:   limits,
        consumed: make(map[string]int),
        Now:      time.Now,
    }
}

func key(ch model.Channel, day string) string {
    return string(ch) + "|" + day
}

func (m *Memory) TryReserve(_ context.Context, ch model.Channel, day string) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()

    limit := m.limits[ch]
    k := key(ch, day)
    if limit > 0 && m.consumed[k] >= limit {
        return false, nil
    }
    m.consumed[k]++
    return true, nil
}

func (m *Memory) RemainingToday(ctx context.Context, ch model.Channel) (int, error) {
    s, err := m.Stats(ctx, ch)
    if err != nil {
        return 0, err
    }
    return s.Remaining, nil
}

func (m *Memory) Stats(_ context.Context, ch model.Channel) (Stats, error) {
    m.mu.Lock()
    defer m.mu.Unlock()

    limit := m.limits[ch]
    sent := m.consumed[key(ch, DayKey(m.Now()))]
    remaining := 0
    if limit > 0 {
        remaining = limit - sent
        if remaining < 0 {
            remaining = 0
        }
    }
    return Stats{Channel: ch, DailyLimit: limit, SentToday: sent, Remaining: remaining}, nil
}

var _ Reserver = (*Memory)(nil)
