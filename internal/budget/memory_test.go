package budget_test

import (
    "context"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/designgaga/outreach-backend/internal/budget"
    "github.com/designgaga/outreach-backend/internal/model"
)

func TestTryReserveStopsAtLimit(t *testing.T) {
    ctx := context.Background()
    m := budget.NewMemory(map[model.Channel]int{model.ChannelEmail: 3})
    day := budget.DayKey(time.Now())

    for i := 0; i < 3; i++ {
        ok, err := m.TryReserve(ctx, model.ChannelEmail, day)
        require.NoError(t, err)
        assert.True(t, ok)
    }
    ok, err := m.TryReserve(ctx, model.ChannelEmail, day)
    require.NoError(t, err)
    assert.False(t, ok, "fourth reservation must be refused")

    stats, err := m.Stats(ctx, model.ChannelEmail)
    require.NoError(t, err)
    assert.Equal(t, 3, stats.SentToday)
    assert.Equal(t, 0, stats.Remaining)
}

// N concurrent reservations against a limit of L must yield exactly L
// successes, never an overrun.
func TestTryReserveConcurrent(t *testing.T) {
    const limit = 25
    const attempts = 200

    ctx := context.Background()
    m := budget.NewMemory(map[model.Channel]int{model.ChannelSMS: limit})
    day := budget.DayKey(time.Now())

    var granted int64
    var wg sync.WaitGroup
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            ok, err := m.TryReserve(ctx, model.ChannelSMS, day)
            assert.NoError(t, err)
            if ok {
                atomic.AddInt64(&granted, 1)
            }
        }()
    }
    wg.Wait()

    assert.EqualValues(t, limit, granted)

    remaining, err := m.RemainingToday(ctx, model.ChannelSMS)
    require.NoError(t, err)
    assert.Equal(t, 0, remaining)
}

func TestCountersAreScopedByDay(t *testing.T) {
    ctx := context.Background()
    m := budget.NewMemory(map[model.Channel]int{model.ChannelEmail: 1})

    ok, err := m.TryReserve(ctx, model.ChannelEmail, "2026-03-10")
    require.NoError(t, err)
    assert.True(t, ok)

    ok, err = m.TryReserve(ctx, model.ChannelEmail, "2026-03-10")
    require.NoError(t, err)
    assert.False(t, ok)

    // A new calendar day starts fresh with no explicit reset.
    ok, err = m.TryReserve(ctx, model.ChannelEmail, "2026-03-11")
    require.NoError(t, err)
    assert.True(t, ok)
}

func TestUncappedChannel(t *testing.T) {
    ctx := context.Background()
    m := budget.NewMemory(nil)
    day := budget.DayKey(time.Now())

    for i := 0; i < 10; i++ {
        ok, err := m.TryReserve(ctx, model.ChannelWhatsApp, day)
        require.NoError(t, err)
        assert.True(t, ok)
    }
}
