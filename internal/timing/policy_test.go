package timing_test

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/timing"
)

func mustTOD(t *testing.T, s string) timing.TimeOfDay {
    tod, err := timing.ParseTimeOfDay(s)
    require.NoError(t, err)
    return tod
}

func at(t *testing.T, clock string) time.Time {
    parsed, err := time.Parse("15:04", clock)
    require.NoError(t, err)
    return time.Date(2026, 3, 10, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func emailPolicy(t *testing.T) timing.Policy {
    return timing.Policy{
        OptimalTimes: []timing.TimeOfDay{
            mustTOD(t, "09:30"), mustTOD(t, "11:00"), mustTOD(t, "14:30"), mustTOD(t, "16:00"),
        },
        Quiet:        timing.QuietWindow{Start: mustTOD(t, "18:00"), End: mustTOD(t, "08:00")},
        FrequencyCap: 24 * time.Hour,
    }
}

func TestQuietWindowOvernightWrap(t *testing.T) {
    w := timing.QuietWindow{Start: mustTOD(t, "22:00"), End: mustTOD(t, "06:00")}

    for _, s := range []string{"23:00", "00:00", "05:59", "22:00", "06:00"} {
        assert.True(t, w.Contains(mustTOD(t, s)), "expected %s inside quiet window", s)
    }
    for _, s := range []string{"06:01", "12:00", "21:59"} {
        assert.False(t, w.Contains(mustTOD(t, s)), "expected %s outside quiet window", s)
    }
}

func TestQuietWindowSameDay(t *testing.T) {
    w := timing.QuietWindow{Start: mustTOD(t, "12:00"), End: mustTOD(t, "14:00")}
    assert.True(t, w.Contains(mustTOD(t, "13:00")))
    assert.False(t, w.Contains(mustTOD(t, "11:59")))
    assert.False(t, w.Contains(mustTOD(t, "14:01")))
}

func TestNextEligibleTimePicksFirstSlotAfterNow(t *testing.T) {
    p := emailPolicy(t)

    got := p.NextEligibleTime(model.PriorityNormal, at(t, "10:00"))
    assert.Equal(t, "11:00", got.String())
}

func TestNextEligibleTimeHighPriorityAddsSlots(t *testing.T) {
    p := emailPolicy(t)

    // Normal priority has nothing between 11:00 and 14:30; high priority
    // synthesizes 12:00 from the 11:00 slot.
    got := p.NextEligibleTime(model.PriorityHigh, at(t, "11:30"))
    assert.Equal(t, "12:00", got.String())
}

func TestNextEligibleTimeSkipsQuietHours(t *testing.T) {
    p := emailPolicy(t)
    // 17:00 from the high-priority echo of 16:00 is fine, but anything at or
    // past 18:00 is quiet. From 16:30 the only surviving candidate is 17:00.
    got := p.NextEligibleTime(model.PriorityHigh, at(t, "16:30"))
    assert.Equal(t, "17:00", got.String())
}

func TestNextEligibleTimeRollsToTomorrow(t *testing.T) {
    p := emailPolicy(t)
    // Past every slot: return the first declared optimal time, read as
    // tomorrow by the caller.
    got := p.NextEligibleTime(model.PriorityNormal, at(t, "17:30"))
    assert.Equal(t, "09:30", got.String())
}

func TestCanSendNowFrequencyCap(t *testing.T) {
    p := emailPolicy(t)
    sent := at(t, "12:00")

    oneHourLater := sent.Add(1 * time.Hour)
    err := p.CanSendNow(&sent, oneHourLater)
    assert.ErrorIs(t, err, appErrors.ErrFrequencyCapped)

    // 25h later lands at 13:00 the next day, outside quiet hours.
    dayLater := sent.Add(25 * time.Hour)
    assert.NoError(t, p.CanSendNow(&sent, dayLater))
}

func TestCanSendNowQuietHours(t *testing.T) {
    p := timing.Policy{
        OptimalTimes: []timing.TimeOfDay{mustTOD(t, "10:00")},
        Quiet:        timing.QuietWindow{Start: mustTOD(t, "22:00"), End: mustTOD(t, "06:00")},
    }

    assert.ErrorIs(t, p.CanSendNow(nil, at(t, "23:00")), appErrors.ErrQuietHours)
    assert.ErrorIs(t, p.CanSendNow(nil, at(t, "00:00")), appErrors.ErrQuietHours)
    assert.ErrorIs(t, p.CanSendNow(nil, at(t, "05:59")), appErrors.ErrQuietHours)
    assert.NoError(t, p.CanSendNow(nil, at(t, "06:01")))
    assert.NoError(t, p.CanSendNow(nil, at(t, "12:00")))
    assert.NoError(t, p.CanSendNow(nil, at(t, "21:59")))
}

func TestCanSendNowChecksCapBeforeQuietHours(t *testing.T) {
    p := emailPolicy(t)
    sent := at(t, "20:00")

    // Both the cap and quiet hours would refuse; the cap short-circuits first.
    err := p.CanSendNow(&sent, sent.Add(2*time.Hour))
    assert.ErrorIs(t, err, appErrors.ErrFrequencyCapped)
}

func TestSetForChannelFallback(t *testing.T) {
    s := timing.Set{model.ChannelEmail: emailPolicy(t)}

    assert.Equal(t, 24*time.Hour, s.ForChannel(model.ChannelEmail).FrequencyCap)
    fallback := s.ForChannel(model.ChannelSMS)
    require.Len(t, fallback.OptimalTimes, 1)
    assert.Equal(t, "09:00", fallback.OptimalTimes[0].String())
}
