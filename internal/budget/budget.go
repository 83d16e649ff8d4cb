// Package budget enforces the per-channel daily send quota. Reservation is
// an atomic check-and-increment: a send that would exceed the limit is never
// attempted, it is deferred to a later cycle.
package budget

import (
    "context"
    "time"

    "github.com/designgaga/outreach-backend/internal/model"
)

// DayKey scopes counters by calendar date.
func DayKey(t time.Time) string {
    return t.Format("2006-01-02")
}

// Stats is the reporting view of one channel's daily quota.
type Stats struct {
    Channel    model.Channel `json:"channel"`
    DailyLimit int           `json:"daily_limit"`
    SentToday  int           `json:"sent_today"`
    Remaining  int           `json:"remaining"`
}

// Reserver is the quota gate the sequence runner consults before every send.
type Reserver interface {
    // TryReserve atomically consumes one unit of the channel's quota for the
    // given day. It returns false, without mutating anything, when the quota
    // is exhausted.
    TryReserve(ctx context.Context, ch model.Channel, day string) (bool, error)

    // RemainingToday is a read-only view; it must never be used for gating.
    RemainingToday(ctx context.Context, ch model.Channel) (int, error)

    // Stats returns the channel's limit/sent/remaining for reporting.
    Stats(ctx context.Context, ch model.Channel) (Stats, error)
}
