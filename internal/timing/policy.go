// Package timing holds the pure send-window logic for each channel: optimal
// send slots, quiet hours, and the per-contact frequency cap. Nothing in this
// package performs I/O or blocks.
package timing

import (
    "fmt"
    "sort"
    "time"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
)

// TimeOfDay is minutes since local midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
    var h, m int
    if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
        return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
    }
    if h < 0 || h > 23 || m < 0 || m > 59 {
        return 0, fmt.Errorf("invalid time of day %q", s)
    }
    return TimeOfDay(h*60 + m), nil
}

// At converts a wall-clock instant to its time of day.
func At(t time.Time) TimeOfDay {
    return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
    return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// addHour shifts a slot forward one hour, wrapping past midnight.
func (t TimeOfDay) addHour() TimeOfDay {
    return (t + 60) % (24 * 60)
}

// QuietWindow is a daily no-send window. Start after End means the window
// wraps midnight (e.g. 18:00-08:00).
type QuietWindow struct {
    Start TimeOfDay
    End   TimeOfDay
}

// Contains reports whether t falls inside the quiet window. A zero window
// (Start == End == 0) never matches.
func (w QuietWindow) Contains(t TimeOfDay) bool {
    if w.Start == 0 && w.End == 0 {
        return false
    }
    if w.Start <= w.End {
        return w.Start <= t && t <= w.End
    }
    // Overnight wrap: membership is t >= start OR t <= end.
    return t >= w.Start || t <= w.End
}

// Policy is the static per-channel timing configuration.
type Policy struct {
    OptimalTimes []TimeOfDay
    Quiet        QuietWindow
    FrequencyCap time.Duration
}

// NextEligibleTime plans the next optimal send slot strictly after now.
// High priority doubles slot density by adding a +1h echo of every optimal
// time. If no slot survives today the first declared optimal time is
// returned, to be read as "tomorrow" by the caller.
func (p Policy) NextEligibleTime(priority model.Priority, now time.Time) TimeOfDay {
    candidates := make([]TimeOfDay, 0, len(p.OptimalTimes)*2)
    candidates = append(candidates, p.OptimalTimes...)
    if priority == model.PriorityHigh {
        for _, t := range p.OptimalTimes {
            candidates = append(candidates, t.addHour())
        }
    }
    sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

    current := At(now)
    for _, t := range candidates {
        if t <= current {
            continue
        }
        if p.Quiet.Contains(t) {
            continue
        }
        return t
    }
    return p.OptimalTimes[0]
}

// CanSendNow gates an immediate send attempt: first the frequency cap
// against the contact's last send on this channel, then quiet hours. A nil
// return means the send may proceed; otherwise the sentinel names the reason.
func (p Policy) CanSendNow(lastContact *time.Time, now time.Time) error {
    if lastContact != nil && p.FrequencyCap > 0 {
        if now.Sub(*lastContact) < p.FrequencyCap {
            return appErrors.ErrFrequencyCapped
        }
    }
    if p.Quiet.Contains(At(now)) {
        return appErrors.ErrQuietHours
    }
    return nil
}

// Set maps channels to their timing policies.
type Set map[model.Channel]Policy

// ForChannel returns the channel's policy. Channels without explicit
// configuration get a permissive zero policy with a single 09:00 slot.
func (s Set) ForChannel(ch model.Channel) Policy {
    if p, ok := s[ch]; ok {
        return p
    }
    return Policy{OptimalTimes: []TimeOfDay{9 * 60}}
}
