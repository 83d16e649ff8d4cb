// Package condition decides whether a contact currently qualifies for a
// campaign step. Evaluation is pure: no I/O, no clock access beyond the
// caller-supplied now.
package condition

import (
    "time"

    "github.com/designgaga/outreach-backend/internal/model"
)

// NoResponseWindow is how long after a contact's last response the
// no_response condition starts passing again. The window is a fixed policy,
// not a per-step parameter.
const NoResponseWindow = 48 * time.Hour

// Parse converts a raw conditions map into tagged variants. Unrecognized
// keys and malformed values are preserved as unknown conditions, which never
// satisfy: a misconfigured gate blocks contacts instead of waving them past.
func Parse(raw map[string]any) []model.Condition {
    if len(raw) == 0 {
        return nil
    }
    conds := make([]model.Condition, 0, len(raw))
    for key, value := range raw {
        conds = append(conds, parseOne(key, value))
    }
    return conds
}

func parseOne(key string, value any) model.Condition {
    unknown := model.Condition{Kind: model.CondUnknown, Key: key}
    switch key {
    case "score_min":
        v, ok := toFloat(value)
        if !ok {
            return unknown
        }
        return model.Condition{Kind: model.CondScoreMin, Value: v}
    case "no_response":
        if b, ok := value.(bool); !ok || !b {
            return unknown
        }
        return model.Condition{Kind: model.CondNoResponse}
    case "opened_previous":
        if b, ok := value.(bool); !ok || !b {
            return unknown
        }
        return model.Condition{Kind: model.CondOpenedPrevious}
    case "days_inactive":
        v, ok := toFloat(value)
        if !ok || v < 0 {
            return unknown
        }
        return model.Condition{Kind: model.CondDaysInactive, Value: v}
    }
    return unknown
}

func toFloat(v any) (float64, bool) {
    switch n := v.(type) {
    case float64:
        return n, true
    case int:
        return float64(n), true
    case int64:
        return float64(n), true
    }
    return 0, false
}

// Satisfies reports whether the contact meets every condition. An empty set
// always passes. The switch is exhaustive over known kinds; anything else,
// including CondUnknown, fails closed.
func Satisfies(c *model.Contact, conds []model.Condition, now time.Time) bool {
    for _, cond := range conds {
        if !satisfiesOne(c, cond, now) {
            return false
        }
    }
    return true
}

func satisfiesOne(c *model.Contact, cond model.Condition, now time.Time) bool {
    switch cond.Kind {
    case model.CondScoreMin:
        return c.Score >= cond.Value
    case model.CondNoResponse:
        if c.LastResponseAt == nil {
            return true
        }
        return now.Sub(*c.LastResponseAt) >= NoResponseWindow
    case model.CondOpenedPrevious:
        return c.OpenedLastMessage
    case model.CondDaysInactive:
        base := c.FirstSeen
        if c.LastActivityAt != nil && c.LastActivityAt.After(base) {
            base = *c.LastActivityAt
        }
        return now.Sub(base) >= time.Duration(cond.Value)*24*time.Hour
    }
    return false
}
