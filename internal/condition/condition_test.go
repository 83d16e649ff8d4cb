package condition_test

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/designgaga/outreach-backend/internal/condition"
    "github.com/designgaga/outreach-backend/internal/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func contact() *model.Contact {
    return &model.Contact{
        ID:        1,
        Email:     "agent@example.com",
        Score:     80,
        FirstSeen: now.Add(-30 * 24 * time.Hour),
    }
}

func TestScoreMin(t *testing.T) {
    c := contact()
    assert.True(t, condition.Satisfies(c, []model.Condition{{Kind: model.CondScoreMin, Value: 70}}, now))
    assert.True(t, condition.Satisfies(c, []model.Condition{{Kind: model.CondScoreMin, Value: 80}}, now))
    assert.False(t, condition.Satisfies(c, []model.Condition{{Kind: model.CondScoreMin, Value: 90}}, now))
}

func TestNoResponseWindow(t *testing.T) {
    conds := []model.Condition{{Kind: model.CondNoResponse}}

    c := contact()
    assert.True(t, condition.Satisfies(c, conds, now), "never responded")

    recent := now.Add(-12 * time.Hour)
    c.LastResponseAt = &recent
    assert.False(t, condition.Satisfies(c, conds, now), "responded within 48h")

    stale := now.Add(-72 * time.Hour)
    c.LastResponseAt = &stale
    assert.True(t, condition.Satisfies(c, conds, now), "response older than 48h")
}

func TestOpenedPrevious(t *testing.T) {
    conds := []model.Condition{{Kind: model.CondOpenedPrevious}}

    c := contact()
    assert.False(t, condition.Satisfies(c, conds, now))
    c.OpenedLastMessage = true
    assert.True(t, condition.Satisfies(c, conds, now))
}

func TestDaysInactive(t *testing.T) {
    conds := []model.Condition{{Kind: model.CondDaysInactive, Value: 7}}

    c := contact()
    assert.True(t, condition.Satisfies(c, conds, now), "no activity since first_seen 30d ago")

    recent := now.Add(-2 * 24 * time.Hour)
    c.LastActivityAt = &recent
    assert.False(t, condition.Satisfies(c, conds, now), "active 2d ago")

    old := now.Add(-10 * 24 * time.Hour)
    c.LastActivityAt = &old
    assert.True(t, condition.Satisfies(c, conds, now), "inactive 10d")
}

// Unknown condition kinds fail closed. This is deliberately stricter than
// ignoring them: a gate nobody implemented must not advance contacts.
func TestUnknownConditionFailsClosed(t *testing.T) {
    c := contact()
    conds := []model.Condition{
        {Kind: model.CondScoreMin, Value: 10},
        {Kind: model.CondUnknown, Key: "vip_only"},
    }
    assert.False(t, condition.Satisfies(c, conds, now))
}

func TestConditionsCombineWithAND(t *testing.T) {
    c := contact()
    c.OpenedLastMessage = true
    conds := []model.Condition{
        {Kind: model.CondScoreMin, Value: 70},
        {Kind: model.CondOpenedPrevious},
    }
    assert.True(t, condition.Satisfies(c, conds, now))

    conds[0].Value = 95
    assert.False(t, condition.Satisfies(c, conds, now))
}

func TestEmptyConditionsAlwaysPass(t *testing.T) {
    assert.True(t, condition.Satisfies(contact(), nil, now))
}

func TestParse(t *testing.T) {
    conds := condition.Parse(map[string]any{
        "score_min":       70.0,
        "no_response":     true,
        "opened_previous": true,
        "days_inactive":   7,
        "vip_only":        true,
    })
    assert.Len(t, conds, 5)

    kinds := map[model.ConditionKind]int{}
    for _, c := range conds {
        kinds[c.Kind]++
    }
    assert.Equal(t, 1, kinds[model.CondScoreMin])
    assert.Equal(t, 1, kinds[model.CondNoResponse])
    assert.Equal(t, 1, kinds[model.CondOpenedPrevious])
    assert.Equal(t, 1, kinds[model.CondDaysInactive])
    assert.Equal(t, 1, kinds[model.CondUnknown])
}

func TestParseMalformedValueBecomesUnknown(t *testing.T) {
    conds := condition.Parse(map[string]any{"score_min": "seventy"})
    assert.Len(t, conds, 1)
    assert.Equal(t, model.CondUnknown, conds[0].Kind)
    assert.False(t, condition.Satisfies(contact(), conds, now))
}
