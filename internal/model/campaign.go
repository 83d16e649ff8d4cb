// internal/model/campaign.go
package model

import (
    "fmt"
    "time"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
)

// Channel is an outreach channel a step can send on.
type Channel string

const (
    ChannelEmail    Channel = "email"
    ChannelSMS      Channel = "sms"
    ChannelWhatsApp Channel = "whatsapp"
)

// Valid reports whether the channel is one the engine can dispatch to.
func (c Channel) Valid() bool {
    switch c {
    case ChannelEmail, ChannelSMS, ChannelWhatsApp:
        return true
    }
    return false
}

// Priority affects how many candidate send slots the timing policy offers.
type Priority string

const (
    PriorityNormal Priority = "normal"
    PriorityHigh   Priority = "high"
)

// ConditionKind tags one variant of a step condition. Kinds not listed here
// never satisfy, so a typo'd or not-yet-implemented condition key blocks the
// step instead of silently letting contacts through.
type ConditionKind string

const (
    CondScoreMin       ConditionKind = "score_min"
    CondNoResponse     ConditionKind = "no_response"
    CondOpenedPrevious ConditionKind = "opened_previous"
    CondDaysInactive   ConditionKind = "days_inactive"
    CondUnknown        ConditionKind = "unknown"
)

// Condition is one gate on a step. Value carries the threshold for
// score_min and the day count for days_inactive; Key preserves the original
// config key when Kind is unknown.
type Condition struct {
    Kind  ConditionKind `json:"kind"`
    Value float64       `json:"value,omitempty"`
    Key   string        `json:"key,omitempty"`
}

// ABTest declares an A/B split on a step.
type ABTest struct {
    Variants      []string `json:"variants"`
    SuccessMetric string   `json:"success_metric"`
}

// TestID returns the persisted identifier for a step's A/B test. Scoping by
// campaign keeps assignments from leaking between experiments that reuse a
// template name.
func TestID(campaignID int, templateRef string) string {
    return fmt.Sprintf("%d_%s", campaignID, templateRef)
}

// Campaign is the campaign header row.
type Campaign struct {
    ID        int        `db:"id" json:"id"`
    Name      string     `db:"name" json:"name"`
    Priority  Priority   `db:"priority" json:"priority"`
    Status    string     `db:"status" json:"status"`
    CreatedAt time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Step is one node in a campaign's sequence graph.
type Step struct {
    ID          int         `db:"id" json:"id"`
    CampaignID  int         `db:"campaign_id" json:"campaign_id"`
    Position    int         `db:"position" json:"position"`
    TemplateRef string      `db:"template_ref" json:"template_ref"`
    Channel     Channel     `db:"channel" json:"channel"`
    DelayHours  int         `db:"delay_hours" json:"delay_hours"`
    Conditions  []Condition `json:"conditions,omitempty"`
    ABTest      *ABTest     `json:"ab_test,omitempty"`

    // NextRefs lists successor steps by template_ref, in declaration order.
    // Empty means the sequence completes after this step.
    NextRefs []string `json:"next_steps,omitempty"`
}

// Definition is an immutable, validated campaign: the header, the ordered
// steps, and the successor edges resolved to step positions.
type Definition struct {
    Campaign
    Steps []Step

    byRef map[string]int
    edges [][]int
}

// StepByRef resolves a template_ref to its position, or -1.
func (d *Definition) StepByRef(ref string) int {
    pos, ok := d.byRef[ref]
    if !ok {
        return -1
    }
    return pos
}

// Successors returns the positions of the step's successors in declaration
// order. The returned slice must not be mutated.
func (d *Definition) Successors(pos int) []int {
    if pos < 0 || pos >= len(d.edges) {
        return nil
    }
    return d.edges[pos]
}

// NewDefinition validates the campaign shape and resolves next_steps into an
// adjacency structure. Edges must point at later positions, which is what
// makes run progress provably monotonic: a validated definition cannot
// contain a cycle.
func NewDefinition(c Campaign, steps []Step) (*Definition, error) {
    if c.Name == "" {
        return nil, &appErrors.ValidationError{Field: "name", Reason: "campaign name is required"}
    }
    if c.Priority == "" {
        c.Priority = PriorityNormal
    }
    if c.Priority != PriorityNormal && c.Priority != PriorityHigh {
        return nil, &appErrors.ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", c.Priority)}
    }
    if len(steps) == 0 {
        return nil, &appErrors.ValidationError{Field: "steps", Reason: "campaign needs at least one step"}
    }

    byRef := make(map[string]int, len(steps))
    for i, s := range steps {
        if s.TemplateRef == "" {
            return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("step %d has no template_ref", i)}
        }
        if _, dup := byRef[s.TemplateRef]; dup {
            return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("duplicate template_ref %q", s.TemplateRef)}
        }
        if !s.Channel.Valid() {
            return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("step %q: unsupported channel %q", s.TemplateRef, s.Channel)}
        }
        if s.DelayHours < 0 {
            return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("step %q: delay_hours must be >= 0", s.TemplateRef)}
        }
        if s.ABTest != nil && len(s.ABTest.Variants) < 2 {
            return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("step %q: ab_test needs at least two variants", s.TemplateRef)}
        }
        byRef[s.TemplateRef] = i
    }

    edges := make([][]int, len(steps))
    for i, s := range steps {
        for _, ref := range s.NextRefs {
            target, ok := byRef[ref]
            if !ok {
                return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("step %q: next step %q does not exist", s.TemplateRef, ref)}
            }
            if target <= i {
                return nil, &appErrors.ValidationError{Field: "steps", Reason: fmt.Sprintf("step %q: next step %q would move the sequence backwards", s.TemplateRef, ref)}
            }
            edges[i] = append(edges[i], target)
        }
    }

    for i := range steps {
        steps[i].CampaignID = c.ID
        steps[i].Position = i
    }

    return &Definition{Campaign: c, Steps: steps, byRef: byRef, edges: edges}, nil
}
