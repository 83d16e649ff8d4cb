// internal/model/run.go
package model

import "time"

// RunStatus is the lifecycle state of a campaign run. completed and failed
// are terminal: once a run reaches either, nothing mutates it again.
type RunStatus string

const (
    RunActive    RunStatus = "active"
    RunCompleted RunStatus = "completed"
    RunFailed    RunStatus = "failed"
    RunPaused    RunStatus = "paused"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
    return s == RunCompleted || s == RunFailed
}

// Run tracks one contact's position within one campaign. There is exactly
// one per (campaign_id, contact_id) and its current step only ever moves
// forward.
type Run struct {
    ID            int        `db:"id" json:"id"`
    CampaignID    int        `db:"campaign_id" json:"campaign_id"`
    ContactID     int        `db:"contact_id" json:"contact_id"`
    CurrentStep   int        `db:"current_step" json:"current_step"`
    Status        RunStatus  `db:"status" json:"status"`
    BranchPending bool       `db:"branch_pending" json:"branch_pending"`
    EnteredStepAt time.Time  `db:"entered_step_at" json:"entered_step_at"`
    LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
    LastError     string     `db:"last_error" json:"last_error,omitempty"`
    CreatedAt     time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Attempt outcomes recorded in run history.
const (
    OutcomeSent   = "sent"
    OutcomeFailed = "failed"
)

// HistoryEntry is one immutable send attempt on a run. Entries are strictly
// ordered by AttemptedAt within a run.
type HistoryEntry struct {
    ID          int       `db:"id" json:"id"`
    RunID       int       `db:"run_id" json:"run_id"`
    StepRef     string    `db:"step_ref" json:"step_ref"`
    Channel     Channel   `db:"channel" json:"channel"`
    Variant     string    `db:"variant" json:"variant,omitempty"`
    AttemptedAt time.Time `db:"attempted_at" json:"attempted_at"`
    Outcome     string    `db:"outcome" json:"outcome"`
    Detail      string    `db:"detail" json:"detail,omitempty"`
}
