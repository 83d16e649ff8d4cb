// internal/errors/errors.go
package appErrors

import (
    "errors"
    "fmt"
)

// Expected scheduling outcomes. These never escalate beyond a log line: the
// run simply stays where it is until a later cycle.
var (
    ErrConditionNotMet = errors.New("step conditions not met")
    ErrDelayPending    = errors.New("step delay has not elapsed")
    ErrQuietHours      = errors.New("channel is inside quiet hours")
    ErrFrequencyCapped = errors.New("frequency cap not yet elapsed")
    ErrQuotaExhausted  = errors.New("daily channel quota exhausted")
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
    CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

// ErrRunNotFound is returned when a campaign run does not exist.
type ErrRunNotFound struct {
    RunID int
}

func (e *ErrRunNotFound) Error() string {
    return fmt.Sprintf("campaign run with ID %d not found", e.RunID)
}

func NewRunNotFound(id int) error {
    return &ErrRunNotFound{RunID: id}
}

// ErrContactNotFound is returned when a contact does not exist.
type ErrContactNotFound struct {
    ContactID int
}

func (e *ErrContactNotFound) Error() string {
    return fmt.Sprintf("contact with ID %d not found", e.ContactID)
}

func NewContactNotFound(id int) error {
    return &ErrContactNotFound{ContactID: id}
}

// ValidationError marks a malformed campaign definition. It is raised at
// load time, before any run is created, never mid-sequence.
type ValidationError struct {
    Field  string
    Reason string
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("invalid campaign definition (%s): %s", e.Field, e.Reason)
}

// TemplateError marks a configuration defect in a message template: an
// unknown reference or a placeholder the contact cannot fill. It pauses the
// affected run the same way a send failure does.
type TemplateError struct {
    Ref    string
    Reason string
}

func (e *TemplateError) Error() string {
    return fmt.Sprintf("template %q: %s", e.Ref, e.Reason)
}

// TransportError marks a provider or network failure during dispatch.
type TransportError struct {
    Channel string
    Reason  string
}

func (e *TransportError) Error() string {
    return fmt.Sprintf("send on %s failed: %s", e.Channel, e.Reason)
}
