// Package events publishes delivery events for external reporting. The
// engine fires one event per send attempt; a publish failure is logged and
// never changes run state.
package events

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/designgaga/outreach-backend/internal/model"
)

// DeliveryEvent describes one send attempt on a run.
type DeliveryEvent struct {
    ID          string        `json:"id"`
    CampaignID  int           `json:"campaign_id"`
    ContactID   int           `json:"contact_id"`
    RunID       int           `json:"run_id"`
    StepRef     string        `json:"step_ref"`
    Channel     model.Channel `json:"channel"`
    Variant     string        `json:"variant,omitempty"`
    Outcome     string        `json:"outcome"`
    Detail      string        `json:"detail,omitempty"`
    AttemptedAt time.Time     `json:"attempted_at"`
}

// NewDeliveryEvent stamps a fresh event ID.
func NewDeliveryEvent() DeliveryEvent {
    return DeliveryEvent{ID: uuid.NewString()}
}

// Publisher pushes delivery events somewhere external consumers can read.
type Publisher interface {
    Publish(ctx context.Context, event DeliveryEvent) error
    Close() error
}

// MemoryPublisher collects events in memory for tests.
type MemoryPublisher struct {
    mu     sync.Mutex
    events []DeliveryEvent
}

func NewMemoryPublisher() *MemoryPublisher {
    return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event DeliveryEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, event)
    return nil
}

func (p *MemoryPublisher) Events() []DeliveryEvent {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]DeliveryEvent, len(p.events))
    copy(out, p.events)
    return out
}

func (p *MemoryPublisher) Close() error { return nil }

var _ Publisher = (*MemoryPublisher)(nil)
