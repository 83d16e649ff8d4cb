// Package channel defines the outbound dispatch contract. Real provider
// adapters (email/SMS/WhatsApp APIs) live outside this repo; this package
// supplies the interface plus the mock and logging senders used in
// development and tests.
package channel

import (
    "context"
    "math/rand"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/model"
)

// Result is the provider's answer to a dispatch. Ordinary delivery failures
// (provider rate limit, invalid number) come back as Success=false; the
// error return is reserved for transport-level trouble such as timeouts.
type Result struct {
    Success           bool
    ProviderMessageID string
    Error             string
}

// Sender dispatches one rendered message on a channel. Implementations must
// honor ctx cancellation; the scheduler bounds every dispatch with a timeout.
type Sender interface {
    Send(ctx context.Context, ch model.Channel, contact *model.Contact, message string) (Result, error)
}

// MockSender simulates a provider with a configurable success rate.
type MockSender struct {
    SuccessRate float64

    mu  sync.Mutex
    rng *rand.Rand
}

// NewMockSender returns a sender succeeding at the given rate (0..1).
func NewMockSender(successRate float64) *MockSender {
    return &MockSender{
        SuccessRate: successRate,
        rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
    }
}

func (s *MockSender) Send(ctx context.Context, ch model.Channel, contact *model.Contact, message string) (Result, error) {
    if err := ctx.Err(); err != nil {
        return Result{}, err
    }

    s.mu.Lock()
    roll := s.rng.Float64()
    s.mu.Unlock()

    if roll < s.SuccessRate {
        return Result{Success: true, ProviderMessageID: mockMessageID(ch)}, nil
    }
    return Result{Success: false, Error: "mock provider refused delivery"}, nil
}

func mockMessageID(ch model.Channel) string {
    return string(ch) + "-" + time.Now().UTC().Format("20060102150405.000000000")
}

// LogSender logs every dispatch and reports success. Useful for dry runs.
type LogSender struct {
    logger zerolog.Logger
}

func NewLogSender() *LogSender {
    return &LogSender{logger: logging.Component("sender")}
}

func (s *LogSender) Send(ctx context.Context, ch model.Channel, contact *model.Contact, message string) (Result, error) {
    if err := ctx.Err(); err != nil {
        return Result{}, err
    }
    s.logger.Info().
        Str("channel", string(ch)).
        Int("contact_id", contact.ID).
        Int("length", len(message)).
        Msg("dry-run send")
    return Result{Success: true, ProviderMessageID: mockMessageID(ch)}, nil
}
