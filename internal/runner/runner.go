// Package runner implements the per-run evaluation cycle: the state machine
// that advances a contact through a campaign's steps, consulting conditions,
// timing, and the rate budget before every dispatch.
package runner

import (
    "context"
    "time"

    "github.com/rs/zerolog"

    "github.com/designgaga/outreach-backend/internal/abtest"
    "github.com/designgaga/outreach-backend/internal/budget"
    "github.com/designgaga/outreach-backend/internal/channel"
    "github.com/designgaga/outreach-backend/internal/condition"
    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/events"
    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/timing"
)

// Outcome classifies what one evaluation cycle did with a run.
type Outcome string

const (
    // OutcomeTerminal means the run was not evaluable: completed, failed,
    // or paused awaiting an operator resume.
    OutcomeTerminal Outcome = "terminal"
    // OutcomeSkipped means step conditions were not met; the run stays put.
    OutcomeSkipped Outcome = "skipped"
    // OutcomeDeferred means timing, delay, or quota pushed the send to a
    // later cycle. Expected backpressure, never an error.
    OutcomeDeferred Outcome = "deferred"
    // OutcomeAdvanced means a branch successor was entered; no send yet.
    OutcomeAdvanced Outcome = "advanced"
    // OutcomeSent means a message went out and the run moved forward.
    OutcomeSent Outcome = "sent"
    // OutcomeCompleted means the send finished the sequence.
    OutcomeCompleted Outcome = "completed"
    // OutcomePaused means a template or transport failure stopped the run.
    OutcomePaused Outcome = "paused"
)

// CycleResult reports one run's evaluation.
type CycleResult struct {
    RunID   int
    Outcome Outcome
    Reason  error
}

// CampaignStore loads validated campaign definitions.
type CampaignStore interface {
    GetDefinition(ctx context.Context, id int) (*model.Definition, error)
}

// RunStore persists run progress. RecordAttempt must write the history
// entry and the run mutation atomically; the run row is the single source
// of truth for resumption.
type RunStore interface {
    Update(ctx context.Context, run *model.Run) error
    RecordAttempt(ctx context.Context, run *model.Run, entry model.HistoryEntry) error
}

// ContactStore reads contacts and writes back per-channel last-contact
// timestamps.
type ContactStore interface {
    GetByID(ctx context.Context, id int) (*model.Contact, error)
    UpdateLastContact(ctx context.Context, contactID int, ch model.Channel, at time.Time) error
}

// Renderer produces the outgoing message body for a step.
type Renderer interface {
    Render(ref string, c *model.Contact, variant string) (string, error)
}

// SequenceRunner evaluates runs. It holds no per-run state of its own; all
// durable state lives in the stores, so a crash between cycles is recovered
// by simply evaluating again.
type SequenceRunner struct {
    Campaigns CampaignStore
    Runs      RunStore
    Contacts  ContactStore
    Budget    budget.Reserver
    Policies  timing.Set
    Assigner  *abtest.Assigner
    Renderer  Renderer
    Sender    channel.Sender
    Events    events.Publisher

    // Now is injectable for tests.
    Now func() time.Time

    logger zerolog.Logger
}

// New wires a SequenceRunner with a component logger and wall clock.
func New(campaigns CampaignStore, runs RunStore, contacts ContactStore,
    reserver budget.Reserver, policies timing.Set, assigner *abtest.Assigner,
    renderer Renderer, sender channel.Sender, publisher events.Publisher) *SequenceRunner {
    return &SequenceRunner{
        Campaigns: campaigns,
        Runs:      runs,
        Contacts:  contacts,
        Budget:    reserver,
        Policies:  policies,
        Assigner:  assigner,
        Renderer:  renderer,
        Sender:    sender,
        Events:    publisher,
        Now:       time.Now,
        logger:    logging.Component("runner"),
    }
}

// EvaluateRun performs one evaluation cycle for a single run. At most one
// send is attempted per call; every deferral reason leaves the run exactly
// where it was, to be reconsidered on the next poll.
func (r *SequenceRunner) EvaluateRun(ctx context.Context, run *model.Run) (CycleResult, error) {
    res := CycleResult{RunID: run.ID}

    // Only active runs are evaluable: completed and failed are sticky, and
    // paused runs wait for an operator resume.
    if run.Status != model.RunActive {
        res.Outcome = OutcomeTerminal
        return res, nil
    }

    def, err := r.Campaigns.GetDefinition(ctx, run.CampaignID)
    if err != nil {
        return res, err
    }
    contact, err := r.Contacts.GetByID(ctx, run.ContactID)
    if err != nil {
        return res, err
    }

    now := r.Now()

    if run.BranchPending {
        return r.selectBranch(ctx, run, def, contact, now)
    }

    step := def.Steps[run.CurrentStep]

    if !condition.Satisfies(contact, step.Conditions, now) {
        r.logger.Debug().Int("run_id", run.ID).Str("step", step.TemplateRef).Msg("conditions not met")
        res.Outcome = OutcomeSkipped
        res.Reason = appErrors.ErrConditionNotMet
        return res, nil
    }

    if elapsed := now.Sub(run.EnteredStepAt); elapsed < time.Duration(step.DelayHours)*time.Hour {
        res.Outcome = OutcomeDeferred
        res.Reason = appErrors.ErrDelayPending
        return res, nil
    }

    policy := r.Policies.ForChannel(step.Channel)
    if err := policy.CanSendNow(contact.LastContactOn(step.Channel), now); err != nil {
        r.logger.Debug().Int("run_id", run.ID).Str("channel", string(step.Channel)).
            AnErr("reason", err).Msg("send window closed")
        res.Outcome = OutcomeDeferred
        res.Reason = err
        return res, nil
    }

    ok, err := r.Budget.TryReserve(ctx, step.Channel, budget.DayKey(now))
    if err != nil {
        return res, err
    }
    if !ok {
        r.logger.Info().Int("run_id", run.ID).Str("channel", string(step.Channel)).
            Msg("daily quota exhausted, deferring")
        res.Outcome = OutcomeDeferred
        res.Reason = appErrors.ErrQuotaExhausted
        return res, nil
    }

    variant := ""
    if step.ABTest != nil {
        variant, err = r.Assigner.Assign(ctx, model.TestID(def.ID, step.TemplateRef), contact.ID, step.ABTest.Variants)
        if err != nil {
            return res, err
        }
    }

    message, err := r.Renderer.Render(step.TemplateRef, contact, variant)
    if err != nil {
        // Configuration defect: pause the run exactly like a send failure.
        return r.pauseRun(ctx, run, def, contact, step, variant, now, err)
    }

    sendRes, sendErr := r.Sender.Send(ctx, step.Channel, contact, message)
    if sendErr != nil {
        terr := &appErrors.TransportError{Channel: string(step.Channel), Reason: sendErr.Error()}
        return r.pauseRun(ctx, run, def, contact, step, variant, now, terr)
    }
    if !sendRes.Success {
        terr := &appErrors.TransportError{Channel: string(step.Channel), Reason: sendRes.Error}
        return r.pauseRun(ctx, run, def, contact, step, variant, now, terr)
    }

    return r.advanceRun(ctx, run, def, contact, step, variant, now)
}

// selectBranch resolves a pending branch point: successors are tried in
// declaration order and the first whose conditions hold is entered. When
// none match the run waits, indefinitely if need be, for an external event
// to change the contact.
func (r *SequenceRunner) selectBranch(ctx context.Context, run *model.Run, def *model.Definition,
    contact *model.Contact, now time.Time) (CycleResult, error) {
    res := CycleResult{RunID: run.ID}

    for _, pos := range def.Successors(run.CurrentStep) {
        cand := def.Steps[pos]
        if !condition.Satisfies(contact, cand.Conditions, now) {
            continue
        }
        run.CurrentStep = pos
        run.BranchPending = false
        run.EnteredStepAt = now
        run.UpdatedAt = now
        if err := r.Runs.Update(ctx, run); err != nil {
            return res, err
        }
        r.logger.Info().Int("run_id", run.ID).Str("step", cand.TemplateRef).Msg("branch successor entered")
        res.Outcome = OutcomeAdvanced
        return res, nil
    }

    res.Outcome = OutcomeDeferred
    res.Reason = appErrors.ErrConditionNotMet
    return res, nil
}

// advanceRun records a successful send and moves the run forward: to the
// sole successor, to a branch wait, or to completion.
func (r *SequenceRunner) advanceRun(ctx context.Context, run *model.Run, def *model.Definition,
    contact *model.Contact, step model.Step, variant string, now time.Time) (CycleResult, error) {
    res := CycleResult{RunID: run.ID}

    entry := model.HistoryEntry{
        RunID:       run.ID,
        StepRef:     step.TemplateRef,
        Channel:     step.Channel,
        Variant:     variant,
        AttemptedAt: now,
        Outcome:     model.OutcomeSent,
    }

    run.LastMessageAt = &now
    run.LastError = ""
    run.UpdatedAt = now

    successors := def.Successors(step.Position)
    switch {
    case len(successors) == 0:
        run.Status = model.RunCompleted
        res.Outcome = OutcomeCompleted
    case len(successors) == 1:
        run.CurrentStep = successors[0]
        run.EnteredStepAt = now
        res.Outcome = OutcomeSent
    default:
        run.BranchPending = true
        run.EnteredStepAt = now
        res.Outcome = OutcomeSent
    }

    if err := r.Runs.RecordAttempt(ctx, run, entry); err != nil {
        return res, err
    }

    if err := r.Contacts.UpdateLastContact(ctx, contact.ID, step.Channel, now); err != nil {
        // The contact store is external; a stale last-contact stamp only
        // risks an earlier-than-ideal next send, so log and move on.
        r.logger.Warn().Err(err).Int("contact_id", contact.ID).Msg("failed to update last contact")
    }

    r.publish(ctx, run, def, step, variant, model.OutcomeSent, "", now)

    r.logger.Info().
        Int("run_id", run.ID).
        Str("step", step.TemplateRef).
        Str("channel", string(step.Channel)).
        Str("outcome", string(res.Outcome)).
        Msg("message sent")
    return res, nil
}

// pauseRun records a failed attempt and parks the run until an operator
// resumes it. The engine never retries on its own.
func (r *SequenceRunner) pauseRun(ctx context.Context, run *model.Run, def *model.Definition,
    contact *model.Contact, step model.Step, variant string, now time.Time, cause error) (CycleResult, error) {
    res := CycleResult{RunID: run.ID, Outcome: OutcomePaused, Reason: cause}

    entry := model.HistoryEntry{
        RunID:       run.ID,
        StepRef:     step.TemplateRef,
        Channel:     step.Channel,
        Variant:     variant,
        AttemptedAt: now,
        Outcome:     model.OutcomeFailed,
        Detail:      cause.Error(),
    }

    run.Status = model.RunPaused
    run.LastError = cause.Error()
    run.UpdatedAt = now

    if err := r.Runs.RecordAttempt(ctx, run, entry); err != nil {
        return res, err
    }

    r.publish(ctx, run, def, step, variant, model.OutcomeFailed, cause.Error(), now)

    r.logger.Warn().
        Err(cause).
        Int("run_id", run.ID).
        Int("contact_id", contact.ID).
        Str("step", step.TemplateRef).
        Msg("run paused after failed send")
    return res, nil
}

func (r *SequenceRunner) publish(ctx context.Context, run *model.Run, def *model.Definition,
    step model.Step, variant, outcome, detail string, now time.Time) {
    if r.Events == nil {
        return
    }
    event := events.NewDeliveryEvent()
    event.CampaignID = def.ID
    event.ContactID = run.ContactID
    event.RunID = run.ID
    event.StepRef = step.TemplateRef
    event.Channel = step.Channel
    event.Variant = variant
    event.Outcome = outcome
    event.Detail = detail
    event.AttemptedAt = now

    if err := r.Events.Publish(ctx, event); err != nil {
        r.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to publish delivery event")
    }
}
