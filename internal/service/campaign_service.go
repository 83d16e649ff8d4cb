// internal/service/campaign_service.go
package service

import (
    "context"
    "fmt"
    "time"

    "github.com/designgaga/outreach-backend/internal/abtest"
    "github.com/designgaga/outreach-backend/internal/budget"
    "github.com/designgaga/outreach-backend/internal/condition"
    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/repository"
    "github.com/designgaga/outreach-backend/internal/template"
    "github.com/designgaga/outreach-backend/internal/timing"
)

type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    RunRepo      repository.RunRepositoryInterface
    ContactRepo  repository.ContactRepositoryInterface
    Budget       budget.Reserver
    Assigner     *abtest.Assigner
    Templates    *template.Registry
    Policies     timing.Set
}

// StepInput is one step of a campaign definition as submitted over the API.
type StepInput struct {
    TemplateRef string         `json:"template_ref"`
    Channel     string         `json:"channel"`
    DelayHours  int            `json:"delay_hours"`
    Conditions  map[string]any `json:"conditions,omitempty"`
    ABTest      *ABTestInput   `json:"ab_test,omitempty"`
    NextSteps   []string       `json:"next_steps,omitempty"`
}

type ABTestInput struct {
    Variants      []string `json:"variants"`
    SuccessMetric string   `json:"success_metric"`
}

type CreateCampaignInput struct {
    Name       string      `json:"name"`
    Priority   string      `json:"priority"`
    Steps      []StepInput `json:"steps"`
    ContactIDs []int       `json:"contact_ids,omitempty"`
}

// EnrollResult reports how many runs an enrollment produced versus reused.
type EnrollResult struct {
    CampaignID int   `json:"campaign_id"`
    Enrolled   int   `json:"enrolled"`
    RunIDs     []int `json:"run_ids"`
}

type CampaignDetails struct {
    ID        int            `json:"id"`
    Name      string         `json:"name"`
    Priority  model.Priority `json:"priority"`
    Status    string         `json:"status"`
    Steps     []model.Step   `json:"steps"`
    CreatedAt time.Time      `json:"created_at"`
    UpdatedAt *time.Time     `json:"updated_at,omitempty"`
    RunStats  map[string]int `json:"run_stats"`
}

// CreateCampaign validates and persists a definition, then enrolls any
// requested contacts. Validation is all-or-nothing: a campaign that refers
// to a missing template or has a malformed graph never reaches the database.
func (s *CampaignService) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*model.Definition, *EnrollResult, error) {
    steps := make([]model.Step, 0, len(input.Steps))
    for _, in := range input.Steps {
        conds := condition.Parse(in.Conditions)
        for _, c := range conds {
            if c.Kind == model.CondUnknown {
                return nil, nil, &appErrors.ValidationError{
                    Field:  "conditions",
                    Reason: fmt.Sprintf("step %q has unsupported condition %q", in.TemplateRef, c.Key),
                }
            }
        }

        step := model.Step{
            TemplateRef: in.TemplateRef,
            Channel:     model.Channel(in.Channel),
            DelayHours:  in.DelayHours,
            Conditions:  conds,
            NextRefs:    in.NextSteps,
        }
        if in.ABTest != nil {
            step.ABTest = &model.ABTest{
                Variants:      in.ABTest.Variants,
                SuccessMetric: in.ABTest.SuccessMetric,
            }
        }
        steps = append(steps, step)
    }

    def, err := model.NewDefinition(model.Campaign{
        Name:     input.Name,
        Priority: model.Priority(input.Priority),
    }, steps)
    if err != nil {
        return nil, nil, err
    }

    // Fail fast on dangling template references rather than pausing runs
    // one by one at send time.
    for _, step := range def.Steps {
        if !s.Templates.Has(step.TemplateRef) {
            return nil, nil, &appErrors.ValidationError{
                Field:  "template_ref",
                Reason: fmt.Sprintf("unknown template %q", step.TemplateRef),
            }
        }
    }

    if err := s.CampaignRepo.Create(ctx, def); err != nil {
        return nil, nil, err
    }

    var enrolled *EnrollResult
    if len(input.ContactIDs) > 0 {
        enrolled, err = s.Enroll(ctx, def.Campaign.ID, input.ContactIDs)
        if err != nil {
            return def, nil, err
        }
    }
    return def, enrolled, nil
}

// Enroll creates one run per contact. Passing no contact IDs enrolls every
// known contact. Re-enrolling a contact is a no-op: the existing run keeps
// its position.
func (s *CampaignService) Enroll(ctx context.Context, campaignID int, contactIDs []int) (*EnrollResult, error) {
    if _, err := s.CampaignRepo.GetDefinition(ctx, campaignID); err != nil {
        return nil, err
    }

    if len(contactIDs) == 0 {
        contacts, err := s.ContactRepo.ListAll(ctx)
        if err != nil {
            return nil, err
        }
        for _, c := range contacts {
            contactIDs = append(contactIDs, c.ID)
        }
    }

    result := &EnrollResult{CampaignID: campaignID, RunIDs: []int{}}
    logger := logging.Component("service")

    for _, contactID := range contactIDs {
        if _, err := s.ContactRepo.GetByID(ctx, contactID); err != nil {
            logger.Warn().Err(err).Int("contact_id", contactID).Msg("skipping enrollment")
            continue
        }
        run, err := s.RunRepo.CreateRun(ctx, campaignID, contactID)
        if err != nil {
            return result, err
        }
        result.RunIDs = append(result.RunIDs, run.ID)
        result.Enrolled++
    }
    return result, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.Campaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return campaigns, pagination, nil
}

// GetCampaignDetails returns the full definition plus run counts by status.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, campaignID int) (*CampaignDetails, error) {
    def, err := s.CampaignRepo.GetDefinition(ctx, campaignID)
    if err != nil {
        return nil, err
    }

    stats, err := s.RunRepo.StatusCounts(ctx, campaignID)
    if err != nil {
        return nil, err
    }

    return &CampaignDetails{
        ID:        def.Campaign.ID,
        Name:      def.Name,
        Priority:  def.Priority,
        Status:    def.Status,
        Steps:     def.Steps,
        CreatedAt: def.CreatedAt,
        UpdatedAt: def.UpdatedAt,
        RunStats:  stats,
    }, nil
}

func (s *CampaignService) CampaignRuns(ctx context.Context, campaignID int) ([]*model.Run, error) {
    if _, err := s.CampaignRepo.GetDefinition(ctx, campaignID); err != nil {
        return nil, err
    }
    return s.RunRepo.ListByCampaign(ctx, campaignID)
}

func (s *CampaignService) RunHistory(ctx context.Context, runID int) ([]model.HistoryEntry, error) {
    if _, err := s.RunRepo.GetByID(ctx, runID); err != nil {
        return nil, err
    }
    return s.RunRepo.History(ctx, runID)
}

// ResumeRun puts a paused run back in the scheduler's reach. The run
// resumes at the step whose send failed, not after it.
func (s *CampaignService) ResumeRun(ctx context.Context, runID int) (*model.Run, error) {
    run, err := s.RunRepo.GetByID(ctx, runID)
    if err != nil {
        return nil, err
    }
    if run.Status != model.RunPaused {
        return nil, fmt.Errorf("run %d cannot be resumed from status %q", runID, run.Status)
    }
    if err := s.RunRepo.UpdateStatus(ctx, runID, model.RunActive); err != nil {
        return nil, err
    }
    return s.RunRepo.GetByID(ctx, runID)
}

// CancelRun marks a run failed. Terminal runs stay as they are.
func (s *CampaignService) CancelRun(ctx context.Context, runID int) (*model.Run, error) {
    run, err := s.RunRepo.GetByID(ctx, runID)
    if err != nil {
        return nil, err
    }
    if run.Status.Terminal() {
        return nil, fmt.Errorf("run %d is already %s", runID, run.Status)
    }
    if err := s.RunRepo.UpdateStatus(ctx, runID, model.RunFailed); err != nil {
        return nil, err
    }
    return s.RunRepo.GetByID(ctx, runID)
}

// ChannelStats is the operator-facing quota report for one channel, with the
// next planned send slot when a timing policy is configured.
type ChannelStats struct {
    budget.Stats
    NextOptimalSlot string `json:"next_optimal_slot,omitempty"`
}

// ChannelStats reports today's quota consumption for one channel.
func (s *CampaignService) ChannelStats(ctx context.Context, ch model.Channel) (ChannelStats, error) {
    if !ch.Valid() {
        return ChannelStats{}, &appErrors.ValidationError{Field: "channel", Reason: fmt.Sprintf("unknown channel %q", ch)}
    }
    quota, err := s.Budget.Stats(ctx, ch)
    if err != nil {
        return ChannelStats{}, err
    }
    stats := ChannelStats{Stats: quota}
    if policy, ok := s.Policies[ch]; ok && len(policy.OptimalTimes) > 0 {
        stats.NextOptimalSlot = policy.NextEligibleTime(model.PriorityNormal, time.Now()).String()
    }
    return stats, nil
}

// EngagementInput is an externally observed open or response, optionally
// credited to an A/B test as an outcome.
type EngagementInput struct {
    Opened    bool   `json:"opened"`
    Responded bool   `json:"responded"`
    TestID    string `json:"test_id,omitempty"`
}

// RecordEngagement writes the signal onto the contact so branch conditions
// can see it. When a test ID is supplied the response also counts as that
// test's outcome.
func (s *CampaignService) RecordEngagement(ctx context.Context, contactID int, input EngagementInput) error {
    now := time.Now()
    if err := s.ContactRepo.RecordEngagement(ctx, contactID, input.Opened, input.Responded, now); err != nil {
        return err
    }
    if input.TestID != "" {
        return s.Assigner.RecordOutcome(ctx, input.TestID, contactID, input.Responded)
    }
    return nil
}

// ABTestResults reports per-variant assignment and success counts for one
// step's test.
func (s *CampaignService) ABTestResults(ctx context.Context, campaignID int, stepRef string) ([]abtest.VariantStats, error) {
    def, err := s.CampaignRepo.GetDefinition(ctx, campaignID)
    if err != nil {
        return nil, err
    }
    pos := def.StepByRef(stepRef)
    if pos < 0 || def.Steps[pos].ABTest == nil {
        return nil, &appErrors.ValidationError{Field: "step_ref", Reason: fmt.Sprintf("step %q has no test", stepRef)}
    }
    return s.Assigner.Results(ctx, model.TestID(def.Campaign.ID, stepRef))
}
