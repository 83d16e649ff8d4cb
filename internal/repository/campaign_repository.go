package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/lib/pq"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
    Create(ctx context.Context, def *model.Definition) error
    GetDefinition(ctx context.Context, id int) (*model.Definition, error)
    ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
    UpdateStatus(ctx context.Context, campaignID int, status string) error
}

type CampaignRepository struct {
    DB *sql.DB
}

// Create persists a validated definition: the campaign row plus all step
// rows in one transaction, so a campaign is never visible half-written.
func (r *CampaignRepository) Create(ctx context.Context, def *model.Definition) error {
    def.CreatedAt = time.Now()
    if def.Status == "" {
        def.Status = "active"
    }

    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer tx.Rollback()

    query := `
        INSERT INTO campaigns (name, priority, status, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
    if err := tx.QueryRowContext(ctx, query,
        def.Name, def.Priority, def.Status, def.CreatedAt,
    ).Scan(&def.Campaign.ID); err != nil {
        return err
    }

    stepQuery := `
        INSERT INTO campaign_steps
            (campaign_id, position, template_ref, channel, delay_hours,
             conditions, ab_variants, ab_success_metric, next_refs)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
    for i := range def.Steps {
        step := &def.Steps[i]
        step.CampaignID = def.Campaign.ID

        conditions, err := json.Marshal(step.Conditions)
        if err != nil {
            return err
        }

        var variants []string
        var metric string
        if step.ABTest != nil {
            variants = step.ABTest.Variants
            metric = step.ABTest.SuccessMetric
        }

        if err := tx.QueryRowContext(ctx, stepQuery,
            step.CampaignID, step.Position, step.TemplateRef, step.Channel,
            step.DelayHours, conditions, pq.Array(variants), metric,
            pq.Array(step.NextRefs),
        ).Scan(&step.ID); err != nil {
            return err
        }
    }

    return tx.Commit()
}

// GetDefinition loads a campaign with its steps and revalidates the shape.
// A definition that fails validation on the way out of the database is a
// corrupt row, not a user error, so the ValidationError is surfaced as-is.
func (r *CampaignRepository) GetDefinition(ctx context.Context, id int) (*model.Definition, error) {
    query := `
        SELECT id, name, priority, status, created_at, updated_at
        FROM campaigns WHERE id = $1
    `
    var c model.Campaign
    err := r.DB.QueryRowContext(ctx, query, id).Scan(
        &c.ID, &c.Name, &c.Priority, &c.Status, &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }

    steps, err := r.loadSteps(ctx, id)
    if err != nil {
        return nil, err
    }
    return model.NewDefinition(c, steps)
}

func (r *CampaignRepository) loadSteps(ctx context.Context, campaignID int) ([]model.Step, error) {
    query := `
        SELECT id, campaign_id, position, template_ref, channel, delay_hours,
               conditions, ab_variants, ab_success_metric, next_refs
        FROM campaign_steps
        WHERE campaign_id = $1
        ORDER BY position
    `
    rows, err := r.DB.QueryContext(ctx, query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    steps := []model.Step{}
    for rows.Next() {
        var s model.Step
        var conditions []byte
        var variants pq.StringArray
        var metric string
        var nextRefs pq.StringArray

        if err := rows.Scan(
            &s.ID, &s.CampaignID, &s.Position, &s.TemplateRef, &s.Channel,
            &s.DelayHours, &conditions, &variants, &metric, &nextRefs,
        ); err != nil {
            return nil, err
        }

        if len(conditions) > 0 {
            if err := json.Unmarshal(conditions, &s.Conditions); err != nil {
                return nil, err
            }
        }
        if len(variants) > 0 {
            s.ABTest = &model.ABTest{Variants: variants, SuccessMetric: metric}
        }
        s.NextRefs = nextRefs

        steps = append(steps, s)
    }
    return steps, rows.Err()
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
    campaigns := []*model.Campaign{}
    query := `SELECT id, name, priority, status, created_at, updated_at FROM campaigns WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        c := &model.Campaign{}
        if err := rows.Scan(&c.ID, &c.Name, &c.Priority, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, 0, err
        }
        campaigns = append(campaigns, c)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }

    countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
    argsCount := []interface{}{}
    if status != "" {
        countQuery += " AND status=$1"
        argsCount = append(argsCount, status)
    }

    var total int
    if err := r.DB.QueryRowContext(ctx, countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status string) error {
    query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
    _, err := r.DB.ExecContext(ctx, query, status, time.Now(), campaignID)
    return err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
