package repository

import (
    "context"
    "database/sql"
    "time"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
)

type RunRepositoryInterface interface {
    CreateRun(ctx context.Context, campaignID, contactID int) (*model.Run, error)
    GetByID(ctx context.Context, id int) (*model.Run, error)
    ListActive(ctx context.Context) ([]*model.Run, error)
    ListByCampaign(ctx context.Context, campaignID int) ([]*model.Run, error)
    Update(ctx context.Context, run *model.Run) error
    RecordAttempt(ctx context.Context, run *model.Run, entry model.HistoryEntry) error
    UpdateStatus(ctx context.Context, id int, status model.RunStatus) error
    History(ctx context.Context, runID int) ([]model.HistoryEntry, error)
    StatusCounts(ctx context.Context, campaignID int) (map[string]int, error)
}

type RunRepository struct {
    DB *sql.DB
}

const runColumns = `id, campaign_id, contact_id, current_step, status,
    branch_pending, entered_step_at, last_message_at, last_error,
    created_at, updated_at`

// CreateRun enrolls a contact. Idempotent: the (campaign_id, contact_id)
// pair is unique, and re-enrolling returns the existing run untouched.
func (r *RunRepository) CreateRun(ctx context.Context, campaignID, contactID int) (*model.Run, error) {
    now := time.Now()
    query := `
        INSERT INTO campaign_runs
            (campaign_id, contact_id, current_step, status, branch_pending,
             entered_step_at, created_at, updated_at)
        VALUES ($1, $2, 0, 'active', FALSE, $3, $3, $3)
        ON CONFLICT (campaign_id, contact_id) DO NOTHING
    `
    if _, err := r.DB.ExecContext(ctx, query, campaignID, contactID, now); err != nil {
        return nil, err
    }

    return r.getByPair(ctx, campaignID, contactID)
}

func (r *RunRepository) getByPair(ctx context.Context, campaignID, contactID int) (*model.Run, error) {
    query := `SELECT ` + runColumns + ` FROM campaign_runs WHERE campaign_id=$1 AND contact_id=$2`
    return r.scanRun(r.DB.QueryRowContext(ctx, query, campaignID, contactID))
}

func (r *RunRepository) GetByID(ctx context.Context, id int) (*model.Run, error) {
    query := `SELECT ` + runColumns + ` FROM campaign_runs WHERE id=$1`
    run, err := r.scanRun(r.DB.QueryRowContext(ctx, query, id))
    if err == sql.ErrNoRows {
        return nil, appErrors.NewRunNotFound(id)
    }
    return run, err
}

// ListActive returns the runs the scheduler evaluates each cycle. Paused
// and terminal runs never appear here.
func (r *RunRepository) ListActive(ctx context.Context) ([]*model.Run, error) {
    query := `SELECT ` + runColumns + ` FROM campaign_runs WHERE status='active' ORDER BY id`
    return r.queryRuns(ctx, query)
}

func (r *RunRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*model.Run, error) {
    query := `SELECT ` + runColumns + ` FROM campaign_runs WHERE campaign_id=$1 ORDER BY id`
    return r.queryRuns(ctx, query, campaignID)
}

func (r *RunRepository) Update(ctx context.Context, run *model.Run) error {
    query := `
        UPDATE campaign_runs
        SET current_step=$1, status=$2, branch_pending=$3, entered_step_at=$4,
            last_message_at=$5, last_error=$6, updated_at=$7
        WHERE id=$8
    `
    _, err := r.DB.ExecContext(ctx, query,
        run.CurrentStep, run.Status, run.BranchPending, run.EnteredStepAt,
        run.LastMessageAt, run.LastError, run.UpdatedAt, run.ID,
    )
    return err
}

// RecordAttempt writes the history entry and the run mutation in one
// transaction. A crash cannot leave a send recorded without the run moved,
// or the run moved without its history row.
func (r *RunRepository) RecordAttempt(ctx context.Context, run *model.Run, entry model.HistoryEntry) error {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer tx.Rollback()

    historyQuery := `
        INSERT INTO run_history (run_id, step_ref, channel, variant, attempted_at, outcome, detail)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
    if err := tx.QueryRowContext(ctx, historyQuery,
        entry.RunID, entry.StepRef, entry.Channel, entry.Variant,
        entry.AttemptedAt, entry.Outcome, entry.Detail,
    ).Scan(&entry.ID); err != nil {
        return err
    }

    runQuery := `
        UPDATE campaign_runs
        SET current_step=$1, status=$2, branch_pending=$3, entered_step_at=$4,
            last_message_at=$5, last_error=$6, updated_at=$7
        WHERE id=$8
    `
    if _, err := tx.ExecContext(ctx, runQuery,
        run.CurrentStep, run.Status, run.BranchPending, run.EnteredStepAt,
        run.LastMessageAt, run.LastError, run.UpdatedAt, run.ID,
    ); err != nil {
        return err
    }

    return tx.Commit()
}

// UpdateStatus transitions a run, refusing to touch terminal runs. Used by
// operator resume and cancel.
func (r *RunRepository) UpdateStatus(ctx context.Context, id int, status model.RunStatus) error {
    query := `
        UPDATE campaign_runs
        SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status NOT IN ('completed', 'failed')
    `
    res, err := r.DB.ExecContext(ctx, query, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return appErrors.NewRunNotFound(id)
    }
    return nil
}

func (r *RunRepository) History(ctx context.Context, runID int) ([]model.HistoryEntry, error) {
    query := `
        SELECT id, run_id, step_ref, channel, variant, attempted_at, outcome, detail
        FROM run_history
        WHERE run_id=$1
        ORDER BY attempted_at, id
    `
    rows, err := r.DB.QueryContext(ctx, query, runID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    entries := []model.HistoryEntry{}
    for rows.Next() {
        var e model.HistoryEntry
        if err := rows.Scan(
            &e.ID, &e.RunID, &e.StepRef, &e.Channel, &e.Variant,
            &e.AttemptedAt, &e.Outcome, &e.Detail,
        ); err != nil {
            return nil, err
        }
        entries = append(entries, e)
    }
    return entries, rows.Err()
}

func (r *RunRepository) StatusCounts(ctx context.Context, campaignID int) (map[string]int, error) {
    query := `SELECT status, COUNT(*) FROM campaign_runs WHERE campaign_id=$1 GROUP BY status`
    rows, err := r.DB.QueryContext(ctx, query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    counts := map[string]int{"active": 0, "completed": 0, "failed": 0, "paused": 0}
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        counts[status] = count
    }
    return counts, rows.Err()
}

func (r *RunRepository) scanRun(row *sql.Row) (*model.Run, error) {
    var run model.Run
    err := row.Scan(
        &run.ID, &run.CampaignID, &run.ContactID, &run.CurrentStep, &run.Status,
        &run.BranchPending, &run.EnteredStepAt, &run.LastMessageAt, &run.LastError,
        &run.CreatedAt, &run.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &run, nil
}

func (r *RunRepository) queryRuns(ctx context.Context, query string, args ...interface{}) ([]*model.Run, error) {
    rows, err := r.DB.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    runs := []*model.Run{}
    for rows.Next() {
        var run model.Run
        if err := rows.Scan(
            &run.ID, &run.CampaignID, &run.ContactID, &run.CurrentStep, &run.Status,
            &run.BranchPending, &run.EnteredStepAt, &run.LastMessageAt, &run.LastError,
            &run.CreatedAt, &run.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        runs = append(runs, &run)
    }
    return runs, rows.Err()
}

var _ RunRepositoryInterface = (*RunRepository)(nil)
