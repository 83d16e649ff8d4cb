package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/designgaga/outreach-backend/internal/budget"
    "github.com/designgaga/outreach-backend/internal/model"
)

// BudgetRepository enforces per-channel daily quotas on a shared counter
// table. All instances of the engine race on the same row, so the
// check-and-increment has to happen inside a single statement.
type BudgetRepository struct {
    DB     *sql.DB
    Limits map[model.Channel]int
}

// TryReserve consumes one unit of today's quota. The conditional upsert
// either increments under the limit and returns the new count, or matches
// no row, which is the exhausted signal.
func (r *BudgetRepository) TryReserve(ctx context.Context, ch model.Channel, day string) (bool, error) {
    limit := r.Limits[ch]
    if limit <= 0 {
        // Uncapped channels still count sends so stats stay meaningful.
        query := `
            INSERT INTO channel_budgets (channel, day, consumed)
            VALUES ($1, $2, 1)
            ON CONFLICT (channel, day) DO UPDATE
            SET consumed = channel_budgets.consumed + 1
        `
        _, err := r.DB.ExecContext(ctx, query, ch, day)
        return err == nil, err
    }

    query := `
        INSERT INTO channel_budgets (channel, day, consumed)
        VALUES ($1, $2, 1)
        ON CONFLICT (channel, day) DO UPDATE
        SET consumed = channel_budgets.consumed + 1
        WHERE channel_budgets.consumed < $3
        RETURNING consumed
    `
    var consumed int
    err := r.DB.QueryRowContext(ctx, query, ch, day, limit).Scan(&consumed)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

func (r *BudgetRepository) RemainingToday(ctx context.Context, ch model.Channel) (int, error) {
    stats, err := r.Stats(ctx, ch)
    if err != nil {
        return 0, err
    }
    return stats.Remaining, nil
}

func (r *BudgetRepository) Stats(ctx context.Context, ch model.Channel) (budget.Stats, error) {
    stats := budget.Stats{Channel: ch, DailyLimit: r.Limits[ch]}

    var consumed int
    err := r.DB.QueryRowContext(ctx,
        `SELECT consumed FROM channel_budgets WHERE channel=$1 AND day=$2`,
        ch, budget.DayKey(time.Now()),
    ).Scan(&consumed)
    if err != nil && err != sql.ErrNoRows {
        return stats, err
    }

    stats.SentToday = consumed
    if stats.DailyLimit > 0 {
        stats.Remaining = stats.DailyLimit - consumed
        if stats.Remaining < 0 {
            stats.Remaining = 0
        }
    }
    return stats, nil
}

var _ budget.Reserver = (*BudgetRepository)(nil)
