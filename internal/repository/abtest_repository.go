package repository

import (
    "context"
    "database/sql"

    "github.com/designgaga/outreach-backend/internal/abtest"
)

// ABTestRepository backs the variant assigner with durable rows. An
// assignment, once written, is never replaced; outcomes are append-only.
type ABTestRepository struct {
    DB *sql.DB
}

func (r *ABTestRepository) GetAssignment(ctx context.Context, testID string, contactID int) (string, error) {
    var variant string
    err := r.DB.QueryRowContext(ctx,
        `SELECT variant FROM ab_assignments WHERE test_id=$1 AND contact_id=$2`,
        testID, contactID,
    ).Scan(&variant)
    if err == sql.ErrNoRows {
        return "", nil
    }
    if err != nil {
        return "", err
    }
    return variant, nil
}

// PutAssignment inserts the variant unless a concurrent writer beat us to
// the pair, in which case the earlier variant is read back and wins.
func (r *ABTestRepository) PutAssignment(ctx context.Context, testID string, contactID int, variant string) (string, error) {
    query := `
        INSERT INTO ab_assignments (test_id, contact_id, variant)
        VALUES ($1, $2, $3)
        ON CONFLICT (test_id, contact_id) DO NOTHING
    `
    if _, err := r.DB.ExecContext(ctx, query, testID, contactID, variant); err != nil {
        return "", err
    }
    return r.GetAssignment(ctx, testID, contactID)
}

func (r *ABTestRepository) AppendOutcome(ctx context.Context, testID string, contactID int, succeeded bool) error {
    query := `
        INSERT INTO ab_outcomes (test_id, contact_id, succeeded, recorded_at)
        VALUES ($1, $2, $3, NOW())
    `
    _, err := r.DB.ExecContext(ctx, query, testID, contactID, succeeded)
    return err
}

// Results joins assignments against outcomes per variant. Contacts assigned
// but without outcomes still count toward Assigned.
func (r *ABTestRepository) Results(ctx context.Context, testID string) ([]abtest.VariantStats, error) {
    query := `
        SELECT a.variant,
               COUNT(DISTINCT a.contact_id) AS assigned,
               COUNT(o.id)                  AS outcomes,
               COUNT(o.id) FILTER (WHERE o.succeeded) AS successes
        FROM ab_assignments a
        LEFT JOIN ab_outcomes o
          ON o.test_id = a.test_id AND o.contact_id = a.contact_id
        WHERE a.test_id = $1
        GROUP BY a.variant
        ORDER BY a.variant
    `
    rows, err := r.DB.QueryContext(ctx, query, testID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    results := []abtest.VariantStats{}
    for rows.Next() {
        var s abtest.VariantStats
        if err := rows.Scan(&s.Variant, &s.Assigned, &s.Outcomes, &s.Successes); err != nil {
            return nil, err
        }
        if s.Outcomes > 0 {
            s.Rate = float64(s.Successes) / float64(s.Outcomes)
        }
        results = append(results, s)
    }
    return results, rows.Err()
}

var _ abtest.Store = (*ABTestRepository)(nil)
