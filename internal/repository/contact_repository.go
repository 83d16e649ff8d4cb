package repository

import (
    "context"
    "database/sql"
    "time"

    appErrors "github.com/designgaga/outreach-backend/internal/errors"
    "github.com/designgaga/outreach-backend/internal/model"
)

// ContactRepositoryInterface defines the contact reads and engagement
// write-backs used by the service and runner.
type ContactRepositoryInterface interface {
    GetByID(ctx context.Context, id int) (*model.Contact, error)
    ListAll(ctx context.Context) ([]model.Contact, error)
    Create(ctx context.Context, c *model.Contact) error
    UpdateLastContact(ctx context.Context, contactID int, ch model.Channel, at time.Time) error
    RecordEngagement(ctx context.Context, contactID int, opened, responded bool, at time.Time) error
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
    DB *sql.DB
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
    if c.FirstSeen.IsZero() {
        c.FirstSeen = time.Now()
    }
    query := `
        INSERT INTO contacts (email, phone, name, location, score, first_seen, opened_last_message)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
    return r.DB.QueryRowContext(ctx, query,
        c.Email, c.Phone, c.Name, c.Location, c.Score, c.FirstSeen, c.OpenedLastMessage,
    ).Scan(&c.ID)
}

// GetByID fetches a contact and its per-channel last-contact log.
func (r *ContactRepository) GetByID(ctx context.Context, id int) (*model.Contact, error) {
    query := `
        SELECT id, email, phone, name, location, score, first_seen,
               last_response_at, last_activity_at, opened_last_message
        FROM contacts
        WHERE id = $1
    `
    var c model.Contact
    err := r.DB.QueryRowContext(ctx, query, id).Scan(
        &c.ID, &c.Email, &c.Phone, &c.Name, &c.Location, &c.Score, &c.FirstSeen,
        &c.LastResponseAt, &c.LastActivityAt, &c.OpenedLastMessage,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewContactNotFound(id)
        }
        return nil, err
    }

    c.LastContact, err = r.lastContact(ctx, id)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

func (r *ContactRepository) lastContact(ctx context.Context, contactID int) (map[model.Channel]time.Time, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT channel, last_sent_at FROM contact_channel_log WHERE contact_id = $1`, contactID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := map[model.Channel]time.Time{}
    for rows.Next() {
        var ch model.Channel
        var at time.Time
        if err := rows.Scan(&ch, &at); err != nil {
            return nil, err
        }
        out[ch] = at
    }
    return out, rows.Err()
}

// ListAll fetches all contacts (used for campaign enrollment).
func (r *ContactRepository) ListAll(ctx context.Context) ([]model.Contact, error) {
    query := `
        SELECT id, email, phone, name, location, score, first_seen,
               last_response_at, last_activity_at, opened_last_message
        FROM contacts
        ORDER BY id
    `
    rows, err := r.DB.QueryContext(ctx, query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    contacts := []model.Contact{}
    for rows.Next() {
        var c model.Contact
        if err := rows.Scan(
            &c.ID, &c.Email, &c.Phone, &c.Name, &c.Location, &c.Score, &c.FirstSeen,
            &c.LastResponseAt, &c.LastActivityAt, &c.OpenedLastMessage,
        ); err != nil {
            return nil, err
        }
        contacts = append(contacts, c)
    }
    return contacts, rows.Err()
}

// UpdateLastContact stamps the channel's most recent send. Last writer wins;
// the log exists to feed frequency caps, not to be an audit trail.
func (r *ContactRepository) UpdateLastContact(ctx context.Context, contactID int, ch model.Channel, at time.Time) error {
    query := `
        INSERT INTO contact_channel_log (contact_id, channel, last_sent_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (contact_id, channel) DO UPDATE SET last_sent_at = EXCLUDED.last_sent_at
    `
    _, err := r.DB.ExecContext(ctx, query, contactID, ch, at)
    return err
}

// RecordEngagement applies an externally observed open or response to the
// contact, which is what branch conditions evaluate against.
func (r *ContactRepository) RecordEngagement(ctx context.Context, contactID int, opened, responded bool, at time.Time) error {
    query := `
        UPDATE contacts
        SET opened_last_message = opened_last_message OR $2,
            last_response_at    = CASE WHEN $3 THEN $4 ELSE last_response_at END,
            last_activity_at    = $4
        WHERE id = $1
    `
    res, err := r.DB.ExecContext(ctx, query, contactID, opened, responded, at)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return appErrors.NewContactNotFound(contactID)
    }
    return nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
