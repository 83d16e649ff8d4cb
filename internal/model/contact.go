// internal/model/contact.go
package model

import "time"

// Contact is owned by the external lead database. The engine reads it for
// condition checks and only ever writes back the per-channel last-contact
// timestamp after a send.
type Contact struct {
    ID                int        `db:"id" json:"id"`
    Email             string     `db:"email" json:"email"`
    Phone             string     `db:"phone" json:"phone"`
    Name              string     `db:"name" json:"name"`
    Location          string     `db:"location" json:"location"`
    Score             float64    `db:"score" json:"score"`
    FirstSeen         time.Time  `db:"first_seen" json:"first_seen"`
    LastResponseAt    *time.Time `db:"last_response_at" json:"last_response_at,omitempty"`
    LastActivityAt    *time.Time `db:"last_activity_at" json:"last_activity_at,omitempty"`
    OpenedLastMessage bool       `db:"opened_last_message" json:"opened_last_message"`

    // LastContact maps channel -> most recent send on that channel,
    // independent of campaign. Loaded alongside the contact row.
    LastContact map[Channel]time.Time `json:"last_contact,omitempty"`
}

// LastContactOn returns the most recent send time on the given channel,
// or nil if the contact has never been messaged there.
func (c *Contact) LastContactOn(ch Channel) *time.Time {
    if c.LastContact == nil {
        return nil
    }
    t, ok := c.LastContact[ch]
    if !ok {
        return nil
    }
    return &t
}
