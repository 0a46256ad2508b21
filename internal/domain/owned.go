package domain

import "time"

// Owned carries the identity and timestamps shared by every user-scoped entity.
// It is embedded in tags, articles, highlights and stacks.
type Owned struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this only when the entity actually changed.
func (o *Owned) Touch() {
	o.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (o *Owned) InitTimestamps() {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
}

// OwnedBy reports whether the entity belongs to userID.
func (o *Owned) OwnedBy(userID string) bool {
	return o.UserID == userID
}
