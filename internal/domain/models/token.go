package models

import "time"

// RefreshToken represents a refresh token stored in the ledger.
type RefreshToken struct {
	Token           string
	UserID          string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	CreatedByIP     string
	RevokedAt       *time.Time
	RevokedByIP     string
	ReplacedByToken string
}

// Active reports whether the token is usable at the given instant.
// A token whose expiry equals now is already expired.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
