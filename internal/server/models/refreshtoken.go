package models

import "time"

// RefreshToken is a server-side session record. Token carries the plaintext
// value only on the record returned at creation; storage keeps TokenHash.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is dead at now. The boundary instant
// counts as expired.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
