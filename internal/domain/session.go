package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the signed-in user as reported by the authentication provider.
// A nil *Identity means the visitor is anonymous.
type Identity struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (i *Identity) Expired(now time.Time) bool {
	if i == nil {
		return true
	}
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// SameUser reports whether a and b refer to the same signed-in user. Two
// anonymous identities are considered the same.
func SameUser(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UserID == b.UserID
}
