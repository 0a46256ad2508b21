package auth

import "time"

// AccessClaims is the decrypted payload of an access token. UserID is the
// only claim the API acts on; the rest identify and bound the token.
type AccessClaims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Subject   string    `json:"sub"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// ExpiresIn reports how long the token stays valid after now.
func (c *AccessClaims) ExpiresIn(now time.Time) time.Duration {
	return max(c.ExpiresAt.Sub(now), 0)
}
