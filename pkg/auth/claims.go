package auth

import "time"

// AccessTokenClaims is the subset of the remote API's access token we read.
// Values are decoded without verifying the signature.
type AccessTokenClaims struct {
	UserID    string
	TokenType string
	ID        string
	ExpiresAt *time.Time
}

// Expired reports whether the token's exp claim is before now. Tokens without
// an exp claim never report expired.
func (c *AccessTokenClaims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(now)
}
