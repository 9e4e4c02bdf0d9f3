package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ParseUnverified decodes the access token claims without checking the
// signature or expiry. The result is only suitable for log correlation.
func ParseUnverified(tokenString string) (*AccessTokenClaims, error) {
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return nil, fmt.Errorf("token is empty")
	}

	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(trimmed, raw); err != nil {
		return nil, fmt.Errorf("decoding jwt: %w", err)
	}

	claims := &AccessTokenClaims{
		UserID:    claimString(raw["user_id"]),
		TokenType: claimString(raw["token_type"]),
		ID:        claimString(raw["jti"]),
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		at := exp.Time
		claims.ExpiresAt = &at
	}
	return claims, nil
}

// MintAccessToken signs an HS256 token shaped like the remote API's access
// tokens. The storefront never verifies tokens; this exists for local tooling
// and fixtures.
func MintAccessToken(secret string, now time.Time, ttl time.Duration, userID string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}

	claims := jwt.MapClaims{
		"token_type": "access",
		"user_id":    userID,
		"jti":        uuid.NewString(),
		"iat":        jwt.NewNumericDate(now),
		"exp":        jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func claimString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
