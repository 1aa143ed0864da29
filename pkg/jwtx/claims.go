package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an application JWT when no exp or ttl
// override is given.
const DefaultTTL = 15 * time.Minute

// Claims are the claims of an application JWT.
type Claims struct {
	jwt.RegisteredClaims

	// ApplicationID identifies the Vonage application that signed the token.
	ApplicationID string `json:"application_id"`

	// ACL restricts which API paths the token may call (Client SDK, Video).
	ACL map[string]any `json:"acl,omitempty"`
}

// NewJTI returns a random UUIDv4 for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// DefaultClaims builds the claim set every application JWT starts from.
func DefaultClaims(applicationID string, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"application_id": applicationID,
		"iat":            now.Unix(),
		"exp":            now.Add(DefaultTTL).Unix(),
		"jti":            NewJTI(),
	}
}

// ValidateApplicationID checks the token was issued for the expected
// application. An empty expected id accepts any.
func (c *Claims) ValidateApplicationID(expected string) error {
	if expected == "" {
		return nil
	}
	if c.ApplicationID != expected {
		return ErrApplicationID
	}
	return nil
}
