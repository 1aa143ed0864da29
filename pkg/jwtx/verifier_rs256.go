package jwtx

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RS256Verifier validates application JWTs against an RSA public key. Expiry
// and not-before are checked by the parser with the verifier's leeway.
type RS256Verifier struct {
	key           *rsa.PublicKey
	applicationID string
	leeway        time.Duration
}

// DefaultLeeway absorbs clock skew between the minting and verifying hosts.
const DefaultLeeway = 30 * time.Second

// NewVerifierRS256 creates a verifier. An empty applicationID accepts any
// application_id claim.
func NewVerifierRS256(key *rsa.PublicKey, applicationID string) *RS256Verifier {
	return &RS256Verifier{key: key, applicationID: applicationID, leeway: DefaultLeeway}
}

// WithLeeway returns a copy of v tolerating d of clock skew.
func (v *RS256Verifier) WithLeeway(d time.Duration) *RS256Verifier {
	cp := *v
	cp.leeway = d
	return &cp
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *RS256Verifier) Verify(tokenStr string) (*Claims, error) {
	if v.key == nil {
		return nil, errors.New("jwtx: verifier has no public key")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}

	if err := claims.ValidateApplicationID(v.applicationID); err != nil {
		return nil, err
	}
	return claims, nil
}
