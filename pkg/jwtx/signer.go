package jwtx

import (
	"crypto/rsa"
	"errors"
	"time"
)

// ErrMissingApplicationID is returned when an Issuer is built without an application id.
var ErrMissingApplicationID = errors.New("jwtx: application id is empty")

// Issuer mints application JWTs for one Vonage application. It holds no
// mutable state once built and is safe for concurrent use.
type Issuer struct {
	applicationID string
	signer        *RS256Signer
	now           func() time.Time
}

// NewIssuer parses the PEM private key and binds it to applicationID.
func NewIssuer(applicationID string, pemKey []byte) (*Issuer, error) {
	if applicationID == "" {
		return nil, ErrMissingApplicationID
	}

	signer, err := NewSignerRS256(pemKey)
	if err != nil {
		return nil, err
	}

	return &Issuer{
		applicationID: applicationID,
		signer:        signer,
		now:           time.Now,
	}, nil
}

// ApplicationID returns the application the issuer signs for.
func (i *Issuer) ApplicationID() string { return i.applicationID }

// PublicKey returns the public half of the application key.
func (i *Issuer) PublicKey() *rsa.PublicKey { return i.signer.PublicKey() }

// Generate signs a JWT with the default claims (application_id, iat, exp 15
// minutes out, a random jti) merged with overrides. Any claim may be
// overridden. time.Time values are written as unix seconds, and a "ttl"
// override (seconds or time.Duration) sets exp relative to iat when exp is
// not given explicitly.
func (i *Issuer) Generate(overrides map[string]any) (string, error) {
	now := i.now()
	claims := DefaultClaims(i.applicationID, now)

	var ttl any
	for k, v := range overrides {
		if k == "ttl" {
			ttl = v
			continue
		}
		if t, ok := v.(time.Time); ok {
			v = t.Unix()
		}
		claims[k] = v
	}

	if ttl != nil {
		if _, explicit := overrides["exp"]; !explicit {
			iat, ok := unixSeconds(claims["iat"])
			if !ok {
				return "", ErrInvalidClaim
			}
			d, err := ttlDuration(ttl)
			if err != nil {
				return "", err
			}
			claims["exp"] = time.Unix(iat, 0).Add(d).Unix()
		}
	}

	return i.signer.Sign(claims)
}

func unixSeconds(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func ttlDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, ErrInvalidClaim
	}
}

// WithClock returns a copy of the issuer reading time from now. Tests only
// need this, production code should use the wall clock.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}
