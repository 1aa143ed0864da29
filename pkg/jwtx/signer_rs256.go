package jwtx

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingKey    = errors.New("jwtx: private key is empty")
	ErrSingleLineKey = errors.New("jwtx: private key has no line breaks, pass the PEM exactly as downloaded")
	ErrInvalidPEM    = errors.New("jwtx: invalid PEM for RSA key")
)

// RS256Signer signs claims using RSA SHA-256.
type RS256Signer struct {
	key *rsa.PrivateKey
	pub *rsa.PublicKey
	alg string
}

// NewSignerRS256 loads an RSA private key from PEM bytes.
func NewSignerRS256(pemKey []byte) (*RS256Signer, error) {
	key, err := ParseRSAPrivateKey(pemKey)
	if err != nil {
		return nil, err
	}

	return &RS256Signer{
		key: key,
		pub: &key.PublicKey,
		alg: jwt.SigningMethodRS256.Alg(),
	}, nil
}

// ParseRSAPrivateKey handles both PKCS1 and PKCS8 because otherwise we will be
// chasing a bug for longer that we would be willing to admit. Keys pasted as a
// single line (line breaks lost in an env var, usually) are rejected up front
// since pem.Decode gives a useless answer for them.
func ParseRSAPrivateKey(pemKey []byte) (*rsa.PrivateKey, error) {
	pemKey = bytes.TrimSpace(pemKey)
	if len(pemKey) == 0 {
		return nil, ErrMissingKey
	}
	if !bytes.Contains(pemKey, []byte("\n")) {
		return nil, ErrSingleLineKey
	}

	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse RSA key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
		}
		rk, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not RSA private key")
		}
		return rk, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}
}

func (s *RS256Signer) Alg() string { return s.alg }

// PublicKey returns the public half of the signing key.
func (s *RS256Signer) PublicKey() *rsa.PublicKey { return s.pub }

// Sign takes your claims and turns them into a signed JWT string.
func (s *RS256Signer) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return t.SignedString(s.key)
}
