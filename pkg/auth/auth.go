// Package auth holds Vonage account and application credentials and derives
// the authentication artifacts the HTTP engine attaches to requests: a Basic
// header from the API key and secret, a Bearer header carrying an application
// JWT, and signed parameter sets for legacy signature authentication.
//
// An *Auth is immutable once built and safe for concurrent use.
package auth

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"maps"
	"os"

	"github.com/aussiebroadwan/vonage/pkg/cryptox"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/jwtx"
	"github.com/aussiebroadwan/vonage/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the raw configuration an Auth is built from. Every field is
// optional, subject to the pairing rules enforced by New.
type Credentials struct {
	APIKey    string
	APISecret string

	ApplicationID string
	// PrivateKey is the PEM-encoded RSA key of the application.
	PrivateKey []byte
	// PrivateKeyPath is read when PrivateKey is empty.
	PrivateKeyPath string

	SignatureSecret string
	// SignatureMethod defaults to md5 (HMAC) when empty.
	SignatureMethod string
}

// Auth derives authentication artifacts from a validated set of Credentials.
type Auth struct {
	apiKey    string
	apiSecret string

	applicationID string
	issuer        *jwtx.Issuer

	signatureSecret string
	signatureMethod cryptox.SignatureMethod
}

// New validates c and builds an Auth.
//
// The API key and secret must be given together, as must the application id
// and private key. A signature secret cannot be combined with application
// credentials. Violations fail with KindInvalidAuthConfig. A private key that
// cannot be parsed fails with KindJWTGenerationFailure.
func New(c Credentials) (*Auth, error) {
	key := c.PrivateKey
	if len(key) == 0 && c.PrivateKeyPath != "" {
		b, err := os.ReadFile(c.PrivateKeyPath)
		if err != nil {
			return nil, errx.Wrap(errx.KindInvalidAuthConfig, err, "read private key file")
		}
		key = b
	}

	if (c.APIKey == "") != (c.APISecret == "") {
		return nil, errx.New(errx.KindInvalidAuthConfig, "api key and api secret must be provided together")
	}
	if (c.ApplicationID == "") != (len(key) == 0) {
		return nil, errx.New(errx.KindInvalidAuthConfig, "application id and private key must be provided together")
	}
	if c.SignatureSecret != "" && c.ApplicationID != "" {
		return nil, errx.New(errx.KindInvalidAuthConfig, "signature secret cannot be combined with application id and private key")
	}

	a := &Auth{
		apiKey:          c.APIKey,
		apiSecret:       c.APISecret,
		applicationID:   c.ApplicationID,
		signatureSecret: c.SignatureSecret,
	}

	if c.SignatureSecret != "" || c.SignatureMethod != "" {
		m, err := cryptox.ParseSignatureMethod(c.SignatureMethod)
		if err != nil {
			return nil, errx.Wrap(errx.KindInvalidAuthConfig, err, "signature method")
		}
		a.signatureMethod = m
	}

	if c.ApplicationID != "" {
		issuer, err := jwtx.NewIssuer(c.ApplicationID, key)
		if err != nil {
			return nil, errx.Wrap(errx.KindJWTGenerationFailure, err, "load application private key")
		}
		a.issuer = issuer
	}

	return a, nil
}

// APIKey returns the account API key, empty when not configured.
func (a *Auth) APIKey() string { return a.apiKey }

// ApplicationID returns the application id, empty when not configured.
func (a *Auth) ApplicationID() string { return a.applicationID }

// SignatureMethod returns the configured signing method.
func (a *Auth) SignatureMethod() cryptox.SignatureMethod { return a.signatureMethod }

// HasBasic reports whether an API key and secret are configured.
func (a *Auth) HasBasic() bool { return a.apiKey != "" }

// HasApplication reports whether an application id and private key are configured.
func (a *Auth) HasApplication() bool { return a.issuer != nil }

// HasSignature reports whether a signature secret is configured.
func (a *Auth) HasSignature() bool { return a.signatureSecret != "" }

// BasicHeader returns the Authorization header value for API key auth.
func (a *Auth) BasicHeader() (string, error) {
	if !a.HasBasic() {
		return "", errx.New(errx.KindInvalidAuthConfig, "api key and api secret are required for basic auth")
	}
	raw := a.apiKey + ":" + a.apiSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// GenerateJWT mints an application JWT. claims override the defaults.
func (a *Auth) GenerateJWT(claims map[string]any) (string, error) {
	if a.issuer == nil {
		return "", errx.New(errx.KindJWTGenerationFailure, "application id and private key are required to generate a JWT")
	}
	token, err := a.issuer.Generate(claims)
	if err != nil {
		return "", errx.Wrap(errx.KindJWTGenerationFailure, err, "sign application JWT")
	}
	return token, nil
}

// JWTHeader returns "Bearer <jwt>" with a freshly minted token.
func (a *Auth) JWTHeader() (string, error) {
	token, err := a.GenerateJWT(nil)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

// VerifyJWT checks that token was signed with the application key and
// carries this application's id. Failures are KindAuthenticationFailure.
func (a *Auth) VerifyJWT(token string) (*jwtx.Claims, error) {
	if a.issuer == nil {
		return nil, errx.New(errx.KindInvalidAuthConfig, "application id and private key are required to verify a JWT")
	}
	claims, err := jwtx.NewVerifierRS256(a.issuer.PublicKey(), a.applicationID).Verify(token)
	if err != nil {
		return nil, errx.Wrap(errx.KindAuthenticationFailure, err, "application JWT")
	}
	return claims, nil
}

// Sign computes the signature of params. The map gains a timestamp entry
// when it has none.
func (a *Auth) Sign(params map[string]string) (string, error) {
	if !a.HasSignature() {
		return "", errx.New(errx.KindInvalidAuthConfig, "signature secret is required for signed requests")
	}
	sig, err := cryptox.Sign(params, a.signatureSecret, a.signatureMethod)
	if err != nil {
		return "", errx.Wrap(errx.KindInvalidAuthConfig, err, "sign parameters")
	}
	return sig, nil
}

// SignParams returns a copy of params carrying timestamp and sig.
func (a *Auth) SignParams(params map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(params)+2)
	maps.Copy(out, params)
	delete(out, cryptox.SignatureParam)

	sig, err := a.Sign(out)
	if err != nil {
		return nil, err
	}
	out[cryptox.SignatureParam] = sig
	return out, nil
}

// CheckSignature reports whether params["sig"] matches the signature of the
// remaining parameters, as sent on signed inbound webhooks.
func (a *Auth) CheckSignature(params map[string]string) (bool, error) {
	if !a.HasSignature() {
		return false, errx.New(errx.KindInvalidAuthConfig, "signature secret is required to check signatures")
	}
	return cryptox.Verify(params, a.signatureSecret, a.signatureMethod), nil
}

// VerifyWebhookToken validates the HS256 JWT Vonage puts in the Authorization
// header of signed webhooks.
func (a *Auth) VerifyWebhookToken(token string) (jwt.MapClaims, error) {
	if !a.HasSignature() {
		return nil, errx.New(errx.KindInvalidAuthConfig, "signature secret is required to verify webhook tokens")
	}
	claims, err := jwtx.VerifySignature(token, a.signatureSecret)
	if err != nil {
		return nil, errx.Wrap(errx.KindAuthenticationFailure, err, "webhook token")
	}
	return claims, nil
}

// String never prints secrets. The API key and application id are cut down
// to their last four characters.
func (a *Auth) String() string {
	return fmt.Sprintf("auth.Auth{api_key=%q basic=%t application_id=%q application=%t signature=%t}",
		slogx.Mask(a.apiKey), a.HasBasic(), slogx.Mask(a.applicationID), a.HasApplication(), a.HasSignature())
}

// LogValue implements slog.LogValuer with the same redaction as String.
func (a *Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_key", slogx.Mask(a.apiKey)),
		slog.Bool("basic", a.HasBasic()),
		slog.String("application_id", slogx.Mask(a.applicationID)),
		slog.Bool("application", a.HasApplication()),
		slog.Bool("signature", a.HasSignature()),
	)
}
