package camara

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Scopes of the network APIs served through the CAMARA flows.
const (
	ScopeSimSwapCheck         = "dpv:FraudPreventionAndDetection#check-sim-swap"
	ScopeSimSwapRetrieveDate  = "dpv:FraudPreventionAndDetection#retrieve-sim-swap-date"
	ScopeNumberVerification   = "openid dpv:FraudPreventionAndDetection#number-verification-verify-read"
	DefaultAuthorizationScope = ScopeNumberVerification
)

// Grant types sent to the token endpoint.
const (
	GrantTypeCIBA              = "urn:openid:params:grant-type:ciba"
	GrantTypeAuthorizationCode = "authorization_code"
)

const (
	bcAuthorizePath = "/oauth2/bc-authorize"
	tokenPath       = "/oauth2/token"
	authorizePath   = "/oauth2/auth"
)

// OidcTicket is the backchannel authorization handle returned by
// bc-authorize. It can be exchanged for a token once, before it expires.
type OidcTicket struct {
	AuthReqID string `json:"auth_req_id"`
	// ExpiresIn is the ticket lifetime in seconds. Zero means the server gave
	// no lifetime and the ticket never expires locally.
	ExpiresIn int `json:"expires_in"`
	// Interval is the minimum polling interval in seconds, when given.
	Interval int `json:"interval,omitempty"`

	issuedAt time.Time
	consumed atomic.Bool
}

// IssuedAt returns when the ticket was received.
func (t *OidcTicket) IssuedAt() time.Time { return t.issuedAt }

// ExpiresAt returns the local expiry, or the zero time when the ticket has no lifetime.
func (t *OidcTicket) ExpiresAt() time.Time {
	if t.ExpiresIn <= 0 || t.issuedAt.IsZero() {
		return time.Time{}
	}
	return t.issuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Expired reports whether the ticket is past its lifetime at now.
func (t *OidcTicket) Expired(now time.Time) bool {
	exp := t.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

// Consumed reports whether the ticket was already exchanged.
func (t *OidcTicket) Consumed() bool { return t.consumed.Load() }

// LogValue keeps the auth_req_id out of logs.
func (t *OidcTicket) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("expires_in", t.ExpiresIn),
		slog.Int("interval", t.Interval),
		slog.Bool("consumed", t.Consumed()),
	)
}

// Token is a CAMARA access token. It authorizes one resource call.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// LogValue keeps the token material out of logs.
func (t *Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_type", t.TokenType),
		slog.Int("expires_in", t.ExpiresIn),
	)
}
