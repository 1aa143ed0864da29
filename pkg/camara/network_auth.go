package camara

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

// NetworkAuth runs the OAuth2 legs that yield per-subscriber tokens for the
// network APIs. Every request authenticates with the application JWT.
type NetworkAuth struct {
	client   *httpclient.Client
	host     string
	oidcHost string
	now      func() time.Time
}

// NewNetworkAuth binds the flows to c and the network and OIDC hosts of its options.
func NewNetworkAuth(c *httpclient.Client) *NetworkAuth {
	o := c.Options()
	return &NetworkAuth{
		client:   c,
		host:     o.NetworkHost,
		oidcHost: o.OIDCHost,
		now:      time.Now,
	}
}

// WithClock returns a copy of a that reads the time from now.
func (a *NetworkAuth) WithClock(now func() time.Time) *NetworkAuth {
	cp := *a
	cp.now = now
	return &cp
}

// Client returns the engine the flows run on.
func (a *NetworkAuth) Client() *httpclient.Client { return a.client }

// BackchannelAuthorize starts a CIBA authorization for number.
func (a *NetworkAuth) BackchannelAuthorize(ctx context.Context, number, scope string) (*OidcTicket, error) {
	hint, err := phonex.TelURI(number)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scope) == "" {
		return nil, errx.New(errx.KindValidation, "scope is required")
	}

	params := map[string]string{
		"login_hint": hint,
		"scope":      scope,
	}

	var ticket OidcTicket
	if err := a.client.Post(ctx, a.host, bcAuthorizePath, params, httpclient.AuthJWT, httpclient.Form, &ticket); err != nil {
		return nil, err
	}
	if ticket.AuthReqID == "" {
		return nil, errx.New(errx.KindProtocolFailure, "bc-authorize response has no auth_req_id")
	}
	ticket.issuedAt = a.now()
	return &ticket, nil
}

// ExchangeTicket trades a ticket for an access token. A ticket is rejected
// without any request once it was consumed or has expired.
func (a *NetworkAuth) ExchangeTicket(ctx context.Context, ticket *OidcTicket) (*Token, error) {
	if ticket == nil || ticket.AuthReqID == "" {
		return nil, errx.New(errx.KindValidation, "ticket is required")
	}
	if ticket.Expired(a.now()) {
		return nil, errx.New(errx.KindProtocolFailure, "oidc ticket has expired")
	}
	if !ticket.consumed.CompareAndSwap(false, true) {
		return nil, errx.New(errx.KindProtocolFailure, "oidc ticket was already exchanged")
	}

	return a.requestToken(ctx, map[string]string{
		"auth_req_id": ticket.AuthReqID,
		"grant_type":  GrantTypeCIBA,
	})
}

// BackchannelToken runs authorize and exchange back to back.
func (a *NetworkAuth) BackchannelToken(ctx context.Context, number, scope string) (*Token, error) {
	ticket, err := a.BackchannelAuthorize(ctx, number, scope)
	if err != nil {
		return nil, err
	}
	return a.ExchangeTicket(ctx, ticket)
}

// AuthorizationURLRequest describes the front-channel authorization redirect.
type AuthorizationURLRequest struct {
	RedirectURI string
	State       string
	// LoginHint is the subscriber number, sent with a leading "+".
	LoginHint string
	// Scope defaults to DefaultAuthorizationScope.
	Scope string
}

// BuildAuthorizationURL returns the URL the subscriber's device must open to
// start the authorization code flow. It does no I/O.
func (a *NetworkAuth) BuildAuthorizationURL(req AuthorizationURLRequest) (string, error) {
	clientID := a.client.Auth().ApplicationID()
	if clientID == "" {
		return "", errx.New(errx.KindInvalidAuthConfig, "an application id is required to build an authorization url")
	}
	if req.RedirectURI == "" {
		return "", errx.New(errx.KindValidation, "redirect uri is required")
	}

	scope := req.Scope
	if scope == "" {
		scope = DefaultAuthorizationScope
	}

	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", req.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scope)
	if req.State != "" {
		q.Set("state", req.State)
	}
	if req.LoginHint != "" {
		hint, err := phonex.WithPlus(req.LoginHint)
		if err != nil {
			return "", err
		}
		q.Set("login_hint", hint)
	}

	u := url.URL{
		Scheme:   "https",
		Host:     a.oidcHost,
		Path:     authorizePath,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// ExchangeCode trades the code received on the redirect for an access token.
func (a *NetworkAuth) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	if code == "" {
		return nil, errx.New(errx.KindValidation, "authorization code is required")
	}
	if redirectURI == "" {
		return nil, errx.New(errx.KindValidation, "redirect uri is required")
	}

	return a.requestToken(ctx, map[string]string{
		"grant_type":   GrantTypeAuthorizationCode,
		"code":         code,
		"redirect_uri": redirectURI,
	})
}

func (a *NetworkAuth) requestToken(ctx context.Context, params map[string]string) (*Token, error) {
	var tok Token
	if err := a.client.Post(ctx, a.host, tokenPath, params, httpclient.AuthJWT, httpclient.Form, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, errx.New(errx.KindProtocolFailure, "token response has no access_token")
	}
	return &tok, nil
}
