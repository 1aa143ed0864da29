// Package camara obtains per-subscriber access tokens for the network APIs.
//
// Two OAuth2 flows are supported. The backchannel (CIBA) flow serves APIs
// such as SIM Swap where no end-user browser is involved:
//
//	na := camara.NewNetworkAuth(client)
//	tok, err := na.BackchannelToken(ctx, "447700900000", camara.ScopeSimSwapCheck)
//
// The front-channel authorization code flow serves Number Verification. The
// caller sends the subscriber's device to BuildAuthorizationURL and trades the
// code it receives on the redirect with ExchangeCode.
//
// Tokens are fetched per call. CachedTokenSource adds an opt-in in-memory
// cache for callers that make bursts of requests for the same number.
package camara
