package vonage

import (
	"context"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/camara"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const (
	simSwapCheckPath = "/camara/sim-swap/v040/check"
	simSwapDatePath  = "/camara/sim-swap/v040/retrieve-date"

	// DefaultSimSwapMaxAge is the look-back window in hours used when Check is given 0.
	DefaultSimSwapMaxAge = 240
	maxSimSwapMaxAge     = 2400
)

// SimSwap checks whether a subscriber's SIM changed recently. Each call runs
// the backchannel flow for its own token unless a TokenSource is attached.
type SimSwap struct {
	client  *httpclient.Client
	host    string
	network *camara.NetworkAuth
	tokens  camara.TokenSource
}

// WithTokenSource returns a copy of s that takes tokens from ts, such as a
// camara.CachedTokenSource.
func (s *SimSwap) WithTokenSource(ts camara.TokenSource) *SimSwap {
	cp := *s
	cp.tokens = ts
	return &cp
}

// Check reports whether the SIM of number was swapped in the last maxAge hours.
func (s *SimSwap) Check(ctx context.Context, number string, maxAge int) (bool, error) {
	phone, err := phonex.WithPlus(number)
	if err != nil {
		return false, err
	}
	if maxAge == 0 {
		maxAge = DefaultSimSwapMaxAge
	}
	if maxAge < 1 || maxAge > maxSimSwapMaxAge {
		return false, errx.Newf(errx.KindValidation, "max age must be between 1 and %d hours", maxSimSwapMaxAge)
	}

	var out struct {
		Swapped bool `json:"swapped"`
	}
	body := map[string]any{"phoneNumber": phone, "maxAge": maxAge}
	err = s.withToken(ctx, number, camara.ScopeSimSwapCheck, func(ctx context.Context, tok *camara.Token) error {
		return s.client.Post(ctx, s.host, simSwapCheckPath, body, httpclient.OAuth2(tok.AccessToken), httpclient.JSON, &out)
	})
	if err != nil {
		return false, err
	}
	return out.Swapped, nil
}

// LastSwapDate returns when the SIM of number last changed. The zero time
// means the network reported no change.
func (s *SimSwap) LastSwapDate(ctx context.Context, number string) (time.Time, error) {
	phone, err := phonex.WithPlus(number)
	if err != nil {
		return time.Time{}, err
	}

	var out struct {
		LatestSimChange *string `json:"latestSimChange"`
	}
	body := map[string]any{"phoneNumber": phone}
	err = s.withToken(ctx, number, camara.ScopeSimSwapRetrieveDate, func(ctx context.Context, tok *camara.Token) error {
		return s.client.Post(ctx, s.host, simSwapDatePath, body, httpclient.OAuth2(tok.AccessToken), httpclient.JSON, &out)
	})
	if err != nil {
		return time.Time{}, err
	}

	if out.LatestSimChange == nil || *out.LatestSimChange == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, *out.LatestSimChange)
	if err != nil {
		return time.Time{}, errx.Wrap(errx.KindProtocolFailure, err, "parse latestSimChange")
	}
	return t, nil
}

func (s *SimSwap) withToken(ctx context.Context, number, scope string, invoke camara.Invoker) error {
	if s.tokens == nil {
		return s.network.NewFlow(number, scope).Run(ctx, invoke)
	}
	tok, err := s.tokens.BackchannelToken(ctx, number, scope)
	if err != nil {
		return err
	}
	return invoke(ctx, tok)
}
