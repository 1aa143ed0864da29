package camara

import (
	"context"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/phonex"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// TokenSource yields a backchannel access token for a number and scope.
// *NetworkAuth is the uncached implementation.
type TokenSource interface {
	BackchannelToken(ctx context.Context, number, scope string) (*Token, error)
}

// DefaultExpirySkew is how long before expires_in a cached token is dropped.
const DefaultExpirySkew = 30 * time.Second

// CachedTokenSource shares tokens between callers asking for the same number
// and scope. Concurrent misses collapse into a single bc-authorize, and the
// token is kept in memory until shortly before it expires. Tokens without an
// expires_in are never cached.
type CachedTokenSource struct {
	src   TokenSource
	skew  time.Duration
	cache *cache.Cache
	group singleflight.Group
}

// NewCachedTokenSource wraps src. A zero skew means DefaultExpirySkew.
func NewCachedTokenSource(src TokenSource, skew time.Duration) *CachedTokenSource {
	if skew <= 0 {
		skew = DefaultExpirySkew
	}
	return &CachedTokenSource{
		src:   src,
		skew:  skew,
		cache: cache.New(cache.NoExpiration, time.Minute),
	}
}

// BackchannelToken returns a cached token or fetches one from the wrapped source.
func (s *CachedTokenSource) BackchannelToken(ctx context.Context, number, scope string) (*Token, error) {
	n, err := phonex.Normalize(number)
	if err != nil {
		return nil, err
	}
	key := n + " " + scope

	if tok, ok := s.cache.Get(key); ok {
		return tok.(*Token), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if tok, ok := s.cache.Get(key); ok {
			return tok.(*Token), nil
		}
		tok, err := s.src.BackchannelToken(ctx, n, scope)
		if err != nil {
			return nil, err
		}
		if ttl := time.Duration(tok.ExpiresIn)*time.Second - s.skew; ttl > 0 {
			s.cache.Set(key, tok, ttl)
		}
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

// Invalidate drops the cached token for number and scope, e.g. after the
// resource API rejected it.
func (s *CachedTokenSource) Invalidate(number, scope string) {
	n, err := phonex.Normalize(number)
	if err != nil {
		return
	}
	s.cache.Delete(n + " " + scope)
}

// Flush drops every cached token.
func (s *CachedTokenSource) Flush() { s.cache.Flush() }
