package httpclient

import (
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAPIHost     = "api.nexmo.com"
	DefaultRestHost    = "rest.nexmo.com"
	DefaultNetworkHost = "api-eu.vonage.com"
	DefaultOIDCHost    = "oidc.idp.vonage.com"
	DefaultVideoHost   = "video.api.vonage.com"

	DefaultPoolConnections = 10
	DefaultPoolMaxSize     = 10
	DefaultMaxRetries      = 3
)

// Options configures the HTTP engine. Use DefaultOptions as a starting point;
// empty hosts and zero pool sizes are filled with their defaults by New, but a
// zero MaxRetries means "never retry".
type Options struct {
	// APIHost serves most JSON APIs (messages, verify, voice, number insight).
	APIHost string
	// RestHost serves the legacy form-encoded APIs (SMS).
	RestHost string
	// NetworkHost serves CAMARA network APIs and the backchannel OAuth2 endpoints.
	NetworkHost string
	// OIDCHost serves the front-channel authorization endpoint.
	OIDCHost string
	// VideoHost serves the video API.
	VideoHost string

	// Timeout bounds each request end to end. Zero leaves requests unbounded
	// apart from the caller's context.
	Timeout time.Duration

	// PoolConnections is the number of hosts the pool keeps idle connections for.
	PoolConnections int
	// PoolMaxSize caps the connections kept and opened per host.
	PoolMaxSize int
	// MaxRetries bounds retries of idempotent requests that failed before any
	// response was received.
	MaxRetries int

	// SDKVersion is reported in the User-Agent header.
	SDKVersion string

	// Logger receives debug logs of every exchange. Defaults to a discarding logger.
	Logger *slog.Logger

	// TLSConfig overrides the transport's TLS settings, mostly for tests.
	TLSConfig *tls.Config

	// RateLimit enables a client-side token bucket per host. Requests over the
	// limit fail with KindRateLimited without touching the network.
	RateLimit *RateLimitConfig

	// Metrics registers request counters and latency histograms when set.
	Metrics prometheus.Registerer

	// TracerProvider wraps the transport with OpenTelemetry instrumentation when set.
	TracerProvider trace.TracerProvider
	// Propagator injects trace context into outgoing requests when tracing is
	// enabled. Defaults to the global propagator.
	Propagator propagation.TextMapPropagator
}

// DefaultOptions returns the options used when New is given nil.
func DefaultOptions() Options {
	return Options{
		APIHost:         DefaultAPIHost,
		RestHost:        DefaultRestHost,
		NetworkHost:     DefaultNetworkHost,
		OIDCHost:        DefaultOIDCHost,
		VideoHost:       DefaultVideoHost,
		PoolConnections: DefaultPoolConnections,
		PoolMaxSize:     DefaultPoolMaxSize,
		MaxRetries:      DefaultMaxRetries,
	}
}

// withDefaults returns a copy with empty fields filled in.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.APIHost == "" {
		o.APIHost = def.APIHost
	}
	if o.RestHost == "" {
		o.RestHost = def.RestHost
	}
	if o.NetworkHost == "" {
		o.NetworkHost = def.NetworkHost
	}
	if o.OIDCHost == "" {
		o.OIDCHost = def.OIDCHost
	}
	if o.VideoHost == "" {
		o.VideoHost = def.VideoHost
	}
	if o.PoolConnections == 0 {
		o.PoolConnections = def.PoolConnections
	}
	if o.PoolMaxSize == 0 {
		o.PoolMaxSize = def.PoolMaxSize
	}
	return o
}

// Validate reports the first invalid field as KindInvalidHTTPOptions.
func (o Options) Validate() error {
	if o.Timeout < 0 {
		return errx.New(errx.KindInvalidHTTPOptions, "timeout must be zero or positive")
	}
	if o.PoolConnections < 1 {
		return errx.New(errx.KindInvalidHTTPOptions, "pool connections must be at least 1")
	}
	if o.PoolMaxSize < 1 {
		return errx.New(errx.KindInvalidHTTPOptions, "pool max size must be at least 1")
	}
	if o.MaxRetries < 0 {
		return errx.New(errx.KindInvalidHTTPOptions, "max retries must be zero or positive")
	}

	hosts := []struct{ name, host string }{
		{"api host", o.APIHost},
		{"rest host", o.RestHost},
		{"network host", o.NetworkHost},
		{"oidc host", o.OIDCHost},
		{"video host", o.VideoHost},
	}
	for _, h := range hosts {
		if reason := checkHost(h.host); reason != "" {
			return errx.Newf(errx.KindInvalidHTTPOptions, "%s %q %s", h.name, h.host, reason)
		}
	}

	if o.RateLimit != nil {
		if err := o.RateLimit.validate(); err != nil {
			return err
		}
	}
	return nil
}

// checkHost returns why h is unusable as a request host, or "".
func checkHost(h string) string {
	switch {
	case h == "":
		return "must not be empty"
	case strings.Contains(h, "://"):
		return "must be a bare host name, every request uses https"
	case strings.ContainsAny(h, "/?# "):
		return "must not contain a path, query or spaces"
	}
	return ""
}
