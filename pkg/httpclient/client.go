// Package httpclient is the request engine every Vonage API call goes through.
//
// A Client owns one pooled HTTPS transport and an *auth.Auth. For each
// request it attaches the selected authentication artifact, encodes the
// params as JSON, form or query string, executes the exchange under the
// configured timeout and maps the outcome onto the errx taxonomy:
//
//	c, err := httpclient.New(a, nil)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	var out map[string]any
//	err = c.Post(ctx, c.Options().APIHost, "/v1/messages", msg, httpclient.AuthJWT, httpclient.JSON, &out)
//
// A Client is safe for concurrent use.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/auth"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/slogx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Request describes one API call.
type Request struct {
	Method string
	Host   string
	// Path starts with "/" and may carry a query string of its own.
	Path   string
	Params any
	Auth   AuthMethod
	// Encoding applies to POST, PUT and PATCH. GET and DELETE always send
	// params in the query string.
	Encoding Encoding
	// Header holds extra request headers.
	Header http.Header
}

// Client executes authenticated requests against the Vonage APIs.
type Client struct {
	auth      *auth.Auth
	opts      Options
	http      *http.Client
	pool      *http.Transport
	log       *slog.Logger
	limiter   *rateLimiter
	metrics   *metrics
	userAgent string
}

// New builds a Client. A nil opts means DefaultOptions. Invalid options fail
// with KindInvalidHTTPOptions.
func New(a *auth.Auth, opts *Options) (*Client, error) {
	if a == nil {
		return nil, errx.New(errx.KindInvalidAuthConfig, "auth is required")
	}

	o := DefaultOptions()
	if opts != nil {
		o = opts.withDefaults()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	log := o.Logger
	if log == nil {
		log = slogx.Discard()
	}

	pool := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          o.PoolConnections * o.PoolMaxSize,
		MaxIdleConnsPerHost:   o.PoolMaxSize,
		MaxConnsPerHost:       o.PoolMaxSize,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       o.TLSConfig,
	}

	var rt http.RoundTripper = newRetryTransport(pool, o.MaxRetries, log)
	if o.TracerProvider != nil {
		topts := []otelhttp.Option{
			otelhttp.WithTracerProvider(o.TracerProvider),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "vonage " + r.Method + " " + r.URL.Path
			}),
			otelhttp.WithSpanOptions(trace.WithAttributes(attribute.String("vonage.sdk.version", o.SDKVersion))),
		}
		if o.Propagator != nil {
			topts = append(topts, otelhttp.WithPropagators(o.Propagator))
		}
		rt = otelhttp.NewTransport(rt, topts...)
	}

	c := &Client{
		auth: a,
		opts: o,
		http: &http.Client{
			Transport: rt,
			Timeout:   o.Timeout,
			// A followed redirect would carry the Authorization header along.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		pool:      pool,
		log:       log,
		userAgent: buildUserAgent(o.SDKVersion),
	}

	if o.RateLimit != nil {
		c.limiter = newRateLimiter(*o.RateLimit)
	}
	if o.Metrics != nil {
		m, err := newMetrics(o.Metrics)
		if err != nil {
			return nil, errx.Wrap(errx.KindInvalidHTTPOptions, err, "register metrics")
		}
		c.metrics = m
	}

	return c, nil
}

func buildUserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return "vonage-go-sdk/" + version + " go/" + strings.TrimPrefix(runtime.Version(), "go")
}

// Auth returns the credentials the client signs requests with.
func (c *Client) Auth() *auth.Auth { return c.auth }

// Options returns the effective options, defaults applied.
func (c *Client) Options() Options { return c.opts }

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string { return c.userAgent }

// Logger returns the logger the client was configured with.
func (c *Client) Logger() *slog.Logger { return c.log }

// Close releases idle pooled connections. The client stays usable and simply
// dials again if used after Close.
func (c *Client) Close() {
	c.pool.CloseIdleConnections()
}

// Get sends a GET with params in the query string and decodes the body into out.
func (c *Client) Get(ctx context.Context, host, path string, params any, auth AuthMethod, out any) error {
	return c.call(ctx, Request{Method: http.MethodGet, Host: host, Path: path, Params: params, Auth: auth, Encoding: Query}, out)
}

// Delete sends a DELETE with params in the query string and decodes the body into out.
func (c *Client) Delete(ctx context.Context, host, path string, params any, auth AuthMethod, out any) error {
	return c.call(ctx, Request{Method: http.MethodDelete, Host: host, Path: path, Params: params, Auth: auth, Encoding: Query}, out)
}

// Post sends a POST with params encoded as enc and decodes the body into out.
func (c *Client) Post(ctx context.Context, host, path string, params any, auth AuthMethod, enc Encoding, out any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Host: host, Path: path, Params: params, Auth: auth, Encoding: enc}, out)
}

// Put sends a PUT with params encoded as enc and decodes the body into out.
func (c *Client) Put(ctx context.Context, host, path string, params any, auth AuthMethod, enc Encoding, out any) error {
	return c.call(ctx, Request{Method: http.MethodPut, Host: host, Path: path, Params: params, Auth: auth, Encoding: enc}, out)
}

// Patch sends a PATCH with params encoded as enc and decodes the body into out.
func (c *Client) Patch(ctx context.Context, host, path string, params any, auth AuthMethod, enc Encoding, out any) error {
	return c.call(ctx, Request{Method: http.MethodPatch, Host: host, Path: path, Params: params, Auth: auth, Encoding: enc}, out)
}

func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Do executes req. Any status outside 2xx is returned as an *errx.Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, logBody, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.allow(req.Host); err != nil {
			c.metrics.limited(req.Host)
			return nil, err
		}
	}

	ctx, log, _ := slogx.WithRequestID(ctx, c.log)
	httpReq = httpReq.WithContext(ctx)

	log.Debug("vonage request",
		"method", httpReq.Method,
		"url", redactURL(httpReq.URL),
		"headers", slogx.RedactHeader(httpReq.Header),
		"body", logBody,
		"auth", req.Auth.String(),
	)

	method := httpReq.Method
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		err = redactURLError(err, httpReq.URL)
		c.metrics.observe(req.Host, method, 0, time.Since(start))
		log.Debug("vonage request failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, errx.Wrap(errx.KindTransportFailure, err, method+" "+req.Host+req.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	took := time.Since(start)
	c.metrics.observe(req.Host, method, resp.StatusCode, took)
	if err != nil {
		return nil, errx.Wrap(errx.KindTransportFailure, err, "read response body")
	}

	log.Debug("vonage response",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"duration_ms", took.Milliseconds(),
		"bytes", len(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := errorFromResponse(resp.StatusCode, resp.Header, body)
		log.Warn("vonage api error",
			"status", resp.StatusCode,
			"kind", e.Kind.String(),
			"message", e.Message,
			"path", req.Path,
		)
		return nil, e
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

// build turns req into an *http.Request and returns the redacted form of
// its params for logging.
func (c *Client) build(ctx context.Context, req Request) (*http.Request, any, error) {
	method := strings.ToUpper(req.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, nil, errx.Newf(errx.KindValidation, "unsupported method %q", req.Method)
	}
	if reason := checkHost(req.Host); reason != "" {
		return nil, nil, errx.Newf(errx.KindValidation, "host %q %s", req.Host, reason)
	}
	if !strings.HasPrefix(req.Path, "/") {
		return nil, nil, errx.Newf(errx.KindValidation, "path %q must start with /", req.Path)
	}

	u, err := url.Parse("https://" + req.Host + req.Path)
	if err != nil {
		return nil, nil, errx.Wrap(errx.KindValidation, err, "build request url")
	}

	enc := req.Encoding
	if method == http.MethodGet || method == http.MethodDelete {
		enc = Query
	}

	header := make(http.Header)
	for k, vs := range req.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	header.Set("User-Agent", c.userAgent)
	header.Set("Accept", "application/json")

	switch req.Auth.Kind {
	case KindNone, KindSignature:
	case KindBasic:
		h, err := c.auth.BasicHeader()
		if err != nil {
			return nil, nil, err
		}
		header.Set("Authorization", h)
	case KindJWT:
		h, err := c.auth.JWTHeader()
		if err != nil {
			return nil, nil, err
		}
		header.Set("Authorization", h)
	case KindOAuth2:
		if req.Auth.Token() == "" {
			return nil, nil, errx.New(errx.KindInvalidAuthConfig, "oauth2 auth requires an access token")
		}
		header.Set("Authorization", "Bearer "+req.Auth.Token())
	default:
		return nil, nil, errx.Newf(errx.KindInvalidAuthConfig, "unknown auth kind %d", int(req.Auth.Kind))
	}

	// Signed requests and non-JSON encodings work on flat key/value pairs.
	var values url.Values
	if enc != JSON || req.Auth.Kind == KindSignature {
		values, err = flatten(req.Params)
		if err != nil {
			return nil, nil, errx.Wrap(errx.KindValidation, err, "encode params")
		}
	}

	if req.Auth.Kind == KindSignature {
		flat := single(values)
		if _, ok := flat["api_key"]; !ok && c.auth.HasBasic() {
			flat["api_key"] = c.auth.APIKey()
		}
		signed, err := c.auth.SignParams(flat)
		if err != nil {
			return nil, nil, err
		}
		values = make(url.Values, len(signed))
		for k, v := range signed {
			values.Set(k, v)
		}
	}

	var (
		body    io.Reader
		logBody any
	)
	switch enc {
	case Query:
		q := u.Query()
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		logBody = nil
	case Form:
		body = strings.NewReader(values.Encode())
		header.Set("Content-Type", "application/x-www-form-urlencoded")
		logBody = slogx.RedactValues(single(values))
	case JSON:
		var payload any = req.Params
		if req.Auth.Kind == KindSignature {
			payload = single(values)
		}
		b, err := encodeJSON(payload)
		if err != nil {
			return nil, nil, errx.Wrap(errx.KindValidation, err, "encode params")
		}
		if b != nil {
			body = bytes.NewReader(b)
			header.Set("Content-Type", "application/json")
			logBody = redactJSON(b)
		}
	default:
		return nil, nil, errx.Newf(errx.KindValidation, "unknown encoding %d", int(enc))
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, nil, errx.Wrap(errx.KindValidation, err, "build request")
	}
	httpReq.Header = header
	return httpReq, logBody, nil
}

func redactJSON(b []byte) any {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return "<unparseable json>"
	}
	return slogx.RedactAny(v)
}

// redactURL masks sensitive query parameters such as sig or api_secret and
// shortens identifiers such as api_key.
func redactURL(u *url.URL) string {
	q := u.Query()
	for k := range q {
		q.Set(k, slogx.RedactValue(k, q.Get(k)))
	}
	cp := *u
	cp.RawQuery = q.Encode()
	return cp.String()
}

// redactURLError rewrites the URL carried by a *url.Error, which for signed
// GET and DELETE requests holds the signature in its query string.
func redactURLError(err error, u *url.URL) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(u), Err: ue.Err}
}
