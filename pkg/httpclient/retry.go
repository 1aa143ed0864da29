package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/slogx"
	"github.com/cenkalti/backoff/v4"
)

// retryTransport re-sends idempotent requests whose previous attempt failed
// before any response arrived (refused or reset connections, failed TLS
// handshakes). HTTP statuses, timeouts and cancellations are never retried,
// and neither are POST or PATCH.
type retryTransport struct {
	next       http.RoundTripper
	maxRetries int
	newBackOff func() backoff.BackOff
	log        *slog.Logger
}

func newRetryTransport(next http.RoundTripper, maxRetries int, log *slog.Logger) *retryTransport {
	return &retryTransport{
		next:       next,
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = 0
			return b
		},
		log: log,
	}
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// isConnectionError reports whether err happened while connecting, without
// a response. Timeouts and context errors are excluded.
func isConnectionError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	return true
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.maxRetries == 0 || !isIdempotent(req.Method) {
		return t.next.RoundTrip(req)
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	attempt := 0

	var resp *http.Response
	op := func() error {
		r := req
		if attempt > 0 {
			r = req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return backoff.Permanent(err)
				}
				r.Body = body
			}
		}
		attempt++

		res, err := t.next.RoundTrip(r)
		if err != nil {
			if !isConnectionError(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = res
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(t.maxRetries)), ctx)
	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		slogx.FromContextOr(ctx, t.log).Debug("retrying request after connection failure",
			"method", req.Method,
			"host", req.URL.Host,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
