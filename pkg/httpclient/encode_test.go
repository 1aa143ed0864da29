package httpclient

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	t.Parallel()

	type nested struct {
		Channel string `json:"channel"`
	}
	params := struct {
		To       string   `json:"to"`
		TTL      int      `json:"ttl"`
		Big      int64    `json:"big"`
		Flag     bool     `json:"flag"`
		Tags     []string `json:"tags"`
		Workflow []nested `json:"workflow"`
		Missing  *string  `json:"missing"`
		Meta     nested   `json:"meta"`
	}{
		To:       "447700900000",
		TTL:      300,
		Big:      9007199254740993,
		Flag:     true,
		Tags:     []string{"a", "b"},
		Workflow: []nested{{Channel: "sms"}},
		Meta:     nested{Channel: "voice"},
	}

	got, err := flatten(params)
	require.NoError(t, err)
	require.Equal(t, "447700900000", got.Get("to"))
	require.Equal(t, "300", got.Get("ttl"))
	require.Equal(t, "9007199254740993", got.Get("big"))
	require.Equal(t, "true", got.Get("flag"))
	require.Equal(t, []string{"a", "b"}, got["tags"])
	require.Equal(t, `{"channel":"sms"}`, got.Get("workflow"))
	require.Equal(t, `{"channel":"voice"}`, got.Get("meta"))
	require.NotContains(t, got, "missing")
}

func TestFlattenPassThrough(t *testing.T) {
	t.Parallel()

	in := url.Values{"a": {"1", "2"}}
	got, err := flatten(in)
	require.NoError(t, err)
	require.Equal(t, in, got)

	got.Add("a", "3")
	require.Len(t, in["a"], 2)

	got, err = flatten(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = flatten(42)
	require.Error(t, err)
}

func TestSingle(t *testing.T) {
	t.Parallel()

	require.Equal(t, map[string]string{"a": "1", "b": ""}, single(url.Values{"a": {"1", "2"}, "b": {""}}))
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	b, err := encodeJSON(nil)
	require.NoError(t, err)
	require.Nil(t, b)

	b, err = encodeJSON([]byte(`{"raw":true}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"raw":true}`, string(b))

	b, err = encodeJSON(map[string]int{"n": 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"n":1}`, string(b))

	_, err = encodeJSON(make(chan int))
	require.Error(t, err)
}

func TestErrorFromResponse(t *testing.T) {
	t.Parallel()

	h := http.Header{"Content-Type": {"text/html"}}
	e := errorFromResponse(http.StatusBadGateway, h, []byte("<html>bad gateway</html>"))
	require.ErrorIs(t, e, errx.ErrServerFailure)
	require.Equal(t, "text/html", e.ContentType)
	require.Equal(t, "Bad Gateway", e.Message)
	require.Nil(t, e.Data)

	h = http.Header{"Content-Type": {"application/json"}, "Retry-After": {"soon"}}
	e = errorFromResponse(http.StatusTooManyRequests, h, []byte(`{"error-text":"Throttled"}`))
	require.ErrorIs(t, e, errx.ErrRateLimited)
	require.Equal(t, "Throttled", e.Message)
	require.Zero(t, e.RetryAfter)
}

func TestResponseValue(t *testing.T) {
	t.Parallel()

	r := &Response{StatusCode: http.StatusOK, Body: []byte(`{"a":[1,2]}`)}
	require.True(t, r.IsJSON())
	v, err := r.Value()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": []any{float64(1), float64(2)}}, v)

	r = &Response{StatusCode: http.StatusOK, ContentType: "text/plain", Body: []byte("OK")}
	v, err = r.Value()
	require.NoError(t, err)
	require.Equal(t, "OK", v)
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://rest.nexmo.com/sms/json?api_key=qwerasdf&sig=abc&to=1")
	require.NoError(t, err)
	got := redactURL(u)
	require.NotContains(t, got, "sig=abc")
	require.Contains(t, got, "to=1")
	require.NotContains(t, got, "qwerasdf")
	require.Contains(t, got, "api_key=%2A%2A%2A%2Aasdf")
}

func TestRedactURLError(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://rest.nexmo.com/sms/json?api_key=qwerasdf&sig=abc&timestamp=1")
	require.NoError(t, err)

	cause := &url.Error{Op: "Get", URL: u.String(), Err: io.ErrUnexpectedEOF}
	got := redactURLError(cause, u)
	require.NotContains(t, got.Error(), "sig=abc")
	require.NotContains(t, got.Error(), "qwerasdf")
	require.ErrorIs(t, got, io.ErrUnexpectedEOF)

	plain := errors.New("boom")
	require.Same(t, plain, redactURLError(plain, u))
}
