package vonage_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/vonage/pkg/auth"
	"github.com/aussiebroadwan/vonage/pkg/cryptox"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
	"github.com/stretchr/testify/require"
)

const (
	testAppID   = "aaaaaaaa-bbbb-cccc-dddd-0123456789ab"
	testKey     = "qwerasdf"
	testSecret  = "1234qwerasdfzxcv"
	basicHeader = "Basic cXdlcmFzZGY6MTIzNHF3ZXJhc2Rmenhjdg=="
)

var (
	keyOnce sync.Once
	keyPEM  []byte
)

func privateKey(t *testing.T) []byte {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		keyPEM, err = cryptox.GenerateRSAKey(2048)
		if err != nil {
			panic(err)
		}
	})
	return keyPEM
}

func appCreds(t *testing.T) auth.Credentials {
	return auth.Credentials{APIKey: testKey, APISecret: testSecret, ApplicationID: testAppID, PrivateKey: privateKey(t)}
}

func basicCreds() auth.Credentials {
	return auth.Credentials{APIKey: testKey, APISecret: testSecret}
}

// recorded is one request seen by fakeAPI.
type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	JSON   map[string]any
	Auth   string
}

type canned struct {
	status int
	body   any
}

// fakeAPI answers every Vonage host from one TLS server.
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string]canned
	seen    []recorded
}

func (f *fakeAPI) reply(method, path string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method+" "+path] = canned{status: status, body: body}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	}
	switch {
	case strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"):
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &rec.JSON)
	case strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"):
		_ = r.ParseForm()
		rec.Form = r.PostForm
	}

	f.mu.Lock()
	f.seen = append(f.seen, rec)
	rp, ok := f.replies[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if rp.body == nil {
		w.WriteHeader(rp.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rp.status)
	_ = json.NewEncoder(w).Encode(rp.body)
}

func (f *fakeAPI) requests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.seen...)
}

func (f *fakeAPI) last(t *testing.T, path string) recorded {
	t.Helper()
	reqs := f.requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i]
		}
	}
	t.Fatalf("no request to %s", path)
	return recorded{}
}

func (f *fakeAPI) count(path string) int {
	n := 0
	for _, r := range f.requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func newTestVonage(t *testing.T, creds auth.Credentials) (*vonage.Vonage, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{replies: map[string]canned{}}
	srv := httptest.NewTLSServer(api)
	t.Cleanup(srv.Close)

	host := strings.TrimPrefix(srv.URL, "https://")
	opts := httpclient.DefaultOptions()
	opts.APIHost = host
	opts.RestHost = host
	opts.NetworkHost = host
	opts.VideoHost = host
	opts.TLSConfig = srv.Client().Transport.(*http.Transport).TLSClientConfig

	v, err := vonage.New(creds, &opts)
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v, api
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := vonage.New(auth.Credentials{APIKey: testKey}, nil)
	require.ErrorIs(t, err, errx.ErrInvalidAuthConfig)

	opts := httpclient.DefaultOptions()
	opts.PoolMaxSize = -1
	_, err = vonage.New(basicCreds(), &opts)
	require.ErrorIs(t, err, errx.ErrInvalidHTTPOptions)

	v, err := vonage.New(basicCreds(), nil)
	require.NoError(t, err)
	defer v.Close()
	require.True(t, strings.HasPrefix(v.HTTPClient().UserAgent(), "vonage-go-sdk/"+vonage.Version+" go/"))
	require.Equal(t, testKey, v.Auth().APIKey())
	require.NotNil(t, v.NetworkAuth())
	require.Equal(t, "rest.nexmo.com", v.HTTPClient().Options().RestHost)
}
