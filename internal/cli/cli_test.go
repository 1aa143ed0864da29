package cli

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/vonage/internal/app"
	"github.com/aussiebroadwan/vonage/pkg/cryptox"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/jwtx"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

var vonageEnv = []string{
	"VONAGE_API_KEY", "VONAGE_API_SECRET", "VONAGE_APPLICATION_ID", "VONAGE_PRIVATE_KEY_PATH",
	"VONAGE_SIGNATURE_SECRET", "VONAGE_SIGNATURE_METHOD", "VONAGE_API_HOST", "VONAGE_REST_HOST",
	"VONAGE_NETWORK_HOST", "VONAGE_OIDC_HOST", "VONAGE_VIDEO_HOST", "VONAGE_TIMEOUT",
	"VONAGE_MAX_RETRIES", "VONAGE_ENV", "VONAGE_LOG_LEVEL", "VONAGE_LOG_FORMAT",
}

// run executes the command tree with config as the YAML config file and no
// other configuration source.
func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	_, out, err := runCommand(t, config, args...)
	return out, err
}

// runCommand is run that also returns the command that executed.
func runCommand(t *testing.T, config string, args ...string) (*cobra.Command, string, error) {
	t.Helper()

	for _, k := range vonageEnv {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(config), 0o600))

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--env-file", filepath.Join(dir, "none.env")}, args...))

	executed, err := execute(cmd)
	return executed, stdout.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestSign(t *testing.T) {
	out, err := run(t, "signature_secret: secret\nsignature_method: sha256\n",
		"sign", "to=447700900000", "text=hello world", "timestamp=1700000000")
	require.NoError(t, err)

	signed := decode[map[string]string](t, out)
	require.Equal(t, "1700000000", signed["timestamp"])
	require.NotEmpty(t, signed["sig"])
	require.True(t, cryptox.Verify(signed, "secret", cryptox.SHA256))
	require.False(t, cryptox.Verify(signed, "other", cryptox.SHA256))
}

func TestSignFlagsOverrideConfig(t *testing.T) {
	out, err := run(t, "signature_secret: configured\n",
		"sign", "--secret", "flag", "--method", "md5hash", "a=1", "timestamp=1")
	require.NoError(t, err)

	signed := decode[map[string]string](t, out)
	require.True(t, cryptox.Verify(signed, "flag", cryptox.MD5Hash))
}

func TestSignErrors(t *testing.T) {
	t.Run("no secret", func(t *testing.T) {
		_, err := run(t, "", "sign", "a=1")
		require.ErrorIs(t, err, errx.ErrInvalidAuthConfig)
	})

	t.Run("bad method", func(t *testing.T) {
		_, err := run(t, "", "sign", "--secret", "s", "--method", "crc32", "a=1")
		require.ErrorIs(t, err, errx.ErrInvalidAuthConfig)
	})

	t.Run("malformed parameter", func(t *testing.T) {
		_, err := run(t, "", "sign", "--secret", "s", "novalue")
		require.ErrorContains(t, err, "key=value")
	})
}

func TestCheckSignature(t *testing.T) {
	params := map[string]string{"msisdn": "447700900000", "text": "hi", "timestamp": "1700000000"}
	sig, err := cryptox.Sign(params, "secret", cryptox.SHA512)
	require.NoError(t, err)

	args := []string{"check-signature", "--secret", "secret", "--method", "sha512",
		"msisdn=447700900000", "timestamp=1700000000"}

	out, err := run(t, "", append(args, "text=hi", "sig="+sig)...)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"valid": true}, decode[map[string]bool](t, out))

	out, err = run(t, "", append(args, "text=tampered", "sig="+sig)...)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"valid": false}, decode[map[string]bool](t, out))

	_, err = run(t, "", append(args, "text=hi")...)
	require.ErrorContains(t, err, "sig=")
}

func TestNormalize(t *testing.T) {
	out, err := run(t, "", "normalize", "+44 7700 900000", "0014155550100")
	require.NoError(t, err)

	got := decode[[]normalized](t, out)
	require.Len(t, got, 2)

	hash, err := phonex.Hash("447700900000")
	require.NoError(t, err)
	require.Equal(t, normalized{
		Input: "+44 7700 900000",
		E164:  "447700900000",
		Plus:  "+447700900000",
		Tel:   "tel:+447700900000",
		Hash:  hash,
	}, got[0])
	require.Equal(t, "14155550100", got[1].E164)

	_, err = run(t, "", "normalize", "447700900000", "12")
	require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
}

func writeKey(t *testing.T) (string, []byte) {
	t.Helper()
	key, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "private.key")
	require.NoError(t, os.WriteFile(path, key, 0o600))
	return path, key
}

func TestJWT(t *testing.T) {
	path, key := writeKey(t)
	config := "application_id: app-123\nprivate_key_path: " + path + "\n"

	out, err := run(t, config, "jwt", "--sub", "alice", "--ttl", "1m", "--claim", "n=3", "--claim", "note=plain")
	require.NoError(t, err)

	token := decode[map[string]string](t, out)["token"]
	priv, err := jwtx.ParseRSAPrivateKey(key)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return &priv.PublicKey, nil },
		jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)

	require.Equal(t, "app-123", claims["application_id"])
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, "plain", claims["note"])
	require.InDelta(t, 3, claims["n"], 0)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	require.InDelta(t, 60, exp-iat, 0)
}

func TestJWTVerify(t *testing.T) {
	path, _ := writeKey(t)
	config := "application_id: app-123\nprivate_key_path: " + path + "\n"

	out, err := run(t, config, "jwt", "--sub", "bob")
	require.NoError(t, err)
	token := decode[map[string]string](t, out)["token"]

	out, err = run(t, config, "jwt", "verify", token)
	require.NoError(t, err)
	claims := decode[map[string]any](t, out)
	require.Equal(t, "app-123", claims["application_id"])
	require.Equal(t, "bob", claims["sub"])

	_, err = run(t, config, "jwt", "verify", token+"x")
	require.ErrorIs(t, err, errx.ErrAuthenticationFailure)
}

func TestAppClosedAfterFailure(t *testing.T) {
	path, _ := writeKey(t)
	config := "application_id: app-123\nprivate_key_path: " + path + "\n"

	cmd, _, err := runCommand(t, config, "jwt", "verify", "not-a-token")
	require.ErrorIs(t, err, errx.ErrAuthenticationFailure)
	a := app.FromContext(cmd.Context())
	require.NotNil(t, a)
	require.True(t, a.Closed())

	cmd, _, err = runCommand(t, config, "normalize", "447700900000")
	require.NoError(t, err)
	require.True(t, app.FromContext(cmd.Context()).Closed())
}

func TestJWTNeedsApplication(t *testing.T) {
	_, err := run(t, "api_key: k\napi_secret: s\n", "jwt")
	require.ErrorIs(t, err, errx.ErrJWTGenerationFailure)
}

func TestKeygen(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.pem")

	stdout, err := run(t, "", "keygen", "--out", out)
	require.NoError(t, err)
	paths := decode[map[string]string](t, stdout)
	require.Equal(t, out, paths["private_key_path"])
	require.Equal(t, strings.TrimSuffix(out, ".pem")+".pub", paths["public_key_path"])

	priv, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(priv), "BEGIN PRIVATE KEY")
	_, err = jwtx.NewIssuer("app", priv)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	pub, err := os.ReadFile(paths["public_key_path"])
	require.NoError(t, err)
	require.Contains(t, string(pub), "BEGIN PUBLIC KEY")

	_, err = run(t, "", "keygen", "--out", out)
	require.ErrorContains(t, err, "already exists")

	_, err = run(t, "", "keygen", "--bits", "1024")
	require.Error(t, err)
}

func TestNumberVerificationURL(t *testing.T) {
	path, _ := writeKey(t)
	config := "application_id: app-123\nprivate_key_path: " + path + "\n"

	out, err := run(t, config, "number-verification", "url",
		"--redirect-uri", "https://example.com/cb", "--login-hint", "+44 7700 900000", "--state", "abc")
	require.NoError(t, err)

	got := decode[map[string]string](t, out)
	require.Equal(t, "abc", got["state"])

	u, err := url.Parse(got["url"])
	require.NoError(t, err)
	require.Equal(t, "https", u.Scheme)
	require.Equal(t, httpclient.DefaultOIDCHost, u.Host)
	q := u.Query()
	require.Equal(t, "app-123", q.Get("client_id"))
	require.Equal(t, "https://example.com/cb", q.Get("redirect_uri"))
	require.Equal(t, "+447700900000", q.Get("login_hint"))
	require.Equal(t, "code", q.Get("response_type"))

	out, err = run(t, config, "number-verification", "url", "--redirect-uri", "https://example.com/cb")
	require.NoError(t, err)
	require.NotEmpty(t, decode[map[string]string](t, out)["state"])
}

func TestValidationHappensBeforeIO(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation, nothing answers there.
	config := "api_key: k\napi_secret: s\nrest_host: 192.0.2.1\nnetwork_host: 192.0.2.1\n"

	t.Run("sms", func(t *testing.T) {
		_, err := run(t, config, "sms", "send", "--from", "Acme", "--to", "12", "--text", "hi")
		require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
	})

	t.Run("sms type", func(t *testing.T) {
		_, err := run(t, config, "sms", "send", "--from", "Acme", "--to", "447700900000", "--text", "hi", "--type", "fax")
		require.ErrorIs(t, err, errx.ErrValidation)
	})

	t.Run("sim swap", func(t *testing.T) {
		_, err := run(t, config, "sim-swap", "check", "447700900000", "--max-age", "9999")
		require.ErrorIs(t, err, errx.ErrValidation)
	})
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "api_key: k\n", "jwt")
	require.ErrorIs(t, err, errx.ErrInvalidAuthConfig)

	_, err = run(t, "not_a_field: 1\n", "normalize", "447700900000")
	require.ErrorContains(t, err, "not_a_field")
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeError(&buf, &errx.Error{Kind: errx.KindRateLimited, StatusCode: 429, Message: "slow down"})

	var body errorBody
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	require.Equal(t, "rate_limited", body.Error.Kind)
	require.Equal(t, 429, body.Error.StatusCode)
	require.Contains(t, body.Error.Message, "slow down")

	buf.Reset()
	writeError(&buf, os.ErrNotExist)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	require.Equal(t, "usage", body.Error.Kind)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", os.ErrNotExist, 2},
		{"validation", errx.New(errx.KindValidation, "bad"), 2},
		{"auth config", errx.New(errx.KindInvalidAuthConfig, "bad"), 2},
		{"phone", errx.New(errx.KindInvalidPhoneNumber, "bad"), 2},
		{"server", errx.New(errx.KindServerFailure, "boom"), 1},
		{"transport", errx.New(errx.KindTransportFailure, "down"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
