package cryptox

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SignatureMethod selects the digest used for signed requests.
type SignatureMethod string

// The bare algorithm names and their *_hmac aliases are keyed HMACs using the
// signature secret. The *hash names append the secret to the signing string
// and hash it unkeyed.
const (
	MD5    SignatureMethod = "md5"
	SHA1   SignatureMethod = "sha1"
	SHA256 SignatureMethod = "sha256"
	SHA512 SignatureMethod = "sha512"

	MD5HMAC    SignatureMethod = "md5_hmac"
	SHA1HMAC   SignatureMethod = "sha1_hmac"
	SHA256HMAC SignatureMethod = "sha256_hmac"
	SHA512HMAC SignatureMethod = "sha512_hmac"

	MD5Hash    SignatureMethod = "md5hash"
	SHA1Hash   SignatureMethod = "sha1hash"
	SHA256Hash SignatureMethod = "sha256hash"
	SHA512Hash SignatureMethod = "sha512hash"

	// DefaultSignatureMethod is used when no method is configured.
	DefaultSignatureMethod = MD5
)

const (
	// SignatureParam is the parameter carrying the signature.
	SignatureParam = "sig"

	// TimestampParam is the parameter carrying the signing time in unix seconds.
	TimestampParam = "timestamp"
)

// ErrUnknownSignatureMethod is returned for methods outside the constants above.
var ErrUnknownSignatureMethod = errors.New("cryptox: unknown signature method")

type digest struct {
	newHash func() hash.Hash
	keyed   bool
}

var digests = map[SignatureMethod]digest{
	MD5:        {md5.New, true},
	SHA1:       {sha1.New, true},
	SHA256:     {sha256.New, true},
	SHA512:     {sha512.New, true},
	MD5HMAC:    {md5.New, true},
	SHA1HMAC:   {sha1.New, true},
	SHA256HMAC: {sha256.New, true},
	SHA512HMAC: {sha512.New, true},
	MD5Hash:    {md5.New, false},
	SHA1Hash:   {sha1.New, false},
	SHA256Hash: {sha256.New, false},
	SHA512Hash: {sha512.New, false},
}

// ParseSignatureMethod validates a method name. An empty name yields the default.
func ParseSignatureMethod(name string) (SignatureMethod, error) {
	if name == "" {
		return DefaultSignatureMethod, nil
	}
	m := SignatureMethod(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := digests[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSignatureMethod, name)
	}
	return m, nil
}

// SigningString builds the canonical string that gets signed:
//
//	&key1=value1&key2=value2...
//
// Keys are sorted, "sig" is excluded, and '&' and '=' inside values become '_'.
// The replacement is lossy; it is kept for compatibility with the API.
func SigningString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == SignatureParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(sanitizeValue(params[k]))
	}
	return b.String()
}

var valueSanitizer = strings.NewReplacer("&", "_", "=", "_")

func sanitizeValue(v string) string {
	return valueSanitizer.Replace(v)
}

// Sign returns the lowercase hex signature of params. When params has no
// timestamp one is added to the map using the current unix time, so the
// caller must send the same map it signed. A nil map is signed as a set
// holding only the timestamp; use SignParams to get that set back.
func Sign(params map[string]string, secret string, method SignatureMethod) (string, error) {
	if params == nil {
		params = make(map[string]string, 1)
	}
	if params[TimestampParam] == "" {
		params[TimestampParam] = strconv.FormatInt(time.Now().Unix(), 10)
	}
	return computeSignature(params, secret, method)
}

// Verify recomputes the signature of params and compares it with params["sig"]
// in constant time.
func Verify(params map[string]string, secret string, method SignatureMethod) bool {
	got := params[SignatureParam]
	if got == "" {
		return false
	}

	want, err := computeSignature(params, secret, method)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(strings.ToLower(got)), []byte(want)) == 1
}

func computeSignature(params map[string]string, secret string, method SignatureMethod) (string, error) {
	if method == "" {
		method = DefaultSignatureMethod
	}
	d, ok := digests[method]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSignatureMethod, method)
	}

	message := SigningString(params)

	var h hash.Hash
	if d.keyed {
		h = hmac.New(d.newHash, []byte(secret))
		h.Write([]byte(message))
	} else {
		h = d.newHash()
		h.Write([]byte(message + secret))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
