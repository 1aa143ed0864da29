package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// StateBytes is the entropy of an OAuth2 state value.
const StateBytes = 16

// RandomString returns n random bytes as unpadded base64url.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("cryptox: random length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewState returns a value for the "state" parameter of a front-channel
// authorization request. The caller compares it with the state echoed to the
// redirect URI.
func NewState() (string, error) {
	return RandomString(StateBytes)
}
