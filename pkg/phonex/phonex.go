// Package phonex canonicalises phone numbers to E.164 digits.
package phonex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/vonage/pkg/errx"
)

// E164Pattern is the validation applied to every normalised number: 7 to 15
// digits, no leading zero.
const E164Pattern = `^[1-9]\d{6,14}$`

var reE164 = regexp.MustCompile(E164Pattern)

// Normalize strips every non-digit and all leading zeros from s, then checks
// the result against E164Pattern. "+44 7700 900000" and "0044 7700900000"
// both normalise to "447700900000".
func Normalize(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := strings.TrimLeft(b.String(), "0")
	if !reE164.MatchString(digits) {
		return "", errx.Newf(errx.KindInvalidPhoneNumber, "invalid phone number %q", s)
	}
	return digits, nil
}

// NormalizeValue accepts a string or any Go integer type. Other types fail
// with KindInvalidPhoneNumberType.
func NormalizeValue(v any) (string, error) {
	switch n := v.(type) {
	case string:
		return Normalize(n)
	case int:
		return Normalize(strconv.FormatInt(int64(n), 10))
	case int8:
		return Normalize(strconv.FormatInt(int64(n), 10))
	case int16:
		return Normalize(strconv.FormatInt(int64(n), 10))
	case int32:
		return Normalize(strconv.FormatInt(int64(n), 10))
	case int64:
		return Normalize(strconv.FormatInt(n, 10))
	case uint:
		return Normalize(strconv.FormatUint(uint64(n), 10))
	case uint8:
		return Normalize(strconv.FormatUint(uint64(n), 10))
	case uint16:
		return Normalize(strconv.FormatUint(uint64(n), 10))
	case uint32:
		return Normalize(strconv.FormatUint(uint64(n), 10))
	case uint64:
		return Normalize(strconv.FormatUint(n, 10))
	default:
		return "", errx.Newf(errx.KindInvalidPhoneNumberType, "phone number must be a string or integer, got %T", v)
	}
}

// WithPlus returns the normalised number prefixed with "+".
func WithPlus(s string) (string, error) {
	n, err := Normalize(s)
	if err != nil {
		return "", err
	}
	return "+" + n, nil
}

// TelURI returns the "tel:+<E.164>" form used as an OIDC login hint.
func TelURI(s string) (string, error) {
	n, err := Normalize(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("tel:+%s", n), nil
}

// Hash returns the lowercase hex SHA-256 of the "+<E.164>" form, the
// hashedPhoneNumber accepted by Number Verification.
func Hash(s string) (string, error) {
	n, err := WithPlus(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:]), nil
}
