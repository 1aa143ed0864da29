package phonex_test

import (
	"regexp"
	"testing"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("strips plus and spaces", func(t *testing.T) {
		got, err := phonex.Normalize("+ 1 234 567 890")
		require.NoError(t, err)
		require.Equal(t, "1234567890", got)
	})

	t.Run("strips international 00 prefix", func(t *testing.T) {
		got, err := phonex.Normalize("00 1234567890")
		require.NoError(t, err)
		require.Equal(t, "1234567890", got)
	})

	t.Run("strips punctuation", func(t *testing.T) {
		got, err := phonex.Normalize("+44 (7700) 900-000")
		require.NoError(t, err)
		require.Equal(t, "447700900000", got)
	})

	t.Run("rejects text", func(t *testing.T) {
		_, err := phonex.Normalize("not a phone number")
		require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
	})

	t.Run("rejects too short", func(t *testing.T) {
		_, err := phonex.Normalize("123456")
		require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
	})

	t.Run("rejects too long", func(t *testing.T) {
		_, err := phonex.Normalize("1234567890123456")
		require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
	})

	t.Run("accepts bounds", func(t *testing.T) {
		_, err := phonex.Normalize("1234567")
		require.NoError(t, err)
		_, err = phonex.Normalize("123456789012345")
		require.NoError(t, err)
	})
}

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	got, err := phonex.NormalizeValue(447700900000)
	require.NoError(t, err)
	require.Equal(t, "447700900000", got)

	got, err = phonex.NormalizeValue(uint64(1234567890))
	require.NoError(t, err)
	require.Equal(t, "1234567890", got)

	_, err = phonex.NormalizeValue([]string{"1234567890"})
	require.ErrorIs(t, err, errx.ErrInvalidPhoneNumberType)

	_, err = phonex.NormalizeValue(12.5)
	require.ErrorIs(t, err, errx.ErrInvalidPhoneNumberType)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(phonex.E164Pattern)
	inputs := []string{
		"+ 1 234 567 890",
		"00 1234567890",
		"447700900000",
		"0044-7700-900000",
		"tel:+15555550100",
	}

	for _, in := range inputs {
		once, err := phonex.Normalize(in)
		require.NoError(t, err, in)
		twice, err := phonex.Normalize(once)
		require.NoError(t, err, in)
		require.Equal(t, once, twice)
		require.Regexp(t, re, once)
	}
}

func TestTelURIAndWithPlus(t *testing.T) {
	t.Parallel()

	uri, err := phonex.TelURI("447700900000")
	require.NoError(t, err)
	require.Equal(t, "tel:+447700900000", uri)

	plus, err := phonex.WithPlus("00447700900000")
	require.NoError(t, err)
	require.Equal(t, "+447700900000", plus)

	_, err = phonex.TelURI("abc")
	require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
}

func TestHash(t *testing.T) {
	t.Parallel()

	a, err := phonex.Hash("+44 7700 900000")
	require.NoError(t, err)
	b, err := phonex.Hash("447700900000")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 64)

	_, err = phonex.Hash("nope")
	require.ErrorIs(t, err, errx.ErrInvalidPhoneNumber)
}
