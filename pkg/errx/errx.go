// Package errx defines the error taxonomy shared by every layer of the SDK.
//
// All failures surfaced by the SDK are *Error values. Callers branch on the
// Kind, either directly or through errors.Is against the predefined sentinels:
//
//	if errors.Is(err, errx.ErrRateLimited) {
//		// back off and try again later
//	}
//
//	var e *errx.Error
//	if errors.As(err, &e) {
//		fmt.Println(e.StatusCode, e.ContentType, e.Body)
//	}
package errx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an SDK failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidAuthConfig
	KindInvalidHTTPOptions
	KindJWTGenerationFailure
	KindAuthenticationFailure
	KindForbidden
	KindRateLimited
	KindServerFailure
	KindTransportFailure
	KindProtocolFailure
	KindInvalidPhoneNumber
	KindInvalidPhoneNumberType

	// KindValidation is returned when a request object fails validation
	// before any network I/O happens.
	KindValidation

	// KindAPIFailure is returned when the API answered 2xx but the payload
	// reports a product-level failure (e.g. an SMS status other than "0").
	KindAPIFailure
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindInvalidAuthConfig:      "invalid_auth_config",
	KindInvalidHTTPOptions:     "invalid_http_options",
	KindJWTGenerationFailure:   "jwt_generation_failure",
	KindAuthenticationFailure:  "authentication_failure",
	KindForbidden:              "forbidden",
	KindRateLimited:            "rate_limited",
	KindServerFailure:          "server_failure",
	KindTransportFailure:       "transport_failure",
	KindProtocolFailure:        "protocol_failure",
	KindInvalidPhoneNumber:     "invalid_phone_number",
	KindInvalidPhoneNumberType: "invalid_phone_number_type",
	KindValidation:             "validation_error",
	KindAPIFailure:             "api_failure",
}

// String returns the snake_case identifier of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MaxBodyExcerpt bounds the number of response bytes kept on an Error.
const MaxBodyExcerpt = 2048

// Error is the single error type returned by the SDK.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// StatusCode is the HTTP status that produced the error, 0 when the
	// failure happened before or outside an HTTP exchange.
	StatusCode int

	// ContentType is the media type of the upstream response (parameters stripped).
	ContentType string

	// Body is a bounded excerpt of the upstream response body.
	Body string

	// Data is the decoded JSON body when the upstream response was JSON.
	Data any

	// Message is a human readable description.
	Message string

	// RetryAfter is the value of the Retry-After header on a 429, in seconds.
	RetryAfter int

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("vonage: ")
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind. This lets the
// sentinels below be used with errors.Is regardless of status or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons. They carry only a Kind.
var (
	ErrInvalidAuthConfig      = &Error{Kind: KindInvalidAuthConfig}
	ErrInvalidHTTPOptions     = &Error{Kind: KindInvalidHTTPOptions}
	ErrJWTGenerationFailure   = &Error{Kind: KindJWTGenerationFailure}
	ErrAuthenticationFailure  = &Error{Kind: KindAuthenticationFailure}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrRateLimited            = &Error{Kind: KindRateLimited}
	ErrServerFailure          = &Error{Kind: KindServerFailure}
	ErrTransportFailure       = &Error{Kind: KindTransportFailure}
	ErrProtocolFailure        = &Error{Kind: KindProtocolFailure}
	ErrInvalidPhoneNumber     = &Error{Kind: KindInvalidPhoneNumber}
	ErrInvalidPhoneNumberType = &Error{Kind: KindInvalidPhoneNumberType}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrAPIFailure             = &Error{Kind: KindAPIFailure}
)

// New creates an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// KindForStatus maps an HTTP status code of 400 or above to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthenticationFailure
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500 && status <= 599:
		return KindServerFailure
	default:
		return KindProtocolFailure
	}
}

// Excerpt bounds body to MaxBodyExcerpt bytes.
func Excerpt(body []byte) string {
	if len(body) <= MaxBodyExcerpt {
		return string(body)
	}
	return string(body[:MaxBodyExcerpt]) + "...(truncated)"
}
