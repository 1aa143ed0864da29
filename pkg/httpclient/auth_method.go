package httpclient

import "fmt"

// AuthKind names how a request authenticates.
type AuthKind int

const (
	// KindNone sends no credentials.
	KindNone AuthKind = iota
	KindBasic
	KindJWT
	KindOAuth2
	KindSignature
)

func (k AuthKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBasic:
		return "basic"
	case KindJWT:
		return "jwt"
	case KindOAuth2:
		return "oauth2"
	case KindSignature:
		return "signature"
	default:
		return fmt.Sprintf("auth(%d)", int(k))
	}
}

// AuthMethod selects the authentication artifact of a request. OAuth2 carries
// the bearer token it authenticates with; the other kinds derive theirs from
// the client's credentials.
type AuthMethod struct {
	Kind  AuthKind
	token string
}

var (
	AuthNone      = AuthMethod{Kind: KindNone}
	AuthBasic     = AuthMethod{Kind: KindBasic}
	AuthJWT       = AuthMethod{Kind: KindJWT}
	AuthSignature = AuthMethod{Kind: KindSignature}
)

// OAuth2 authenticates with a CAMARA access token.
func OAuth2(accessToken string) AuthMethod {
	return AuthMethod{Kind: KindOAuth2, token: accessToken}
}

// Token returns the OAuth2 bearer token, empty for other kinds.
func (m AuthMethod) Token() string { return m.token }

// String names the kind and never prints the token.
func (m AuthMethod) String() string { return m.Kind.String() }

// Encoding is the wire format of request params.
type Encoding int

const (
	// JSON sends params as an application/json body.
	JSON Encoding = iota
	// Form sends params as an application/x-www-form-urlencoded body.
	Form
	// Query sends params in the URL query string. GET and DELETE always use it.
	Query
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case Form:
		return "form"
	case Query:
		return "query"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}
