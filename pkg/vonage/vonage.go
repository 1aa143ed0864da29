package vonage

import (
	"github.com/aussiebroadwan/vonage/pkg/auth"
	"github.com/aussiebroadwan/vonage/pkg/camara"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
)

// Version is the SDK release reported in the User-Agent header.
const Version = "0.1.0"

// Vonage holds the shared engine and every product façade. It is safe for
// concurrent use.
type Vonage struct {
	http    *httpclient.Client
	network *camara.NetworkAuth

	SMS                *SMS
	Messages           *Messages
	Verify             *Verify
	Voice              *Voice
	NumberInsight      *NumberInsight
	SimSwap            *SimSwap
	NumberVerification *NumberVerification
	Video              *Video
}

// New validates creds and opts and builds a client. A nil opts means
// httpclient.DefaultOptions.
func New(creds auth.Credentials, opts *httpclient.Options) (*Vonage, error) {
	a, err := auth.New(creds)
	if err != nil {
		return nil, err
	}

	o := httpclient.DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.SDKVersion == "" {
		o.SDKVersion = Version
	}

	c, err := httpclient.New(a, &o)
	if err != nil {
		return nil, err
	}
	return NewWithClient(c), nil
}

// NewWithClient builds the façades over an existing engine.
func NewWithClient(c *httpclient.Client) *Vonage {
	o := c.Options()
	network := camara.NewNetworkAuth(c)

	return &Vonage{
		http:    c,
		network: network,

		SMS:                &SMS{client: c, host: o.RestHost},
		Messages:           &Messages{client: c, host: o.APIHost},
		Verify:             &Verify{client: c, host: o.APIHost},
		Voice:              &Voice{client: c, host: o.APIHost},
		NumberInsight:      &NumberInsight{client: c, host: o.APIHost},
		SimSwap:            &SimSwap{client: c, host: o.NetworkHost, network: network},
		NumberVerification: &NumberVerification{client: c, host: o.NetworkHost, network: network},
		Video:              &Video{client: c, host: o.VideoHost},
	}
}

// HTTPClient returns the engine shared by the façades.
func (v *Vonage) HTTPClient() *httpclient.Client { return v.http }

// Auth returns the credential store.
func (v *Vonage) Auth() *auth.Auth { return v.http.Auth() }

// NetworkAuth returns the CAMARA flow controller.
func (v *Vonage) NetworkAuth() *camara.NetworkAuth { return v.network }

// Close releases pooled connections.
func (v *Vonage) Close() { v.http.Close() }

// applicationAuth prefers the application JWT and falls back to Basic for
// APIs that accept both.
func applicationAuth(c *httpclient.Client) httpclient.AuthMethod {
	if c.Auth().HasApplication() {
		return httpclient.AuthJWT
	}
	return httpclient.AuthBasic
}
