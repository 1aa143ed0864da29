package vonage

import (
	"context"

	"github.com/aussiebroadwan/vonage/pkg/camara"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const numberVerificationPath = "/camara/number-verification/v031/verify"

// NumberVerification confirms that a device's mobile connection belongs to a
// given number. It uses the front-channel flow: send the device to
// AuthorizationURL, exchange the code it returns, then call Verify.
type NumberVerification struct {
	client  *httpclient.Client
	host    string
	network *camara.NetworkAuth
}

// AuthorizationURL builds the URL the device has to open.
func (n *NumberVerification) AuthorizationURL(r camara.AuthorizationURLRequest) (string, error) {
	return n.network.BuildAuthorizationURL(r)
}

// ExchangeCode trades the redirect code for an access token.
func (n *NumberVerification) ExchangeCode(ctx context.Context, code, redirectURI string) (*camara.Token, error) {
	return n.network.ExchangeCode(ctx, code, redirectURI)
}

// VerificationRequest holds the number to check against the device.
type VerificationRequest struct {
	PhoneNumber string
	// Hashed sends the SHA-256 of "+<E.164>" instead of the number itself.
	Hashed bool
}

// Verify reports whether the device that authorized token uses the number in r.
func (n *NumberVerification) Verify(ctx context.Context, token *camara.Token, r VerificationRequest) (bool, error) {
	if token == nil || token.AccessToken == "" {
		return false, errx.New(errx.KindValidation, "access token is required")
	}

	body := map[string]string{}
	if r.Hashed {
		h, err := phonex.Hash(r.PhoneNumber)
		if err != nil {
			return false, err
		}
		body["hashedPhoneNumber"] = h
	} else {
		p, err := phonex.WithPlus(r.PhoneNumber)
		if err != nil {
			return false, err
		}
		body["phoneNumber"] = p
	}

	var out struct {
		DevicePhoneNumberVerified bool `json:"devicePhoneNumberVerified"`
	}
	if err := n.client.Post(ctx, n.host, numberVerificationPath, body, httpclient.OAuth2(token.AccessToken), httpclient.JSON, &out); err != nil {
		return false, err
	}
	return out.DevicePhoneNumberVerified, nil
}
