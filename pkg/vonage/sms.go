package vonage

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const smsPath = "/sms/json"

// SMS sends messages through the legacy SMS API.
type SMS struct {
	client *httpclient.Client
	host   string
}

// SMSRequest is one outbound SMS. To is normalized to E.164 digits.
type SMSRequest struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Text            string `json:"text"`
	Type            string `json:"type,omitempty"`
	TTL             int    `json:"ttl,omitempty"`
	StatusReportReq bool   `json:"status-report-req,omitempty"`
	Callback        string `json:"callback,omitempty"`
	ClientRef       string `json:"client-ref,omitempty"`
	MessageClass    int    `json:"message-class,omitempty"`
	AccountRef      string `json:"account-ref,omitempty"`
	EntityID        string `json:"entity-id,omitempty"`
	ContentID       string `json:"content-id,omitempty"`
}

// Validate checks r without sending it.
func (r SMSRequest) Validate() error {
	_, err := r.normalized()
	return err
}

func (r SMSRequest) normalized() (SMSRequest, error) {
	to, err := phonex.Normalize(r.To)
	if err != nil {
		return r, err
	}
	r.To = to

	errs := fieldErrors{}
	if r.From == "" {
		errs.add("from", requiredReason)
	}
	if r.Text == "" {
		errs.add("text", requiredReason)
	}
	if r.Type != "" && !oneOf(r.Type, "text", "binary", "unicode") {
		errs.add("type", "must be text, binary or unicode")
	}
	if r.TTL != 0 && (r.TTL < 20000 || r.TTL > 604800000) {
		errs.add("ttl", "must be between 20000 and 604800000 ms")
	}
	if r.MessageClass < 0 || r.MessageClass > 3 {
		errs.add("message-class", "must be between 0 and 3")
	}
	if len(r.ClientRef) > 100 {
		errs.add("client-ref", "too long (max 100)")
	}
	return r, errs.err()
}

// SMSMessage is the per-part outcome of a send.
type SMSMessage struct {
	To               string `json:"to"`
	MessageID        string `json:"message-id"`
	Status           string `json:"status"`
	RemainingBalance string `json:"remaining-balance"`
	MessagePrice     string `json:"message-price"`
	Network          string `json:"network"`
	ClientRef        string `json:"client-ref"`
	AccountRef       string `json:"account-ref"`
	ErrorText        string `json:"error-text"`
}

// SMSResponse lists one entry per message part.
type SMSResponse struct {
	MessageCount string       `json:"message-count"`
	Messages     []SMSMessage `json:"messages"`
}

// Send submits r. The request is signed when the credentials carry a
// signature secret and uses Basic auth otherwise. A part whose status is not
// "0" fails the send with KindAPIFailure; the full response is in Data.
func (s *SMS) Send(ctx context.Context, r SMSRequest) (*SMSResponse, error) {
	req, err := r.normalized()
	if err != nil {
		return nil, err
	}

	method := httpclient.AuthBasic
	if s.client.Auth().HasSignature() {
		method = httpclient.AuthSignature
	}

	var resp SMSResponse
	if err := s.client.Post(ctx, s.host, smsPath, req, method, httpclient.Form, &resp); err != nil {
		return nil, err
	}

	for _, m := range resp.Messages {
		if m.Status != "0" {
			return nil, &errx.Error{
				Kind:    errx.KindAPIFailure,
				Message: fmt.Sprintf("sms to %s failed with status %s: %s", m.To, m.Status, m.ErrorText),
				Data:    &resp,
			}
		}
	}
	return &resp, nil
}
