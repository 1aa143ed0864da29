package vonage

import (
	"context"
	"net/url"
	"unicode/utf8"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const verifyPath = "/v2/verify"

// Verify drives two-factor verification through the Verify v2 API.
type Verify struct {
	client *httpclient.Client
	host   string
}

// Workflow is one delivery attempt of a verification.
type Workflow struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	AppHash string `json:"app_hash,omitempty"`
}

// VerifyRequest starts a verification.
type VerifyRequest struct {
	Brand          string     `json:"brand"`
	Workflow       []Workflow `json:"workflow"`
	Locale         string     `json:"locale,omitempty"`
	ChannelTimeout int        `json:"channel_timeout,omitempty"`
	ClientRef      string     `json:"client_ref,omitempty"`
	CodeLength     int        `json:"code_length,omitempty"`
	Code           string     `json:"code,omitempty"`
	FraudCheck     *bool      `json:"fraud_check,omitempty"`
}

// Validate checks r without sending it.
func (r VerifyRequest) Validate() error {
	_, err := r.normalized()
	return err
}

func (r VerifyRequest) normalized() (VerifyRequest, error) {
	errs := fieldErrors{}

	switch n := utf8.RuneCountInString(r.Brand); {
	case n == 0:
		errs.add("brand", requiredReason)
	case n > 16:
		errs.add("brand", "too long (max 16)")
	}

	switch {
	case len(r.Workflow) == 0:
		errs.add("workflow", requiredReason)
	case len(r.Workflow) > 3:
		errs.add("workflow", "at most 3 workflows")
	}

	wf := make([]Workflow, len(r.Workflow))
	for i, w := range r.Workflow {
		switch w.Channel {
		case "sms", "whatsapp", "whatsapp_interactive", "voice", "silent_auth":
			to, err := phonex.Normalize(w.To)
			if err != nil {
				return r, err
			}
			w.To = to
		case "email":
			if w.To == "" {
				errs.add("workflow.to", requiredReason)
			}
		default:
			errs.add("workflow.channel", "unsupported channel "+w.Channel)
		}
		wf[i] = w
	}
	r.Workflow = wf

	if r.ChannelTimeout != 0 && (r.ChannelTimeout < 60 || r.ChannelTimeout > 900) {
		errs.add("channel_timeout", "must be between 60 and 900 seconds")
	}
	if r.CodeLength != 0 && (r.CodeLength < 4 || r.CodeLength > 10) {
		errs.add("code_length", "must be between 4 and 10")
	}
	if r.Code != "" && (len(r.Code) < 4 || len(r.Code) > 10) {
		errs.add("code", "must be 4 to 10 characters")
	}
	if len(r.ClientRef) > 16 {
		errs.add("client_ref", "too long (max 16)")
	}
	return r, errs.err()
}

// VerifyResponse identifies a started verification.
type VerifyResponse struct {
	RequestID string `json:"request_id"`
	CheckURL  string `json:"check_url,omitempty"`
}

// CheckCodeResponse is the outcome of a code check.
type CheckCodeResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// Start begins a verification.
func (v *Verify) Start(ctx context.Context, r VerifyRequest) (*VerifyResponse, error) {
	req, err := r.normalized()
	if err != nil {
		return nil, err
	}

	var resp VerifyResponse
	if err := v.client.Post(ctx, v.host, verifyPath, req, applicationAuth(v.client), httpclient.JSON, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckCode submits the code the user received.
func (v *Verify) CheckCode(ctx context.Context, requestID, code string) (*CheckCodeResponse, error) {
	if requestID == "" {
		return nil, errx.New(errx.KindValidation, "request id is required")
	}
	if code == "" {
		return nil, errx.New(errx.KindValidation, "code is required")
	}

	var resp CheckCodeResponse
	path := verifyPath + "/" + url.PathEscape(requestID)
	if err := v.client.Post(ctx, v.host, path, map[string]string{"code": code}, applicationAuth(v.client), httpclient.JSON, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel aborts a verification that has not completed.
func (v *Verify) Cancel(ctx context.Context, requestID string) error {
	if requestID == "" {
		return errx.New(errx.KindValidation, "request id is required")
	}
	return v.client.Delete(ctx, v.host, verifyPath+"/"+url.PathEscape(requestID), nil, applicationAuth(v.client), nil)
}

// NextWorkflow skips to the next workflow of the verification.
func (v *Verify) NextWorkflow(ctx context.Context, requestID string) error {
	if requestID == "" {
		return errx.New(errx.KindValidation, "request id is required")
	}
	return v.client.Post(ctx, v.host, verifyPath+"/"+url.PathEscape(requestID)+"/next_workflow", nil, applicationAuth(v.client), httpclient.JSON, nil)
}
