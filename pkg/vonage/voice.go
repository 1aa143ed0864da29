package vonage

import (
	"context"
	"net/url"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const callsPath = "/v1/calls"

// Voice places and controls calls. Every request uses the application JWT.
type Voice struct {
	client *httpclient.Client
	host   string
}

// Endpoint is a call leg target.
type Endpoint struct {
	Type       string `json:"type"`
	Number     string `json:"number,omitempty"`
	DTMFAnswer string `json:"dtmfAnswer,omitempty"`
	URI        string `json:"uri,omitempty"`
	User       string `json:"user,omitempty"`
}

// Phone returns a phone endpoint for number.
func Phone(number string) Endpoint {
	return Endpoint{Type: "phone", Number: number}
}

// CallRequest creates an outbound call. Exactly one of NCCO and AnswerURL
// must be set, and exactly one of From and RandomFromNumber.
type CallRequest struct {
	To               []Endpoint       `json:"to"`
	From             *Endpoint        `json:"from,omitempty"`
	RandomFromNumber bool             `json:"random_from_number,omitempty"`
	NCCO             []map[string]any `json:"ncco,omitempty"`
	AnswerURL        []string         `json:"answer_url,omitempty"`
	AnswerMethod     string           `json:"answer_method,omitempty"`
	EventURL         []string         `json:"event_url,omitempty"`
	EventMethod      string           `json:"event_method,omitempty"`
	MachineDetection string           `json:"machine_detection,omitempty"`
	LengthTimer      int              `json:"length_timer,omitempty"`
	RingingTimer     int              `json:"ringing_timer,omitempty"`
}

// Validate checks r without sending it.
func (r CallRequest) Validate() error {
	_, err := r.normalized()
	return err
}

func (r CallRequest) normalized() (CallRequest, error) {
	errs := fieldErrors{}

	if len(r.To) == 0 {
		errs.add("to", requiredReason)
	}
	to := make([]Endpoint, len(r.To))
	for i, ep := range r.To {
		n, err := normalizeEndpoint(ep)
		if err != nil {
			return r, err
		}
		to[i] = n
	}
	r.To = to

	switch {
	case r.From != nil && r.RandomFromNumber:
		errs.add("from", "set either from or random_from_number")
	case r.From == nil && !r.RandomFromNumber:
		errs.add("from", requiredReason)
	case r.From != nil:
		from, err := normalizeEndpoint(*r.From)
		if err != nil {
			return r, err
		}
		r.From = &from
	}

	switch {
	case len(r.NCCO) > 0 && len(r.AnswerURL) > 0:
		errs.add("ncco", "set either ncco or answer_url")
	case len(r.NCCO) == 0 && len(r.AnswerURL) == 0:
		errs.add("ncco", "ncco or answer_url is required")
	}

	for field, m := range map[string]string{"answer_method": r.AnswerMethod, "event_method": r.EventMethod} {
		if m != "" && !oneOf(m, "GET", "POST") {
			errs.add(field, "must be GET or POST")
		}
	}
	if r.MachineDetection != "" && !oneOf(r.MachineDetection, "continue", "hangup") {
		errs.add("machine_detection", "must be continue or hangup")
	}
	if r.LengthTimer < 0 || r.LengthTimer > 7200 {
		errs.add("length_timer", "must be between 1 and 7200 seconds")
	}
	if r.RingingTimer < 0 || r.RingingTimer > 120 {
		errs.add("ringing_timer", "must be between 1 and 120 seconds")
	}
	return r, errs.err()
}

func normalizeEndpoint(ep Endpoint) (Endpoint, error) {
	switch ep.Type {
	case "phone":
		n, err := phonex.Normalize(ep.Number)
		if err != nil {
			return ep, err
		}
		ep.Number = n
	case "sip", "websocket":
		if ep.URI == "" {
			return ep, errx.Newf(errx.KindValidation, "%s endpoint needs a uri", ep.Type)
		}
	case "app":
		if ep.User == "" {
			return ep, errx.New(errx.KindValidation, "app endpoint needs a user")
		}
	default:
		return ep, errx.Newf(errx.KindValidation, "unsupported endpoint type %q", ep.Type)
	}
	return ep, nil
}

// CallResponse identifies a created call.
type CallResponse struct {
	UUID             string `json:"uuid"`
	Status           string `json:"status"`
	Direction        string `json:"direction"`
	ConversationUUID string `json:"conversation_uuid"`
}

// CallInfo describes a call.
type CallInfo struct {
	UUID             string   `json:"uuid"`
	ConversationUUID string   `json:"conversation_uuid"`
	To               Endpoint `json:"to"`
	From             Endpoint `json:"from"`
	Status           string   `json:"status"`
	Direction        string   `json:"direction"`
	Rate             string   `json:"rate,omitempty"`
	Price            string   `json:"price,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	StartTime        string   `json:"start_time,omitempty"`
	EndTime          string   `json:"end_time,omitempty"`
	Network          string   `json:"network,omitempty"`
}

// CreateCall places an outbound call.
func (v *Voice) CreateCall(ctx context.Context, r CallRequest) (*CallResponse, error) {
	req, err := r.normalized()
	if err != nil {
		return nil, err
	}

	var resp CallResponse
	if err := v.client.Post(ctx, v.host, callsPath, req, httpclient.AuthJWT, httpclient.JSON, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCall fetches the current state of a call.
func (v *Voice) GetCall(ctx context.Context, uuid string) (*CallInfo, error) {
	if uuid == "" {
		return nil, errx.New(errx.KindValidation, "call uuid is required")
	}

	var info CallInfo
	if err := v.client.Get(ctx, v.host, callsPath+"/"+url.PathEscape(uuid), nil, httpclient.AuthJWT, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Hangup ends a call in progress.
func (v *Voice) Hangup(ctx context.Context, uuid string) error {
	if uuid == "" {
		return errx.New(errx.KindValidation, "call uuid is required")
	}
	return v.client.Put(ctx, v.host, callsPath+"/"+url.PathEscape(uuid), map[string]string{"action": "hangup"}, httpclient.AuthJWT, httpclient.JSON, nil)
}
