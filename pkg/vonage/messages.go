package vonage

import (
	"context"
	"slices"

	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const messagesPath = "/v1/messages"

// Channels of the Messages API.
const (
	ChannelSMS       = "sms"
	ChannelMMS       = "mms"
	ChannelWhatsApp  = "whatsapp"
	ChannelMessenger = "messenger"
	ChannelViber     = "viber_service"
	ChannelRCS       = "rcs"
)

// Messages sends messages through the multi-channel Messages API.
type Messages struct {
	client *httpclient.Client
	host   string
}

// MediaURL points to an attachment.
type MediaURL struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Message is an outbound message on any channel. Only the field matching
// MessageType is sent.
type Message struct {
	MessageType string `json:"message_type"`
	Channel     string `json:"channel"`
	To          string `json:"to"`
	From        string `json:"from"`

	Text     string         `json:"text,omitempty"`
	Image    *MediaURL      `json:"image,omitempty"`
	Audio    *MediaURL      `json:"audio,omitempty"`
	Video    *MediaURL      `json:"video,omitempty"`
	File     *MediaURL      `json:"file,omitempty"`
	VCard    *MediaURL      `json:"vcard,omitempty"`
	Custom   map[string]any `json:"custom,omitempty"`
	Template map[string]any `json:"template,omitempty"`

	ClientRef      string `json:"client_ref,omitempty"`
	WebhookURL     string `json:"webhook_url,omitempty"`
	WebhookVersion string `json:"webhook_version,omitempty"`
	TTL            int    `json:"ttl,omitempty"`
}

// phoneChannels address recipients by phone number.
var (
	phoneChannels = []string{ChannelSMS, ChannelMMS, ChannelWhatsApp, ChannelViber, ChannelRCS}
	allChannels   = append(slices.Clone(phoneChannels), ChannelMessenger)
)

// Validate checks m without sending it.
func (m Message) Validate() error {
	_, err := m.normalized()
	return err
}

func (m Message) normalized() (Message, error) {
	errs := fieldErrors{}

	switch {
	case m.Channel == "":
		errs.add("channel", requiredReason)
	case !oneOf(m.Channel, allChannels...):
		errs.add("channel", "unsupported channel "+m.Channel)
	case oneOf(m.Channel, phoneChannels...):
		to, err := phonex.Normalize(m.To)
		if err != nil {
			return m, err
		}
		m.To = to
	case m.To == "":
		errs.add("to", requiredReason)
	}
	if m.From == "" {
		errs.add("from", requiredReason)
	}

	switch m.MessageType {
	case "":
		errs.add("message_type", requiredReason)
	case "text":
		if m.Text == "" {
			errs.add("text", requiredReason)
		}
	case "image":
		checkMedia(errs, "image", m.Image)
	case "audio":
		checkMedia(errs, "audio", m.Audio)
	case "video":
		checkMedia(errs, "video", m.Video)
	case "file":
		checkMedia(errs, "file", m.File)
	case "vcard":
		checkMedia(errs, "vcard", m.VCard)
	case "custom":
		if len(m.Custom) == 0 {
			errs.add("custom", requiredReason)
		}
	case "template":
		if len(m.Template) == 0 {
			errs.add("template", requiredReason)
		}
	default:
		errs.add("message_type", "unsupported message type "+m.MessageType)
	}

	if len(m.ClientRef) > 100 {
		errs.add("client_ref", "too long (max 100)")
	}
	if m.WebhookVersion != "" && !oneOf(m.WebhookVersion, "v0.1", "v1") {
		errs.add("webhook_version", "must be v0.1 or v1")
	}
	return m, errs.err()
}

func checkMedia(errs fieldErrors, field string, media *MediaURL) {
	if media == nil || media.URL == "" {
		errs.add(field+".url", requiredReason)
	}
}

// MessageResponse identifies an accepted message.
type MessageResponse struct {
	MessageUUID string `json:"message_uuid"`
}

// Send submits m. It authenticates with the application JWT, or Basic when
// the credentials have no application.
func (s *Messages) Send(ctx context.Context, m Message) (*MessageResponse, error) {
	msg, err := m.normalized()
	if err != nil {
		return nil, err
	}

	var resp MessageResponse
	if err := s.client.Post(ctx, s.host, messagesPath, msg, applicationAuth(s.client), httpclient.JSON, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
