package vonage_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
	"github.com/stretchr/testify/require"
)

func TestMessagesSend(t *testing.T) {
	t.Parallel()

	msg := vonage.Message{
		MessageType: "text",
		Channel:     vonage.ChannelWhatsApp,
		To:          "+44 (0) 7700 900000",
		From:        "447700900001",
		Text:        "Hello",
		ClientRef:   "ref-1",
	}

	t.Run("jwt", func(t *testing.T) {
		t.Parallel()

		v, api := newTestVonage(t, appCreds(t))
		api.reply(http.MethodPost, "/v1/messages", http.StatusAccepted, map[string]string{"message_uuid": "aaaaaaaa-bbbb-cccc-dddd-0123456789ab"})

		resp, err := v.Messages.Send(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, "aaaaaaaa-bbbb-cccc-dddd-0123456789ab", resp.MessageUUID)

		got := api.last(t, "/v1/messages")
		require.True(t, strings.HasPrefix(got.Auth, "Bearer ey"))
		require.Equal(t, "4407700900000", got.JSON["to"])
		require.Equal(t, "whatsapp", got.JSON["channel"])
		require.Equal(t, "text", got.JSON["message_type"])
		require.Equal(t, "ref-1", got.JSON["client_ref"])
		require.NotContains(t, got.JSON, "image")
	})

	t.Run("basic without application", func(t *testing.T) {
		t.Parallel()

		v, api := newTestVonage(t, basicCreds())
		api.reply(http.MethodPost, "/v1/messages", http.StatusAccepted, map[string]string{"message_uuid": "x"})

		_, err := v.Messages.Send(context.Background(), msg)
		require.NoError(t, err)
		require.Equal(t, basicHeader, api.last(t, "/v1/messages").Auth)
	})

	t.Run("messenger ids are not phone numbers", func(t *testing.T) {
		t.Parallel()

		v, api := newTestVonage(t, appCreds(t))
		api.reply(http.MethodPost, "/v1/messages", http.StatusAccepted, map[string]string{"message_uuid": "x"})

		_, err := v.Messages.Send(context.Background(), vonage.Message{
			MessageType: "image",
			Channel:     vonage.ChannelMessenger,
			To:          "recipient-psid",
			From:        "page-id",
			Image:       &vonage.MediaURL{URL: "https://example.com/cat.png"},
		})
		require.NoError(t, err)

		got := api.last(t, "/v1/messages")
		require.Equal(t, "recipient-psid", got.JSON["to"])
		require.Equal(t, map[string]any{"url": "https://example.com/cat.png"}, got.JSON["image"])
	})
}

func TestMessagesAPIError(t *testing.T) {
	t.Parallel()

	v, api := newTestVonage(t, appCreds(t))
	api.reply(http.MethodPost, "/v1/messages", http.StatusUnprocessableEntity, map[string]string{
		"type":   "https://developer.nexmo.com/api-errors/messages-olympus#1150",
		"title":  "Invalid params",
		"detail": "The value of one or more parameters is invalid.",
	})

	_, err := v.Messages.Send(context.Background(), vonage.Message{MessageType: "text", Channel: "sms", To: "447700900000", From: "Acme", Text: "hi"})
	require.ErrorIs(t, err, errx.ErrProtocolFailure)

	var e *errx.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, http.StatusUnprocessableEntity, e.StatusCode)
	require.Equal(t, "Invalid params: The value of one or more parameters is invalid.", e.Message)
}

func TestMessageValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  vonage.Message
		want *errx.Error
	}{
		{"unknown channel", vonage.Message{MessageType: "text", Channel: "pager", To: "x", From: "y", Text: "hi"}, errx.ErrValidation},
		{"missing channel", vonage.Message{MessageType: "text", To: "x", From: "y", Text: "hi"}, errx.ErrValidation},
		{"bad number", vonage.Message{MessageType: "text", Channel: "sms", To: "abc", From: "y", Text: "hi"}, errx.ErrInvalidPhoneNumber},
		{"missing text", vonage.Message{MessageType: "text", Channel: "sms", To: "447700900000", From: "y"}, errx.ErrValidation},
		{"image without url", vonage.Message{MessageType: "image", Channel: "mms", To: "447700900000", From: "y", Image: &vonage.MediaURL{}}, errx.ErrValidation},
		{"unknown type", vonage.Message{MessageType: "hologram", Channel: "sms", To: "447700900000", From: "y"}, errx.ErrValidation},
		{"bad webhook version", vonage.Message{MessageType: "text", Channel: "sms", To: "447700900000", From: "y", Text: "hi", WebhookVersion: "v2"}, errx.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.msg.Validate(), tt.want)
		})
	}
}
