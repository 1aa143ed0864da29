package vonage_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/vonage/pkg/auth"
	"github.com/aussiebroadwan/vonage/pkg/cryptox"
	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/vonage"
	"github.com/stretchr/testify/require"
)

func smsOK() map[string]any {
	return map[string]any{
		"message-count": "1",
		"messages": []map[string]any{{
			"to":                "447700900000",
			"message-id":        "0A0000000123ABCD1",
			"status":            "0",
			"remaining-balance": "3.14159265",
			"message-price":     "0.03330000",
			"network":           "12345",
		}},
	}
}

func TestSMSSendBasic(t *testing.T) {
	t.Parallel()

	v, api := newTestVonage(t, basicCreds())
	api.reply(http.MethodPost, "/sms/json", http.StatusOK, smsOK())

	resp, err := v.SMS.Send(context.Background(), vonage.SMSRequest{
		From:      "Acme",
		To:        "+44 7700 900000",
		Text:      "Hello & welcome",
		ClientRef: "order-1",
	})
	require.NoError(t, err)
	require.Equal(t, "1", resp.MessageCount)
	require.Len(t, resp.Messages, 1)
	require.Equal(t, "0A0000000123ABCD1", resp.Messages[0].MessageID)

	got := api.last(t, "/sms/json")
	require.Equal(t, basicHeader, got.Auth)
	require.Equal(t, "447700900000", got.Form.Get("to"))
	require.Equal(t, "Acme", got.Form.Get("from"))
	require.Equal(t, "Hello & welcome", got.Form.Get("text"))
	require.Equal(t, "order-1", got.Form.Get("client-ref"))
	require.NotContains(t, got.Form, "ttl")
	require.NotContains(t, got.Form, "sig")
}

func TestSMSSendSigned(t *testing.T) {
	t.Parallel()

	creds := auth.Credentials{APIKey: testKey, APISecret: testSecret, SignatureSecret: "sig-secret", SignatureMethod: "sha512"}
	v, api := newTestVonage(t, creds)
	api.reply(http.MethodPost, "/sms/json", http.StatusOK, smsOK())

	_, err := v.SMS.Send(context.Background(), vonage.SMSRequest{From: "Acme", To: "447700900000", Text: "a=b"})
	require.NoError(t, err)

	got := api.last(t, "/sms/json")
	require.Empty(t, got.Auth)
	require.Equal(t, testKey, got.Form.Get("api_key"))

	params := map[string]string{}
	for k := range got.Form {
		params[k] = got.Form.Get(k)
	}
	require.True(t, cryptox.Verify(params, "sig-secret", cryptox.SHA512))
}

func TestSMSRejectedPart(t *testing.T) {
	t.Parallel()

	v, api := newTestVonage(t, basicCreds())
	api.reply(http.MethodPost, "/sms/json", http.StatusOK, map[string]any{
		"message-count": "1",
		"messages":      []map[string]any{{"to": "447700900000", "status": "2", "error-text": "Missing from param"}},
	})

	_, err := v.SMS.Send(context.Background(), vonage.SMSRequest{From: "Acme", To: "447700900000", Text: "hi"})
	require.ErrorIs(t, err, errx.ErrAPIFailure)

	var e *errx.Error
	require.ErrorAs(t, err, &e)
	require.Contains(t, e.Message, "status 2")
	require.Contains(t, e.Message, "Missing from param")
	resp, ok := e.Data.(*vonage.SMSResponse)
	require.True(t, ok)
	require.Equal(t, "2", resp.Messages[0].Status)
}

func TestSMSValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  vonage.SMSRequest
		want *errx.Error
	}{
		{"bad number", vonage.SMSRequest{From: "Acme", To: "not a phone number", Text: "hi"}, errx.ErrInvalidPhoneNumber},
		{"missing text", vonage.SMSRequest{From: "Acme", To: "447700900000"}, errx.ErrValidation},
		{"missing from", vonage.SMSRequest{To: "447700900000", Text: "hi"}, errx.ErrValidation},
		{"bad type", vonage.SMSRequest{From: "Acme", To: "447700900000", Text: "hi", Type: "emoji"}, errx.ErrValidation},
		{"short ttl", vonage.SMSRequest{From: "Acme", To: "447700900000", Text: "hi", TTL: 10}, errx.ErrValidation},
	}

	v, api := newTestVonage(t, basicCreds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.req.Validate(), tt.want)
			_, err := v.SMS.Send(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
	require.Empty(t, api.requests())

	err := vonage.SMSRequest{To: "447700900000"}.Validate()
	var e *errx.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, map[string]string{"from": "required", "text": "required"}, e.Data)
	require.Equal(t, "invalid request: from: required; text: required", e.Message)
}
