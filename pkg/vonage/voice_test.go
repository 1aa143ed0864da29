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

const callUUID = "63f61863-4a51-4f6b-86e1-46edebcf9356"

func TestVoiceCalls(t *testing.T) {
	t.Parallel()

	v, api := newTestVonage(t, appCreds(t))
	api.reply(http.MethodPost, "/v1/calls", http.StatusCreated, map[string]string{
		"uuid":              callUUID,
		"status":            "started",
		"direction":         "outbound",
		"conversation_uuid": "CON-f972836a-550f-45fa-956c-12a2ab5b7d22",
	})
	api.reply(http.MethodGet, "/v1/calls/"+callUUID, http.StatusOK, map[string]any{
		"uuid":      callUUID,
		"status":    "answered",
		"direction": "outbound",
		"to":        map[string]string{"type": "phone", "number": "447700900000"},
		"from":      map[string]string{"type": "phone", "number": "447700900001"},
	})
	api.reply(http.MethodPut, "/v1/calls/"+callUUID, http.StatusNoContent, nil)
	ctx := context.Background()

	from := vonage.Phone("+44 7700 900001")
	created, err := v.Voice.CreateCall(ctx, vonage.CallRequest{
		To:   []vonage.Endpoint{vonage.Phone("07700900000")},
		From: &from,
		NCCO: []map[string]any{{"action": "talk", "text": "Hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, callUUID, created.UUID)
	require.Equal(t, "started", created.Status)

	got := api.last(t, "/v1/calls")
	require.True(t, strings.HasPrefix(got.Auth, "Bearer ey"))
	require.Equal(t, []any{map[string]any{"type": "phone", "number": "7700900000"}}, got.JSON["to"])
	require.Equal(t, map[string]any{"type": "phone", "number": "447700900001"}, got.JSON["from"])
	require.Equal(t, []any{map[string]any{"action": "talk", "text": "Hello"}}, got.JSON["ncco"])
	require.NotContains(t, got.JSON, "answer_url")

	info, err := v.Voice.GetCall(ctx, callUUID)
	require.NoError(t, err)
	require.Equal(t, "answered", info.Status)
	require.Equal(t, "447700900000", info.To.Number)

	require.NoError(t, v.Voice.Hangup(ctx, callUUID))
	hangup := api.requests()[len(api.requests())-1]
	require.Equal(t, http.MethodPut, hangup.Method)
	require.Equal(t, "hangup", hangup.JSON["action"])
}

func TestVoiceNeedsApplication(t *testing.T) {
	t.Parallel()

	v, api := newTestVonage(t, basicCreds())
	_, err := v.Voice.GetCall(context.Background(), callUUID)
	require.ErrorIs(t, err, errx.ErrJWTGenerationFailure)
	require.Empty(t, api.requests())
}

func TestCallValidation(t *testing.T) {
	t.Parallel()

	from := vonage.Phone("447700900001")
	to := []vonage.Endpoint{vonage.Phone("447700900000")}
	ncco := []map[string]any{{"action": "talk", "text": "hi"}}

	tests := []struct {
		name string
		req  vonage.CallRequest
		want *errx.Error
	}{
		{"no destination", vonage.CallRequest{From: &from, NCCO: ncco}, errx.ErrValidation},
		{"no from", vonage.CallRequest{To: to, NCCO: ncco}, errx.ErrValidation},
		{"from and random", vonage.CallRequest{To: to, From: &from, RandomFromNumber: true, NCCO: ncco}, errx.ErrValidation},
		{"no ncco or answer url", vonage.CallRequest{To: to, From: &from}, errx.ErrValidation},
		{"ncco and answer url", vonage.CallRequest{To: to, From: &from, NCCO: ncco, AnswerURL: []string{"https://example.com/answer"}}, errx.ErrValidation},
		{"bad method", vonage.CallRequest{To: to, RandomFromNumber: true, NCCO: ncco, EventMethod: "PATCH"}, errx.ErrValidation},
		{"bad number", vonage.CallRequest{To: []vonage.Endpoint{vonage.Phone("x")}, RandomFromNumber: true, NCCO: ncco}, errx.ErrInvalidPhoneNumber},
		{"sip without uri", vonage.CallRequest{To: []vonage.Endpoint{{Type: "sip"}}, RandomFromNumber: true, NCCO: ncco}, errx.ErrValidation},
		{"unknown endpoint", vonage.CallRequest{To: []vonage.Endpoint{{Type: "pigeon"}}, RandomFromNumber: true, NCCO: ncco}, errx.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.req.Validate(), tt.want)
		})
	}

	require.NoError(t, vonage.CallRequest{To: to, RandomFromNumber: true, AnswerURL: []string{"https://example.com/answer"}}.Validate())
}
