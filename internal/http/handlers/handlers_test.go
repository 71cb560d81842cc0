package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/token-relay/internal/models"
	"github.com/pribylovaa/token-relay/internal/service"
)

type fakeService struct {
	verifyErr error
	parseErr  error
	handleErr error
	handled   []*models.WebhookEvent
}

func (f *fakeService) IssueCredential(context.Context, models.Identity) (models.Credential, error) {
	return models.Credential{Token: "ct"}, nil
}

func (f *fakeService) VerifyWebhook(context.Context, []byte, http.Header) error {
	return f.verifyErr
}

func (f *fakeService) ParseEvent(_ context.Context, payload []byte) (*models.WebhookEvent, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return &models.WebhookEvent{Type: string(payload)}, nil
}

func (f *fakeService) HandleEvent(_ context.Context, ev *models.WebhookEvent) error {
	f.handled = append(f.handled, ev)
	return f.handleErr
}

func TestCreateFirebaseToken_WithoutIdentity(t *testing.T) {
	h := New(&fakeService{}, nil)

	rec := httptest.NewRecorder()
	h.CreateFirebaseToken(rec, httptest.NewRequest(http.MethodPost, "/create-firebase-token", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_Responses(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeService
		wantStatus int
		wantBody   string
		wantCalls  int
	}{
		{"ok", &fakeService{}, http.StatusOK, "Webhook handled", 1},
		{"bad_signature", &fakeService{verifyErr: service.ErrInvalidSignature}, http.StatusBadRequest, "Invalid signature", 0},
		{"verify_other", &fakeService{verifyErr: errors.New("boom")}, http.StatusInternalServerError, "Internal error", 0},
		{"parse", &fakeService{parseErr: service.ErrMalformedEvent}, http.StatusInternalServerError, "Internal error", 0},
		{"handle", &fakeService{handleErr: service.ErrUpstreamFailure}, http.StatusInternalServerError, "Internal error", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.svc, nil)

			rec := httptest.NewRecorder()
			h.Webhook(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("user.created")))

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantBody, rec.Body.String())
			require.Len(t, tt.svc.handled, tt.wantCalls)
		})
	}
}

func TestHealth(t *testing.T) {
	h := New(&fakeService{}, nil)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	h.ready.Store(false)

	rec = httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "token-relay is running", rec.Body.String())
}

func TestDeliveryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set("svix-id", "msg_2abc")
	require.Equal(t, "msg_2abc", deliveryID(req))

	req = httptest.NewRequest(http.MethodPost, "/webhook", nil)
	id := deliveryID(req)
	require.Len(t, id, 36)
	require.NotEqual(t, id, deliveryID(req))
}
