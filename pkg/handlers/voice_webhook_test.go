package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/config"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

const testWebhookSecret = "wsec_test_secret"

var webhookNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newWebhookHandler(svc *mockDiscoveryService, secret string) *VoiceWebhookHandler {
	h := NewVoiceWebhookHandler(svc, config.WebhookConfig{Secret: secret, Tolerance: 30 * time.Minute}, zap.NewNop())
	h.now = func() time.Time { return webhookNow }
	return h
}

func signedHeader(body string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v0=" + ComputeSignature([]byte(testWebhookSecret), ts, []byte(body))
}

func postWebhook(h *VoiceWebhookHandler, body, signature string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestVoiceWebhook_FlatPayload(t *testing.T) {
	svc := &mockDiscoveryService{}
	h := newWebhookHandler(svc, testWebhookSecret)
	projectID := uuid.New()
	body := fmt.Sprintf(`{"project_id":%q,"transcript":"Our patent idea has a 2 month window before the conference","metadata":{"call_id":"c1"}}`, projectID)

	rec := postWebhook(h, body, signedHeader(body, webhookNow))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := svc.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, projectID, req.ProjectID)
	assert.Equal(t, models.SourceVoiceWebhook, req.Source)
	assert.Empty(t, req.UserID)
	assert.Equal(t, "Our patent idea has a 2 month window before the conference", req.Transcript)
	assert.Equal(t, "c1", req.Metadata["call_id"])
}

func TestVoiceWebhook_ProviderPayload(t *testing.T) {
	svc := &mockDiscoveryService{}
	h := newWebhookHandler(svc, testWebhookSecret)
	projectID := uuid.New()

	payload := map[string]any{
		"type":            PostCallTranscriptionEvent,
		"event_timestamp": webhookNow.Unix(),
		"data": map[string]any{
			"agent_id":        "agent_1",
			"conversation_id": "conv_42",
			"transcript": []map[string]string{
				{"role": "agent", "message": "Do you have a domain and an NDA?"},
				{"role": "user", "message": "We use contractors but never signed an assignment."},
				{"role": "user", "message": ""},
			},
			"analysis": map[string]any{
				"transcript_summary": "Founder relies on contractors without IP assignment.",
			},
			"conversation_initiation_client_data": map[string]any{
				"dynamic_variables": map[string]any{"project_id": projectID.String()},
			},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body := string(raw)

	rec := postWebhook(h, body, signedHeader(body, webhookNow.Add(-5*time.Minute)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := svc.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, projectID, req.ProjectID)
	assert.Equal(t, "We use contractors but never signed an assignment.", req.Transcript)
	assert.NotContains(t, req.Transcript, "domain", "agent turns must not be classified")
	assert.Equal(t, "Founder relies on contractors without IP assignment.", req.Summary)
	assert.Equal(t, "conv_42", req.Metadata["conversation_id"])
	assert.Equal(t, "agent_1", req.Metadata["agent_id"])
	assert.Equal(t, 3, req.Metadata["transcript_turns"])
}

func TestVoiceWebhook_IgnoresOtherEventTypes(t *testing.T) {
	svc := &mockDiscoveryService{}
	h := newWebhookHandler(svc, testWebhookSecret)
	body := `{"type":"post_call_audio","data":{"conversation_id":"conv_1"}}`

	rec := postWebhook(h, body, signedHeader(body, webhookNow))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event ignored")
	assert.Empty(t, svc.requests)
}

func TestVoiceWebhook_SignatureFailures(t *testing.T) {
	body := fmt.Sprintf(`{"project_id":%q,"summary":"domain"}`, uuid.New())
	ts := strconv.FormatInt(webhookNow.Unix(), 10)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing header", ""},
		{"malformed header", "garbage"},
		{"no timestamp", "v0=" + ComputeSignature([]byte(testWebhookSecret), ts, []byte(body))},
		{"non-numeric timestamp", "t=abc,v0=deadbeef"},
		{"wrong secret", "t=" + ts + ",v0=" + ComputeSignature([]byte("other"), ts, []byte(body))},
		{"tampered body", signedHeader(body+" ", webhookNow)},
		{"stale timestamp", signedHeader(body, webhookNow.Add(-31*time.Minute))},
		{"future timestamp", signedHeader(body, webhookNow.Add(31*time.Minute))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDiscoveryService{}
			rec := postWebhook(newWebhookHandler(svc, testWebhookSecret), body, tt.signature)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, svc.requests)
		})
	}
}

func TestVoiceWebhook_AcceptsAnyMatchingSignature(t *testing.T) {
	svc := &mockDiscoveryService{}
	body := fmt.Sprintf(`{"project_id":%q,"summary":"domain"}`, uuid.New())
	ts := strconv.FormatInt(webhookNow.Unix(), 10)
	header := "t=" + ts + ",v0=0000,v0=" + ComputeSignature([]byte(testWebhookSecret), ts, []byte(body))

	rec := postWebhook(newWebhookHandler(svc, testWebhookSecret), body, header)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVoiceWebhook_NoSecretSkipsVerification(t *testing.T) {
	svc := &mockDiscoveryService{}
	body := fmt.Sprintf(`{"project_id":%q,"summary":"domain"}`, uuid.New())

	rec := postWebhook(newWebhookHandler(svc, ""), body, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.requests, 1)
}

func TestVoiceWebhook_InvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{oops`, "invalid_request"},
		{"missing project", `{"summary":"domain"}`, "invalid_project_id"},
		{"malformed project", `{"project_id":"abc","summary":"domain"}`, "invalid_project_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDiscoveryService{}
			rec := postWebhook(newWebhookHandler(svc, testWebhookSecret), tt.body, signedHeader(tt.body, webhookNow))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp["error"])
			assert.Empty(t, svc.requests)
		})
	}
}

func TestVoiceWebhook_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty text", fmt.Errorf("%w: transcript or summary is required", apperrors.ErrInvalidInput), http.StatusBadRequest},
		{"unknown project", fmt.Errorf("get project: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{"infrastructure", errors.New("acquire tenant scope: refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDiscoveryService{err: tt.err}
			body := fmt.Sprintf(`{"project_id":%q}`, uuid.New())

			rec := postWebhook(newWebhookHandler(svc, testWebhookSecret), body, signedHeader(body, webhookNow))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestComputeSignature(t *testing.T) {
	// hex(hmac_sha256("secret", "1700000000.{}"))
	got := ComputeSignature([]byte("secret"), "1700000000", []byte("{}"))
	assert.Len(t, got, 64)
	assert.Equal(t, got, ComputeSignature([]byte("secret"), "1700000000", []byte("{}")))
	assert.NotEqual(t, got, ComputeSignature([]byte("secret"), "1700000001", []byte("{}")))
}
