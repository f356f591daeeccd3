package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/config"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

// SignatureHeader carries the voice provider's webhook signature:
// "t=<unix seconds>,v0=<hex hmac-sha256(secret, "<t>.<body>")>".
const SignatureHeader = "ElevenLabs-Signature"

// PostCallTranscriptionEvent is the only provider event type that triggers
// a discovery pass.
const PostCallTranscriptionEvent = "post_call_transcription"

var (
	errMissingSignature = errors.New("missing signature header")
	errMalformedSig     = errors.New("malformed signature header")
	errStaleSignature   = errors.New("signature timestamp outside tolerance")
	errBadSignature     = errors.New("signature mismatch")
)

// VoiceWebhookPayload accepts both the flat trigger and the provider's
// post-call shape. Flat fields win when both are present.
type VoiceWebhookPayload struct {
	ProjectID  string                 `json:"project_id"`
	Transcript string                 `json:"transcript"`
	Summary    string                 `json:"summary"`
	Metadata   map[string]interface{} `json:"metadata"`

	Type string            `json:"type"`
	Data *voiceWebhookData `json:"data"`
}

type voiceWebhookData struct {
	AgentID        string           `json:"agent_id"`
	ConversationID string           `json:"conversation_id"`
	Transcript     []transcriptTurn `json:"transcript"`
	Analysis       struct {
		TranscriptSummary string `json:"transcript_summary"`
	} `json:"analysis"`
	ConversationInitiationClientData struct {
		DynamicVariables map[string]interface{} `json:"dynamic_variables"`
	} `json:"conversation_initiation_client_data"`
}

type transcriptTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// VoiceWebhookHandler receives post-call webhooks from the voice agent.
type VoiceWebhookHandler struct {
	discovery services.DiscoveryService
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewVoiceWebhookHandler creates a webhook handler. An empty secret disables
// signature verification, which config validation forbids in production.
func NewVoiceWebhookHandler(discovery services.DiscoveryService, cfg config.WebhookConfig, logger *zap.Logger) *VoiceWebhookHandler {
	h := &VoiceWebhookHandler{
		discovery: discovery,
		secret:    []byte(cfg.Secret),
		tolerance: cfg.Tolerance,
		now:       time.Now,
		logger:    logger.Named("voice_webhook"),
	}
	if len(h.secret) == 0 {
		h.logger.Warn("Voice webhook signature verification disabled: no secret configured")
	}
	return h
}

// RegisterRoutes registers the webhook route on the given mux.
// The route carries no JWT auth; the signature authenticates the caller.
func (h *VoiceWebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/voice", h.Receive)
}

// Receive handles POST /webhooks/voice
func (h *VoiceWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDiscoveryBodyBytes))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to read request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if len(h.secret) > 0 {
		if err := h.verifySignature(r.Header.Get(SignatureHeader), body); err != nil {
			h.logger.Warn("Rejected voice webhook",
				zap.String("reason", err.Error()),
				zap.String("remote_addr", r.RemoteAddr))
			if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_signature", "Webhook signature verification failed"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}

	var payload VoiceWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if payload.Type != "" && payload.Type != PostCallTranscriptionEvent {
		h.logger.Debug("Ignoring voice webhook event", zap.String("type", payload.Type))
		if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "event ignored"}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	req, err := payload.toDiscoveryRequest()
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_project_id", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	outcome, err := h.discovery.Process(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "process voice webhook", zap.String("project_id", req.ProjectID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, outcome); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// verifySignature checks the "t=...,v0=..." header against body.
func (h *VoiceWebhookHandler) verifySignature(header string, body []byte) error {
	if header == "" {
		return errMissingSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v0":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return errMalformedSig
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errMalformedSig
	}
	if h.tolerance > 0 {
		age := h.now().Sub(time.Unix(unix, 0))
		if age > h.tolerance || age < -h.tolerance {
			return errStaleSignature
		}
	}

	expected := ComputeSignature(h.secret, timestamp, body)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return errBadSignature
}

// ComputeSignature returns the hex HMAC-SHA256 of "<timestamp>.<body>".
func ComputeSignature(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// toDiscoveryRequest normalizes either payload shape. Only the founder's
// turns are kept from a structured transcript; agent questions mention
// every category and would classify as false positives.
func (p *VoiceWebhookPayload) toDiscoveryRequest() (*models.DiscoveryRequest, error) {
	rawProjectID := p.ProjectID
	transcript := p.Transcript
	summary := p.Summary
	metadata := p.Metadata

	if p.Data != nil {
		if rawProjectID == "" {
			if v, ok := p.Data.ConversationInitiationClientData.DynamicVariables["project_id"].(string); ok {
				rawProjectID = v
			}
		}
		if transcript == "" {
			transcript = founderTurns(p.Data.Transcript)
		}
		if summary == "" {
			summary = p.Data.Analysis.TranscriptSummary
		}
		if metadata == nil {
			metadata = make(map[string]interface{})
		}
		if p.Data.ConversationID != "" {
			metadata["conversation_id"] = p.Data.ConversationID
		}
		if p.Data.AgentID != "" {
			metadata["agent_id"] = p.Data.AgentID
		}
		metadata["transcript_turns"] = len(p.Data.Transcript)
	}

	projectID, err := uuid.Parse(strings.TrimSpace(rawProjectID))
	if err != nil {
		return nil, errors.New("payload carries no valid project_id")
	}

	return &models.DiscoveryRequest{
		ProjectID:  projectID,
		Transcript: transcript,
		Summary:    summary,
		Metadata:   metadata,
		Source:     models.SourceVoiceWebhook,
	}, nil
}

func founderTurns(turns []transcriptTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role != "user" || strings.TrimSpace(t.Message) == "" {
			continue
		}
		lines = append(lines, t.Message)
	}
	return strings.Join(lines, "\n")
}
