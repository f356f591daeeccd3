package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
)

// mockDiscoveryService records requests and returns canned outcomes.
type mockDiscoveryService struct {
	mu         sync.Mutex
	requests   []*models.DiscoveryRequest
	outcome    *models.DiscoveryOutcome
	processErr error
	classifier *discovery.Classifier
}

var _ services.DiscoveryService = (*mockDiscoveryService)(nil)

func (m *mockDiscoveryService) Process(ctx context.Context, req *models.DiscoveryRequest) (*models.DiscoveryOutcome, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.processErr != nil {
		return nil, m.processErr
	}
	if m.outcome != nil {
		return m.outcome, nil
	}
	return &models.DiscoveryOutcome{Success: true, Findings: []models.FindingSummary{}}, nil
}

func (m *mockDiscoveryService) Classify(text string) []models.Finding {
	if m.classifier == nil {
		m.classifier = discovery.NewClassifier(nil)
	}
	return m.classifier.Classify(text)
}

func (m *mockDiscoveryService) lastRequest() *models.DiscoveryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// mockProtectionItemService returns a fixed item list.
type mockProtectionItemService struct {
	items         []*models.ProtectionItem
	err           error
	lastProjectID uuid.UUID
	lastCtx       context.Context
}

var _ services.ProtectionItemService = (*mockProtectionItemService)(nil)

func (m *mockProtectionItemService) List(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error) {
	m.lastProjectID = projectID
	m.lastCtx = ctx
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// fakeScopes hands out no-op tenant scopes and counts them.
type fakeScopes struct {
	mu      sync.Mutex
	opened  int
	closed  int
	openErr error
}

func (f *fakeScopes) provider() services.TenantContextFunc {
	return func(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
		if f.openErr != nil {
			return nil, nil, f.openErr
		}
		f.mu.Lock()
		f.opened++
		f.mu.Unlock()
		return ctx, func() {
			f.mu.Lock()
			f.closed++
			f.mu.Unlock()
		}, nil
	}
}

// claimsContext returns a context carrying claims for projectID, as the MCP
// auth middleware would.
func claimsContext(projectID string, subject string) context.Context {
	claims := &auth.Claims{ProjectID: projectID}
	claims.Subject = subject
	return auth.WithClaims(context.Background(), claims, "test-token")
}

// toolResponse is the decoded JSON-RPC response to a tools/call.
type toolResponse struct {
	Result *struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *toolResponse) text() string {
	if r.Result == nil || len(r.Result.Content) == 0 {
		return ""
	}
	return r.Result.Content[0].Text
}

// callTool invokes a tool through the MCP server's JSON-RPC entry point.
func callTool(t *testing.T, s *server.MCPServer, ctx context.Context, name string, args map[string]any) *toolResponse {
	t.Helper()

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      name,
			"arguments": args,
		},
	}
	reqBytes, err := json.Marshal(request)
	require.NoError(t, err)

	result := s.HandleMessage(ctx, reqBytes)
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &resp))
	return &resp
}
