package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/auth"
	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/services"
	"github.com/dennissolver/LaunchReady-sub000/pkg/testhelpers"
)

// mockProjectService resolves projects from a map and enforces ownership
// the same way the real service does.
type mockProjectService struct {
	projects map[uuid.UUID]*models.Project
	getErr   error
}

var _ services.ProjectService = (*mockProjectService)(nil)

func newMockProjectService(projects ...*models.Project) *mockProjectService {
	m := &mockProjectService{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectService) GetForUser(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.projects[id]
	if !ok || !p.IsOwnedBy(userID) {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectService) MarkDiscoveryCompleted(ctx context.Context, id uuid.UUID) error {
	return nil
}

// mockProtectionItemService returns a fixed list.
type mockProtectionItemService struct {
	items []*models.ProtectionItem
	err   error
}

var _ services.ProtectionItemService = (*mockProtectionItemService)(nil)

func (m *mockProtectionItemService) List(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error) {
	return m.items, m.err
}

// mockSessionLogger returns fixed events and records the requested limit.
type mockSessionLogger struct {
	events    []*models.EvidenceEvent
	err       error
	lastLimit int
}

var _ services.SessionLogger = (*mockSessionLogger)(nil)

func (m *mockSessionLogger) LogSession(ctx context.Context, projectID uuid.UUID, session *services.Session) *models.EvidenceEvent {
	return nil
}

func (m *mockSessionLogger) Recent(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.EvidenceEvent, error) {
	m.lastLimit = limit
	return m.events, m.err
}

// mockDiscoveryService records requests and returns a canned outcome.
type mockDiscoveryService struct {
	mu       sync.Mutex
	requests []*models.DiscoveryRequest
	outcome  *models.DiscoveryOutcome
	err      error
}

var _ services.DiscoveryService = (*mockDiscoveryService)(nil)

func (m *mockDiscoveryService) Process(ctx context.Context, req *models.DiscoveryRequest) (*models.DiscoveryOutcome, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.outcome != nil {
		return m.outcome, nil
	}
	return &models.DiscoveryOutcome{Success: true, Findings: []models.FindingSummary{}}, nil
}

func (m *mockDiscoveryService) Classify(text string) []models.Finding {
	return discovery.NewClassifier(nil).Classify(text)
}

func (m *mockDiscoveryService) lastRequest() *models.DiscoveryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// passThroughTenant stands in for database.WithTenantContext in unit tests.
func passThroughTenant(next http.HandlerFunc) http.HandlerFunc {
	return next
}

// newDevAuthMiddleware returns auth middleware that accepts unsigned tokens
// carrying the engine audience, as in local development.
func newDevAuthMiddleware(t *testing.T) *auth.Middleware {
	t.Helper()
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("failed to create JWKS client: %v", err)
	}
	t.Cleanup(jwksClient.Close)
	return auth.NewMiddleware(auth.NewAuthService(jwksClient, zap.NewNop()), zap.NewNop())
}

func bearer(userID string, projectID uuid.UUID) string {
	return testhelpers.GenerateTestJWTWithBearer(userID, projectID.String(), userID+"@example.com")
}
