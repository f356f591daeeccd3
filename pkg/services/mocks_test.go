package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/repositories"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockProtectionItemRepo keeps items keyed by item_type and applies the same
// strictly-more-urgent rule as the SQL upsert.
type mockProtectionItemRepo struct {
	mu    sync.Mutex
	items map[string]*models.ProtectionItem

	// failKeys makes UpsertUpgrade fail for the given item types.
	failKeys   map[string]error
	listErr    error
	getErr     error
	findErr    error
	upgradeErr error

	upsertCalls []string
	inFlight    int
	maxInFlight int
	upsertDelay time.Duration
}

var _ repositories.ProtectionItemRepository = (*mockProtectionItemRepo)(nil)

func newMockProtectionItemRepo() *mockProtectionItemRepo {
	return &mockProtectionItemRepo{
		items:    make(map[string]*models.ProtectionItem),
		failKeys: make(map[string]error),
	}
}

func (m *mockProtectionItemRepo) seed(projectID uuid.UUID, key, name string, status models.ProtectionStatus, notes string) *models.ProtectionItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &models.ProtectionItem{
		ID:        uuid.New(),
		ProjectID: projectID,
		ItemType:  key,
		ItemName:  name,
		Status:    status,
		Notes:     notes,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.items[key] = item
	return item
}

func (m *mockProtectionItemRepo) get(key string) *models.ProtectionItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[key]; ok {
		c := *item
		return &c
	}
	return nil
}

func (m *mockProtectionItemRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProtectionItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.ProtectionItem, 0, len(m.items))
	for _, item := range m.items {
		if item.ProjectID == projectID {
			c := *item
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *mockProtectionItemRepo) GetByType(ctx context.Context, projectID uuid.UUID, itemType string) (*models.ProtectionItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if item := m.get(itemType); item != nil {
		return item, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProtectionItemRepo) FindByNameMatch(ctx context.Context, projectID uuid.UUID, name string) (*models.ProtectionItem, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.ErrNotFound
	}
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.ItemName), strings.ToLower(name)) {
			c := *item
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProtectionItemRepo) UpsertUpgrade(ctx context.Context, item *models.ProtectionItem) (*models.ProtectionItem, models.UpsertOutcome, error) {
	m.mu.Lock()
	m.upsertCalls = append(m.upsertCalls, item.ItemType)
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.upsertDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--

	if err, ok := m.failKeys[item.ItemType]; ok {
		return nil, "", err
	}

	existing, ok := m.items[item.ItemType]
	if !ok {
		created := *item
		created.ID = uuid.New()
		created.CreatedAt = time.Now()
		created.UpdatedAt = created.CreatedAt
		m.items[item.ItemType] = &created
		c := created
		return &c, models.OutcomeCreated, nil
	}

	if !models.ShouldUpgrade(existing.Status, item.Status) {
		c := *existing
		return &c, models.OutcomeUnchanged, nil
	}
	existing.Status = item.Status
	existing.Notes = item.Notes
	existing.UpdatedAt = time.Now()
	c := *existing
	return &c, models.OutcomeUpgraded, nil
}

func (m *mockProtectionItemRepo) UpgradeByID(ctx context.Context, id uuid.UUID, status models.ProtectionStatus, notes string) (*models.ProtectionItem, bool, error) {
	if m.upgradeErr != nil {
		return nil, false, m.upgradeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.ID != id {
			continue
		}
		if !models.ShouldUpgrade(existing.Status, status) {
			return nil, false, nil
		}
		existing.Status = status
		existing.Notes = notes
		c := *existing
		return &c, true, nil
	}
	return nil, false, nil
}

type mockEvidenceRepo struct {
	mu        sync.Mutex
	events    []*models.EvidenceEvent
	createErr error
	listErr   error
	lastLimit int
}

var _ repositories.EvidenceRepository = (*mockEvidenceRepo)(nil)

func (m *mockEvidenceRepo) Create(ctx context.Context, event *models.EvidenceEvent) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uuid.New()
	event.EventDate = time.Now()
	event.CreatedAt = event.EventDate
	m.events = append(m.events, event)
	return nil
}

func (m *mockEvidenceRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.EvidenceEvent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	result := make([]*models.EvidenceEvent, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].ProjectID == projectID {
			result = append(result, m.events[i])
		}
	}
	return result, nil
}

type mockProjectRepo struct {
	projects      map[uuid.UUID]*models.Project
	getErr        error
	markErr       error
	markCompleted []uuid.UUID
}

var _ repositories.ProjectRepository = (*mockProjectRepo)(nil)

func newMockProjectRepo(projects ...*models.Project) *mockProjectRepo {
	m := &mockProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectRepo) Create(ctx context.Context, project *models.Project) error {
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectRepo) MarkDiscoveryCompleted(ctx context.Context, id uuid.UUID) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.markCompleted = append(m.markCompleted, id)
	if p, ok := m.projects[id]; ok {
		p.DiscoveryCompleted = true
	}
	return nil
}

// fakePool stands in for the pgx pool behind tenant scopes. With size 0 it
// is unbounded; otherwise WithTenantScope waits for a free slot like
// pgxpool.Acquire and TryTenantScope fails fast with ErrNoIdleConnection.
type fakePool struct {
	mu      sync.Mutex
	opened  int
	closed  int
	inUse   int
	peak    int
	openErr error

	slots chan struct{}
}

var (
	_ database.ScopeProvider       = (*fakePool)(nil)
	_ database.WorkerScopeProvider = (*fakePool)(nil)
)

func newFakePool(size int) *fakePool {
	if size <= 0 {
		return &fakePool{}
	}
	return &fakePool{slots: make(chan struct{}, size)}
}

func (p *fakePool) WithTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
	return p.open(ctx, projectID, true)
}

func (p *fakePool) TryTenantScope(ctx context.Context, projectID uuid.UUID) (context.Context, func(), error) {
	return p.open(ctx, projectID, false)
}

func (p *fakePool) open(ctx context.Context, projectID uuid.UUID, wait bool) (context.Context, func(), error) {
	p.mu.Lock()
	openErr := p.openErr
	p.mu.Unlock()
	if openErr != nil {
		return nil, nil, openErr
	}

	if p.slots != nil {
		if wait {
			select {
			case p.slots <- struct{}{}:
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		} else {
			select {
			case p.slots <- struct{}{}:
			default:
				return nil, nil, database.ErrNoIdleConnection
			}
		}
	}

	p.mu.Lock()
	p.opened++
	p.inUse++
	p.peak = max(p.peak, p.inUse)
	p.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.mu.Lock()
			p.closed++
			p.inUse--
			p.mu.Unlock()
			if p.slots != nil {
				<-p.slots
			}
		})
	}
	return database.SetTenantScope(ctx, &database.TenantScope{ProjectID: projectID}), release, nil
}

func (p *fakePool) counts() (opened, closed, inUse, peak int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened, p.closed, p.inUse, p.peak
}
