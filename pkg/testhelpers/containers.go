package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/database"
)

const (
	// PostgresImage is the stock image the integration suite runs against.
	PostgresImage = "postgres:16-alpine"

	testUser     = "launchready"
	testPassword = "test_password"
	testDatabase = "launchready_test"
)

// TestDB holds a shared PostgreSQL container and a superuser pool on it.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		// The entrypoint restarts postgres once after init; wait for the second start.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	tdb := &TestDB{Container: container}
	connStr, err := tdb.ConnString(ctx, testUser, testPassword, testDatabase)
	if err != nil {
		return nil, err
	}
	tdb.ConnStr = connStr

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	tdb.Pool = pool
	return tdb, nil
}

// ConnString builds a connection URL to dbName on the container for the given role.
func (tdb *TestDB) ConnString(ctx context.Context, user, password, dbName string) (string, error) {
	host, err := tdb.Container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := tdb.Container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port.Port(), dbName), nil
}

// SuperuserConnString is ConnString for the container's owner role.
func (tdb *TestDB) SuperuserConnString(ctx context.Context, dbName string) (string, error) {
	return tdb.ConnString(ctx, testUser, testPassword, dbName)
}

// EngineDB holds the engine database connection with migrations applied.
// Use this for testing handlers, services, and repositories against a real database.
type EngineDB struct {
	DB      *database.DB
	ConnStr string
}

var (
	sharedEngineDB     *EngineDB
	sharedEngineDBOnce sync.Once
	sharedEngineDBErr  error
)

// GetEngineDB returns a shared database with every migration applied.
func GetEngineDB(t *testing.T) *EngineDB {
	t.Helper()

	testDB := GetTestDB(t)

	sharedEngineDBOnce.Do(func() {
		sharedEngineDB, sharedEngineDBErr = setupEngineDB(testDB)
	})

	if sharedEngineDBErr != nil {
		t.Fatalf("Failed to setup engine database: %v", sharedEngineDBErr)
	}

	return sharedEngineDB
}

func setupEngineDB(testDB *TestDB) (*EngineDB, error) {
	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            testDB.ConnStr,
		MaxConnections: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine database: %w", err)
	}

	if err := database.RunMigrations(db.SQL(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &EngineDB{
		DB:      db,
		ConnStr: testDB.ConnStr,
	}, nil
}

// CreateTestProject inserts a project owned by ownerID and deletes it (with
// its items and events, via cascade) when the test ends.
func CreateTestProject(t *testing.T, engineDB *EngineDB, ownerID string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	projectID := uuid.New()

	_, err := engineDB.DB.Pool.Exec(ctx,
		`INSERT INTO projects (id, owner_id, name) VALUES ($1, $2, $3)`,
		projectID, ownerID, "Test Project "+projectID.String()[:8])
	if err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}

	t.Cleanup(func() {
		_, _ = engineDB.DB.Pool.Exec(context.Background(), `DELETE FROM projects WHERE id = $1`, projectID)
	})
	return projectID
}

// TenantContext returns a context carrying a tenant scope for projectID.
// The scope is closed when the test ends.
func TenantContext(t *testing.T, engineDB *EngineDB, projectID uuid.UUID) context.Context {
	t.Helper()

	scope, err := engineDB.DB.WithTenant(context.Background(), projectID)
	if err != nil {
		t.Fatalf("Failed to create tenant scope: %v", err)
	}
	t.Cleanup(scope.Close)

	return database.SetTenantScope(context.Background(), scope)
}
