//go:build integration

package migrations_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
	"github.com/dennissolver/LaunchReady-sub000/pkg/testhelpers"
)

// Test_002_PriorityFunctionMatchesModel verifies protection_status_priority()
// agrees with ProtectionStatus.Priority for every status and for unknowns.
func Test_002_PriorityFunctionMatchesModel(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx := context.Background()

	statuses := append(models.AllStatuses(), "bogus", "")
	for _, s := range statuses {
		var got int
		err := engineDB.DB.Pool.QueryRow(ctx, "SELECT protection_status_priority($1)", string(s)).Scan(&got)
		require.NoError(t, err)
		assert.Equal(t, s.Priority(), got, "priority mismatch for %q", s)
	}
}

// Test_002_UniqueProjectItemType verifies the unique index the upsert relies on.
func Test_002_UniqueProjectItemType(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	projectID := testhelpers.CreateTestProject(t, engineDB, "owner")

	insert := `INSERT INTO protection_items (project_id, item_type, item_name, status) VALUES ($1, 'domain', 'Domain Name', 'pending')`
	_, err := engineDB.DB.Pool.Exec(ctx, insert, projectID)
	require.NoError(t, err)

	_, err = engineDB.DB.Pool.Exec(ctx, insert, projectID)
	require.Error(t, err, "second item for the same key should violate the unique index")
	assert.Contains(t, err.Error(), "idx_protection_items_project_type")

	var notes string
	err = engineDB.DB.Pool.QueryRow(ctx,
		`SELECT notes FROM protection_items WHERE project_id = $1 AND item_type = 'domain'`, projectID).Scan(&notes)
	require.NoError(t, err)
	assert.Equal(t, "", notes, "notes should default to empty")
}

// Test_003_EvidenceDefaults verifies evidence_events column defaults.
func Test_003_EvidenceDefaults(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	projectID := testhelpers.CreateTestProject(t, engineDB, "owner")

	var id uuid.UUID
	var metadata map[string]any
	err := engineDB.DB.Pool.QueryRow(ctx, `
		INSERT INTO evidence_events (project_id, event_type, title)
		VALUES ($1, 'voice_discovery', 'Voice Discovery Session')
		RETURNING id, metadata`, projectID).Scan(&id, &metadata)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Empty(t, metadata)
}

// Test_RLS_PoliciesEnabled verifies every project table has row-level security on.
func Test_RLS_PoliciesEnabled(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx := context.Background()

	for _, table := range []string{"projects", "protection_items", "evidence_events"} {
		var enabled bool
		err := engineDB.DB.Pool.QueryRow(ctx,
			`SELECT relrowsecurity FROM pg_class WHERE relname = $1`, table).Scan(&enabled)
		require.NoError(t, err)
		assert.True(t, enabled, "RLS should be enabled on %s", table)
	}
}
