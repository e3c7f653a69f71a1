package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchboard/internal/integration"
	pkgerrors "switchboard/pkg/errors"
)

func TestIntegrationRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	infra := SetupTestInfraWithOptions(t, true, false, true)
	repo := integration.NewRepository(infra.PostgresDB)
	ctx := waitCtx(t)

	connectedID := insertIntegration(t, infra.PostgresDB, testTenant, "shopify", "connected")
	insertIntegration(t, infra.PostgresDB, testTenant, "hubspot", "disconnected")

	t.Run("find by id", func(t *testing.T) {
		integ, err := repo.FindByID(ctx, connectedID)
		require.NoError(t, err)
		assert.Equal(t, "shopify", integ.Provider)
		assert.True(t, integ.IsConnected())
	})

	t.Run("find by tenant and provider", func(t *testing.T) {
		integ, err := repo.FindByTenantAndProvider(ctx, testTenant, "hubspot")
		require.NoError(t, err)
		assert.False(t, integ.IsConnected())
	})

	t.Run("missing integration yields not found", func(t *testing.T) {
		_, err := repo.FindByTenantAndProvider(ctx, testTenant, "pipedrive")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("cached repository serves repeated lookups from redis", func(t *testing.T) {
		cached := integration.NewCachedRepository(repo, infra.RedisClient, time.Minute, createTestLogger())

		first, err := cached.FindByID(ctx, connectedID)
		require.NoError(t, err)

		// Second read hits the cache; the row behind it can change without
		// the cached copy noticing until the TTL expires.
		_, err = infra.PostgresDB.Exec(`UPDATE integrations SET status = 'disconnected' WHERE id = $1`, connectedID)
		require.NoError(t, err)

		second, err := cached.FindByID(ctx, connectedID)
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)

		fresh, err := repo.FindByID(ctx, connectedID)
		require.NoError(t, err)
		assert.Equal(t, "disconnected", fresh.Status)
	})
}
