package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinicraft-backend/application/services"
	"infinicraft-backend/infrastructure/cache"
	"infinicraft-backend/infrastructure/config"
	"infinicraft-backend/infrastructure/messaging/inmemory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.LLMAPIKey = ""
	return cfg
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.CacheBackend = config.CacheMemory

	// Act
	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	// Assert
	assert.NotNil(t, container.CraftingService)
	assert.NotNil(t, container.Collector)
	assert.Nil(t, container.Tracing)
	assert.IsType(t, &cache.InMemoryCache{}, container.Cache)
	assert.IsType(t, &inmemory.Bus{}, container.Publisher)
	assert.NoError(t, container.Store.Ping(context.Background()))
}

func TestInitializeContainer_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = config.StoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "craft.db")

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	_, err = container.Bootstrap(context.Background())
	require.NoError(t, err)

	base, err := container.CraftingService.ListBaseElements(context.Background())
	require.NoError(t, err)
	assert.Len(t, base, 4)
}

func TestInitializeContainer_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "mongo"

	_, _, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBootstrap_SeedsFromFile(t *testing.T) {
	// Arrange
	seed := filepath.Join(t.TempDir(), "combinations.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"element1": "💧 Water", "element2": "🔥 Fire", "result": "♨️ Steam"},
		{"element1": "broken", "element2": "🔥 Fire", "result": "♨️ Steam"}
	]`), 0o644))

	cfg := testConfig(t)
	cfg.SeedFile = seed

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	// Act
	stop, err := container.Bootstrap(context.Background())
	require.NoError(t, err)
	defer stop()
	_, err = container.Bootstrap(context.Background())
	require.NoError(t, err)

	// Assert
	count, err := container.CraftingService.CombinationCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	all, err := container.CraftingService.ListAllElements(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)

	progress, err := container.CraftingService.GetProgress(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, services.DefaultUserID, progress.UserID)
}
