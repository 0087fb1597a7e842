package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	"infinicraft-backend/infrastructure/persistence/memory"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "forever", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "brief", []byte("b"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	v, ok := c.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	_, ok = c.Get(ctx, "brief")
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "forever"))
	_, ok = c.Get(ctx, "forever")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "x", []byte("x"), 0))
	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, "x")
	assert.False(t, ok)
}

// countingElements counts calls reaching the wrapped repository
type countingElements struct {
	ports.ElementRepository
	gets int
}

func (c *countingElements) GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error) {
	c.gets++
	return c.ElementRepository.GetByID(ctx, id)
}

func TestCachedElementRepository(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	inner := &countingElements{ElementRepository: store.Elements()}
	c := NewInMemoryCache()
	defer c.Close()
	repo := NewCachedElementRepository(inner, c, time.Hour, zap.NewNop())

	steam, err := entities.NewElement("Steam", "♨️")
	require.NoError(t, err)
	require.NoError(t, store.Elements().Save(ctx, steam))

	// Act
	first, err := repo.GetByID(ctx, steam.ID())
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, steam.ID())
	require.NoError(t, err)
	byName, err := repo.FindByNameAndSymbol(ctx, "Steam", "♨️")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, inner.gets)
	assert.True(t, first.ID().Equals(second.ID()))
	assert.Equal(t, "♨️", second.Symbol())
	require.NotNil(t, byName)
	assert.True(t, byName.ID().Equals(steam.ID()))
}

func TestCachedElementRepository_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	c := NewInMemoryCache()
	defer c.Close()
	repo := NewCachedElementRepository(store.Elements(), c, time.Hour, zap.NewNop())

	missing, err := repo.FindByNameAndSymbol(ctx, "Mud", "🟤")
	require.NoError(t, err)
	assert.Nil(t, missing)

	mud, err := entities.NewElement("Mud", "🟤")
	require.NoError(t, err)
	require.NoError(t, store.Elements().Save(ctx, mud))

	found, err := repo.FindByNameAndSymbol(ctx, "Mud", "🟤")
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestCachedElementRepository_NameKeysDoNotCollide(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	c := NewInMemoryCache()
	defer c.Close()
	repo := NewCachedElementRepository(store.Elements(), c, time.Hour, zap.NewNop())

	first, err := entities.NewElement("b:c", "a")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	// Act
	other, err := repo.FindByNameAndSymbol(ctx, "c", "a:b")
	require.NoError(t, err)
	same, err := repo.FindByNameAndSymbol(ctx, "b:c", "a")
	require.NoError(t, err)

	// Assert
	assert.Nil(t, other)
	require.NotNil(t, same)
	assert.True(t, same.ID().Equals(first.ID()))
	assert.NotEqual(t, elementNameKey("b:c", "a"), elementNameKey("c", "a:b"))
}

func TestCachedElementRepository_MismatchedEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	c := NewInMemoryCache()
	defer c.Close()
	repo := NewCachedElementRepository(store.Elements(), c, time.Hour, zap.NewNop())

	steam, err := entities.NewElement("Steam", "♨️")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, steam))
	data, ok := c.Get(ctx, elementKey(steam.ID().String()))
	require.True(t, ok)
	require.NoError(t, c.Set(ctx, elementNameKey("Mud", "🟤"), data, time.Hour))

	found, err := repo.FindByNameAndSymbol(ctx, "Mud", "🟤")

	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCachedCombinationRepository(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	c := NewInMemoryCache()
	defer c.Close()
	repo := NewCachedCombinationRepository(store.Combinations(), c, time.Hour, zap.NewNop())

	water := valueobjects.MustElementID("water")
	fire := valueobjects.MustElementID("fire")
	combo, err := entities.NewCombination(water, fire, valueobjects.MustElementID("steam"), entities.SourceSeed)
	require.NoError(t, err)

	_, inserted, err := repo.InsertIfAbsent(ctx, combo)
	require.NoError(t, err)
	assert.True(t, inserted)

	_, cached := c.Get(ctx, combinationKey(combo.Key()))
	assert.True(t, cached)

	got, err := repo.Get(ctx, combo.Key())
	require.NoError(t, err)
	assert.Equal(t, "steam", got.ResultID().String())
	assert.Equal(t, entities.SourceSeed, got.Source())
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(addr, 0, "infinicraft-test:", zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}
