// Package storetest holds behaviour checks shared by every ports.Store implementation.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// RunContract exercises a store produced by newStore
func RunContract(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("elements", func(t *testing.T) { testElements(t, newStore(t)) })
	t.Run("base set", func(t *testing.T) { testBaseSet(t, newStore(t)) })
	t.Run("combinations", func(t *testing.T) { testCombinations(t, newStore(t)) })
	t.Run("concurrent combination inserts", func(t *testing.T) { testConcurrentCombinations(t, newStore(t)) })
	t.Run("discoveries", func(t *testing.T) { testDiscoveries(t, newStore(t)) })
}

func testElements(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Elements()

	steam, err := entities.NewElement("Steam", "♨️")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, steam))

	got, err := repo.GetByID(ctx, steam.ID())
	require.NoError(t, err)
	assert.Equal(t, "Steam", got.Name())
	assert.Equal(t, "♨️", got.Symbol())

	found, err := repo.FindByNameAndSymbol(ctx, "Steam", "♨️")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.ID().Equals(steam.ID()))

	missing, err := repo.FindByNameAndSymbol(ctx, "Steam", "💨")
	require.NoError(t, err)
	assert.Nil(t, missing)

	duplicate, err := entities.NewElement("Steam", "♨️")
	require.NoError(t, err)
	err = repo.Save(ctx, duplicate)
	assert.True(t, pkgerrors.IsConflict(err), "duplicate name and symbol must conflict: %v", err)

	_, err = repo.GetByID(ctx, valueobjects.MustElementID("ghost"))
	assert.True(t, pkgerrors.IsNotFound(err))

	mud, err := entities.NewElement("Mud", "🟤")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, mud))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Steam", all[0].Name())
	assert.Equal(t, "Mud", all[1].Name())
}

func testBaseSet(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.BaseElements()

	ids, err := repo.GetBaseIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	first := valueobjects.ElementIDsFromStrings([]string{"water", "fire", "wind", "earth"})
	saved, err := repo.SaveBaseIDs(ctx, first)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = repo.SaveBaseIDs(ctx, valueobjects.ElementIDsFromStrings([]string{"a", "b", "c", "d"}))
	require.NoError(t, err)
	assert.False(t, saved)

	ids, err = repo.GetBaseIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"water", "fire", "wind", "earth"}, valueobjects.ElementIDStrings(ids))
}

func testCombinations(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Combinations()
	water := valueobjects.MustElementID("water")
	fire := valueobjects.MustElementID("fire")

	key, err := valueobjects.NewPairKey(fire, water)
	require.NoError(t, err)
	none, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, none)

	steam, err := entities.NewCombination(water, fire, valueobjects.MustElementID("steam"), entities.SourceSeed)
	require.NoError(t, err)
	stored, inserted, err := repo.InsertIfAbsent(ctx, steam)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "steam", stored.ResultID().String())

	mist, err := entities.NewCombination(fire, water, valueobjects.MustElementID("mist"), entities.SourceGenerated)
	require.NoError(t, err)
	stored, inserted, err = repo.InsertIfAbsent(ctx, mist)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "steam", stored.ResultID().String())

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "steam", got.ResultID().String())
	assert.Equal(t, entities.SourceSeed, got.Source())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testConcurrentCombinations(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Combinations()
	wind := valueobjects.MustElementID("wind")
	earth := valueobjects.MustElementID("earth")

	const writers = 8
	winners := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result := valueobjects.MustElementID(string(rune('a' + i)))
			combo, err := entities.NewCombination(wind, earth, result, entities.SourceGenerated)
			if !assert.NoError(t, err) {
				return
			}
			stored, _, err := repo.InsertIfAbsent(ctx, combo)
			if assert.NoError(t, err) {
				winners[i] = stored.ResultID().String()
			}
		}(i)
	}
	wg.Wait()

	for _, w := range winners {
		assert.Equal(t, winners[0], w, "every writer must observe the same winner")
	}
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testDiscoveries(t *testing.T, store ports.Store) {
	ctx := context.Background()
	repo := store.Discoveries()
	base := valueobjects.ElementIDsFromStrings([]string{"water", "fire", "wind", "earth"})
	steam := valueobjects.MustElementID("steam")

	none, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = repo.Add(ctx, "u1", steam)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDiscoveryNotFound))

	set, err := entities.NewDiscoverySet("u1", base)
	require.NoError(t, err)
	created, err := repo.CreateIfAbsent(ctx, set)
	require.NoError(t, err)
	assert.Equal(t, 4, created.Count())

	isNew, err := repo.Add(ctx, "u1", steam)
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = repo.Add(ctx, "u1", steam)
	require.NoError(t, err)
	assert.False(t, isNew)

	// a second initializer sees the existing record
	other, err := entities.NewDiscoverySet("u1", base)
	require.NoError(t, err)
	existing, err := repo.CreateIfAbsent(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 5, existing.Count())
	assert.Equal(t, "steam", existing.IDs()[4].String())

	reset, err := entities.NewDiscoverySet("u1", base)
	require.NoError(t, err)
	require.NoError(t, repo.Replace(ctx, reset))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.ElementIDStrings(base), valueobjects.ElementIDStrings(got.IDs()))
}
