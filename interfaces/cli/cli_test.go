package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infinicraft-backend/application/services"
	"infinicraft-backend/infrastructure/persistence/memory"
)

func newService(t *testing.T) *services.CraftingService {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewInMemoryStore()
	catalog := services.NewCatalog(store.Elements(), store.BaseElements(), nil, logger)
	index := services.NewCombinationIndex(store.Combinations(), catalog, nil, logger)
	tracker := services.NewDiscoveryTracker(store.Discoveries(), catalog, logger)
	generator := services.NewGenerator(nil, catalog, index, time.Second, nil, logger)
	return services.NewCraftingService(catalog, index, generator, tracker, nil, nil, logger)
}

func run(t *testing.T, svc Service, args ...string) (string, error) {
	t.Helper()
	loader := func(ctx context.Context) (Service, func(), error) { return svc, func() {}, nil }
	root := NewRootCommand(loader, "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combinations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- element1: "💧 Water"
  element2: "🔥 Fire"
  result: "♨️ Steam"
- element1: "nonsense"
  element2: "🔥 Fire"
  result: "♨️ Steam"
`), 0o644))
	return path
}

func TestSeedCommand(t *testing.T) {
	svc := newService(t)
	path := writeSeed(t)

	out, err := run(t, svc, "seed", "--file", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Inserted:  1")
	assert.Contains(t, out, "Skipped:   1")
	assert.Contains(t, out, "Total:     1 combinations")
}

func TestSeedCommand_RequiresFile(t *testing.T) {
	_, err := run(t, newService(t), "seed")
	assert.Error(t, err)
}

func TestCombineCommand_ByName(t *testing.T) {
	// Arrange
	svc := newService(t)
	_, err := run(t, svc, "seed", "-f", writeSeed(t))
	require.NoError(t, err)

	// Act
	first, err := run(t, svc, "combine", "water", "Fire", "--user", "ops")
	require.NoError(t, err)
	second, err := run(t, svc, "combine", "Fire", "Water", "--user", "ops", "--json")
	require.NoError(t, err)

	// Assert
	assert.Contains(t, first, "♨️ Steam (new discovery)")
	var decoded struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Result  struct {
			Name string `json:"name"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(second), &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, services.MessageAlreadyDiscovered, decoded.Message)
	assert.Equal(t, "Steam", decoded.Result.Name)
}

func TestCombineCommand_Failures(t *testing.T) {
	svc := newService(t)
	_, err := svc.SeedBaseElements(context.Background())
	require.NoError(t, err)

	out, err := run(t, svc, "combine", "Wind", "ghost")
	require.NoError(t, err)
	assert.Contains(t, out, services.MessageElementsNotFound)

	out, err = run(t, svc, "combine", "Wind", "Earth")
	require.NoError(t, err)
	assert.Contains(t, out, services.MessageCannotCombine)

	_, err = run(t, svc, "combine", "Wind")
	assert.Error(t, err)
}

func TestProgressAndReset(t *testing.T) {
	svc := newService(t)
	_, err := run(t, svc, "seed", "-f", writeSeed(t))
	require.NoError(t, err)
	_, err = run(t, svc, "combine", "Water", "Fire", "-u", "eve")
	require.NoError(t, err)

	out, err := run(t, svc, "progress", "-u", "eve")
	require.NoError(t, err)
	assert.Contains(t, out, "Discoveries: 5")

	_, err = run(t, svc, "reset", "-u", "eve")
	require.NoError(t, err)

	out, err = run(t, svc, "progress", "-u", "eve", "--json")
	require.NoError(t, err)
	var summary services.ProgressSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 4, summary.DiscoveryCount)
}

func TestElementsCommand(t *testing.T) {
	svc := newService(t)
	_, err := run(t, svc, "seed", "-f", writeSeed(t))
	require.NoError(t, err)

	out, err := run(t, svc, "elements", "--base", "--json")
	require.NoError(t, err)
	var views []elementView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 4)
	assert.Equal(t, "💧", views[0].Emoji)

	out, err = run(t, svc, "elements")
	require.NoError(t, err)
	assert.Contains(t, out, "♨️ Steam")
}
