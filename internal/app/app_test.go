package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hawk-economy-core/internal/config"
)

// Constructors only store their dependencies, so the graph builds
// without a live database.
func TestNewBuildsFullGraph(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	a := New(nil, cfg)

	require.NotNil(t, a.Users)
	require.NotNil(t, a.Inventory)
	require.NotNil(t, a.Catalog)
	require.NotNil(t, a.Effects)
	require.NotNil(t, a.Accounts)
	require.NotNil(t, a.Market)
	require.NotNil(t, a.Craft)
	require.NotNil(t, a.Farm)
	require.NotNil(t, a.Relationships)
	require.NotNil(t, a.Ranking)
	require.NotNil(t, a.Mining)
	require.NotNil(t, a.Adventure)
	require.NotNil(t, a.Ticker)
}
