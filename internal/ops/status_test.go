package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/menu"
)

func TestStatus(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)
	cfg := config.DefaultConfig()

	status, err := Status(ctx, database, cfg)
	require.NoError(t, err)
	assert.False(t, status.Populated)
	assert.Zero(t, status.Entries)
	assert.Nil(t, status.SeedRun)
	assert.Equal(t, db.CurrentSchemaVersion, status.SchemaVersion)

	_, err = NewBootstrap(database, &stubFetcher{items: sampleMenu()}, nil).Run(ctx)
	require.NoError(t, err)

	status, err = Status(ctx, database, cfg)
	require.NoError(t, err)
	assert.True(t, status.Populated)
	assert.Equal(t, 20, status.Entries)
	assert.Equal(t, map[string]int{"starters": 5, "mains": 5, "desserts": 5, "drinks": 5}, status.ByCategory)
	assert.Equal(t, menu.DefaultCategories, status.Categories)
	require.NotNil(t, status.SeedRun)
	assert.Equal(t, 20, status.SeedRun.Items)
}
