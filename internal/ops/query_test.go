package ops

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/filter"
	"github.com/hpungsan/lemon/internal/logging"
	"github.com/hpungsan/lemon/internal/menu"
)

func seededEngine(t *testing.T, cfg *config.Config, items []menu.Item) (*QueryEngine, *sql.DB) {
	t.Helper()
	database := setupDB(t)
	_, err := db.InsertAll(context.Background(), database, items, "test")
	require.NoError(t, err)
	return NewQueryEngine(database, cfg, logging.Discard()), database
}

func names(entries []menu.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func soupMenu() []menu.Item {
	return []menu.Item{
		{Name: "Lentil soup", Price: "6", Category: menu.CategoryStarters},
		{Name: "Greek Salad", Price: "7", Category: menu.CategoryStarters},
		{Name: "Fish soup stew", Price: "14", Category: menu.CategoryMains},
		{Name: "Grilled Fish", Price: "15", Category: menu.CategoryMains},
		{Name: "Chocolate soup", Price: "5", Category: menu.CategoryDesserts},
		{Name: "Onion Soup", Price: "6", Category: menu.CategoryStarters},
		{Name: "Lemonade", Price: "3", Category: menu.CategoryDrinks},
	}
}

func TestQuery_EmptyCategoriesMeansAll(t *testing.T) {
	engine, _ := seededEngine(t, config.DefaultConfig(), sampleMenu())

	got, err := engine.Query(context.Background(), filter.NewState(""))
	require.NoError(t, err)
	assert.Len(t, got, 20)

	got, err = engine.Query(context.Background(), filter.NewState("", menu.CategoryMains))
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, e := range got {
		assert.Equal(t, menu.CategoryMains, e.Category)
	}
}

func TestQuery_Conjunctive(t *testing.T) {
	engine, _ := seededEngine(t, config.DefaultConfig(), soupMenu())

	got, err := engine.Query(context.Background(),
		filter.NewState("soup", menu.CategoryStarters, menu.CategoryMains))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lentil soup", "Fish soup stew"}, names(got))
}

func TestQuery_StoreOrderPreserved(t *testing.T) {
	engine, _ := seededEngine(t, config.DefaultConfig(), soupMenu())

	got, err := engine.Query(context.Background(), filter.NewState("", menu.CategoryMains, menu.CategoryStarters))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lentil soup", "Greek Salad", "Fish soup stew", "Grilled Fish", "Onion Soup"}, names(got))
}

func TestQuery_CaseSensitiveByDefault(t *testing.T) {
	engine, _ := seededEngine(t, config.DefaultConfig(), soupMenu())

	got, err := engine.Query(context.Background(), filter.NewState("Soup"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Onion Soup"}, names(got))
}

func TestQuery_CaseInsensitiveConfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearchCaseInsensitive = true
	engine, _ := seededEngine(t, cfg, soupMenu())

	got, err := engine.Query(context.Background(), filter.NewState("SOUP", menu.CategoryStarters))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lentil soup", "Onion Soup"}, names(got))
}

func TestQuery_TermIsLiteral(t *testing.T) {
	items := []menu.Item{
		{Name: "100% Orange Juice", Price: "4", Category: menu.CategoryDrinks},
		{Name: "Iced_Tea", Price: "3", Category: menu.CategoryDrinks},
		{Name: "Iced Coffee", Price: "3", Category: menu.CategoryDrinks},
	}

	for _, insensitive := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.SearchCaseInsensitive = insensitive
		engine, _ := seededEngine(t, cfg, items)

		got, err := engine.Query(context.Background(), filter.NewState("%"))
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Orange Juice"}, names(got), "insensitive=%v", insensitive)

		got, err = engine.Query(context.Background(), filter.NewState("_"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Iced_Tea"}, names(got), "insensitive=%v", insensitive)

		got, err = engine.Query(context.Background(), filter.NewState("'; DROP TABLE menu; --"))
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestQuery_UnknownCategoryMatchesNothing(t *testing.T) {
	engine, _ := seededEngine(t, config.DefaultConfig(), sampleMenu())

	got, err := engine.Query(context.Background(), filter.NewState("", "specials"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestQuery_NoConfiguredCategoriesUsesStored(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Categories = nil
	items := append(sampleMenu(), menu.Item{Name: "Chef Special", Price: "20", Category: "specials"})
	engine, _ := seededEngine(t, cfg, items)

	got, err := engine.Query(context.Background(), filter.NewState(""))
	require.NoError(t, err)
	assert.Len(t, got, 21)

	cats, err := engine.EffectiveCategories(context.Background(), filter.NewState(""))
	require.NoError(t, err)
	assert.Equal(t, []string{"desserts", "drinks", "mains", "specials", "starters"}, cats)
}

func TestQuery_NoCategoriesAnywhere(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Categories = nil
	engine := NewQueryEngine(setupDB(t), cfg, logging.Discard())

	got, err := engine.Query(context.Background(), filter.NewState("x"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_StoreFailureIsQueryFailed(t *testing.T) {
	engine, database := seededEngine(t, config.DefaultConfig(), sampleMenu())
	database.Close()

	_, err := engine.Query(context.Background(), filter.NewState("Greek"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQueryFailed))
}

func TestSearch(t *testing.T) {
	engine, _ := seededEngine(t, config.DefaultConfig(), sampleMenu())

	out, err := engine.Search(context.Background(), QueryInput{Term: "Greek"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Greek Salad", "Greek Moussaka", "Greek Yogurt Honey"}, names(out.Items))
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, menu.DefaultCategories, out.Categories)

	out, err = engine.Search(context.Background(), QueryInput{Term: "Greek", Categories: []string{" desserts ", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Greek Yogurt Honey"}, names(out.Items))
	assert.Equal(t, []string{"desserts"}, out.Categories)
}

func TestList(t *testing.T) {
	_, database := seededEngine(t, config.DefaultConfig(), sampleMenu())

	out, err := List(context.Background(), database)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Count)
	assert.Equal(t, int64(1), out.Items[0].ID)
	assert.Equal(t, int64(20), out.Items[19].ID)
}
