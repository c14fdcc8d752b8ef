package menu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemValidate(t *testing.T) {
	valid := Item{Name: "Greek Salad", Price: "12.99", Category: CategoryStarters}

	tests := []struct {
		name    string
		item    Item
		wantErr string
	}{
		{name: "valid", item: valid},
		{name: "description and image optional", item: Item{Name: "Bruschetta", Price: "7.99", Category: CategoryStarters}},
		{name: "missing name", item: Item{Price: "1", Category: CategoryMains}, wantErr: "name"},
		{name: "missing price", item: Item{Name: "Pasta", Category: CategoryMains}, wantErr: "price"},
		{name: "missing category", item: Item{Name: "Pasta", Price: "1"}, wantErr: "category"},
		{name: "whitespace name", item: Item{Name: "   ", Price: "1", Category: CategoryMains}, wantErr: "name"},
		{name: "all missing", item: Item{}, wantErr: "name, price, category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAll(t *testing.T) {
	items := []Item{
		{Name: "Lemon Dessert", Price: "6.99", Category: CategoryDesserts},
		{Name: "Water", Price: "1.00", Category: CategoryDrinks},
		{Name: "Broken", Category: CategoryDrinks},
	}

	idx, err := ValidateAll(items)
	require.Error(t, err)
	assert.Equal(t, 2, idx)

	idx, err = ValidateAll(items[:2])
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	idx, err = ValidateAll(nil)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestEntryItem(t *testing.T) {
	e := Entry{ID: 7, Name: "Grilled Fish", Price: "20.00", Description: "fresh", Category: CategoryMains, Image: "grilledFish.jpg"}
	assert.Equal(t, Item{Name: "Grilled Fish", Price: "20.00", Description: "fresh", Category: CategoryMains, Image: "grilledFish.jpg"}, e.Item())
}

func TestCleanLabels(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, []string{}},
		{"trims", []string{" mains ", "drinks"}, []string{"mains", "drinks"}},
		{"drops empty", []string{"", "  ", "desserts"}, []string{"desserts"}},
		{"dedupes keeping order", []string{"drinks", "mains", "drinks"}, []string{"drinks", "mains"}},
		{"case is preserved", []string{"Mains", "mains"}, []string{"Mains", "mains"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLabels(tt.input))
		})
	}
}

func TestImageURL(t *testing.T) {
	base := "https://github.com/Meta-Mobile-Developer-PC/Working-With-Data-API/blob/main/images/"

	got := ImageURL(base, "greekSalad.jpg")
	assert.True(t, strings.HasSuffix(got, "/images/greekSalad.jpg?raw=true"), got)
	assert.NotContains(t, got, "images//")

	assert.Equal(t, "", ImageURL("", "greekSalad.jpg"))
	assert.Equal(t, "", ImageURL(base, " "))
}

func TestDefaultCategories(t *testing.T) {
	assert.Equal(t, []string{"starters", "mains", "desserts", "drinks"}, DefaultCategories)
}
