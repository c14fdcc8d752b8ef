package menu

import "strings"

// Known category labels, in display order.
const (
	CategoryStarters = "starters"
	CategoryMains    = "mains"
	CategoryDesserts = "desserts"
	CategoryDrinks   = "drinks"
)

// DefaultCategories is the category vocabulary used when none is configured.
var DefaultCategories = []string{CategoryStarters, CategoryMains, CategoryDesserts, CategoryDrinks}

// Item is a menu entry as delivered by the remote source, before the store
// has assigned it an id.
type Item struct {
	Name        string `json:"name" validate:"required"`
	Price       string `json:"price" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	Image       string `json:"image"`
}

// Entry is a persisted menu entry.
type Entry struct {
	// ID is assigned by the store on insert and never changes afterwards
	ID int64 `json:"id"`

	// Name is the display name and the target of text search
	Name string `json:"name"`

	// Price is a decimal-like string; it is never parsed
	Price string `json:"price"`

	Description string `json:"description"`

	// Category is one of the configured labels (starters, mains, ...)
	Category string `json:"category"`

	// Image is an opaque remote asset identifier
	Image string `json:"image"`
}

// Item returns the entry without its id.
func (e Entry) Item() Item {
	return Item{
		Name:        e.Name,
		Price:       e.Price,
		Description: e.Description,
		Category:    e.Category,
		Image:       e.Image,
	}
}

// CleanLabels trims labels, drops empty ones and removes duplicates while
// keeping the first occurrence order.
func CleanLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	result := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		result = append(result, l)
	}
	return result
}

// ImageURL builds the download URL for an entry image.
// Returns "" when either part is missing.
func ImageURL(baseURL, image string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	image = strings.TrimLeft(strings.TrimSpace(image), "/")
	if baseURL == "" || image == "" {
		return ""
	}
	return baseURL + "/" + image + "?raw=true"
}
