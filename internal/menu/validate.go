package menu

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks that an item carries every field the store requires.
// Whitespace-only values count as missing.
func (it Item) Validate() error {
	trimmed := Item{
		Name:        strings.TrimSpace(it.Name),
		Price:       strings.TrimSpace(it.Price),
		Description: it.Description,
		Category:    strings.TrimSpace(it.Category),
		Image:       it.Image,
	}
	err := itemValidator().Struct(trimmed)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

// ValidateAll validates every item and reports the index of the first invalid one.
// Returns -1 and nil when all items are valid.
func ValidateAll(items []Item) (int, error) {
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return i, err
		}
	}
	return -1, nil
}
