package ops

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
)

// Settings keys written by the onboarding and profile screens.
const (
	SettingFirstName       = "firstName"
	SettingLastName        = "lastName"
	SettingEmail           = "email"
	SettingPhone           = "phone"
	SettingImage           = "image"
	SettingOrderStatuses   = "orderStatuses"
	SettingPasswordChanges = "passwordChanges"
	SettingSpecialOffers   = "specialOffers"
	SettingNewsletter      = "newsletter"
	SettingOnboarded       = "onboarded"
)

// SettingsKeys lists every known settings key, in profile form order.
var SettingsKeys = []string{
	SettingFirstName, SettingLastName, SettingEmail, SettingPhone, SettingImage,
	SettingOrderStatuses, SettingPasswordChanges, SettingSpecialOffers, SettingNewsletter,
	SettingOnboarded,
}

// MaxSettingValueBytes bounds a single stored value (profile images are URIs, not blobs).
const MaxSettingValueBytes = 64 * 1024

// SettingsGetInput contains parameters for the GetSettings operation.
type SettingsGetInput struct {
	Keys []string // optional; empty means all known keys
}

// SettingsGetOutput maps each requested key to its value, or nil if absent.
type SettingsGetOutput struct {
	Values map[string]*string `json:"values"`
}

// GetSettings returns the stored values for the requested keys.
func GetSettings(ctx context.Context, database *sql.DB, input SettingsGetInput) (*SettingsGetOutput, error) {
	keys, err := cleanKeys(input.Keys)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = SettingsKeys
	}

	values, err := db.GetSettings(ctx, database, keys)
	if err != nil {
		return nil, err
	}
	return &SettingsGetOutput{Values: values}, nil
}

// SettingsSetInput contains parameters for the SetSettings operation.
type SettingsSetInput struct {
	Pairs map[string]string // required
}

// SettingsSetOutput contains the result of the SetSettings operation.
type SettingsSetOutput struct {
	Keys []string `json:"keys"` // sorted
}

// SetSettings stores all pairs atomically. Unknown keys are accepted;
// the settings store is an opaque key/value collaborator.
func SetSettings(ctx context.Context, database *sql.DB, input SettingsSetInput) (*SettingsSetOutput, error) {
	if len(input.Pairs) == 0 {
		return nil, errors.NewInvalidRequest("at least one key/value pair is required")
	}

	pairs := make(map[string]string, len(input.Pairs))
	for k, v := range input.Pairs {
		key := strings.TrimSpace(k)
		if key == "" {
			return nil, errors.NewInvalidRequest("settings key must not be empty")
		}
		if len(v) > MaxSettingValueBytes {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("value for %q exceeds %d bytes", key, MaxSettingValueBytes))
		}
		pairs[key] = v
	}

	if err := db.SetSettings(ctx, database, pairs); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return &SettingsSetOutput{Keys: keys}, nil
}

// SettingsClearOutput contains the result of the ClearSettings operation.
type SettingsClearOutput struct {
	Cleared int `json:"cleared"`
}

// ClearSettings removes every stored setting.
func ClearSettings(ctx context.Context, database *sql.DB) (*SettingsClearOutput, error) {
	n, err := db.ClearSettings(ctx, database)
	if err != nil {
		return nil, err
	}
	return &SettingsClearOutput{Cleared: n}, nil
}

func cleanKeys(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, errors.NewInvalidRequest("settings key must not be empty")
		}
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out, nil
}
