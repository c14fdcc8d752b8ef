package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/hpungsan/lemon/internal/menu"
)

// Defaults.
const (
	DefaultMenuURL        = "https://raw.githubusercontent.com/Meta-Mobile-Developer-PC/Working-With-Data-API/main/capstone.json"
	DefaultImageBaseURL   = "https://github.com/Meta-Mobile-Developer-PC/Working-With-Data-API/blob/main/images"
	DefaultDebounceMS     = 500
	DefaultFetchTimeoutMS = 15000
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultWebBind        = "127.0.0.1"
	DefaultWebPort        = 8321
)

// Config holds application configuration.
type Config struct {
	// MenuURL is the remote endpoint the menu is fetched from on first run
	MenuURL string `json:"menu_url" env:"LEMON_MENU_URL"`

	// ImageBaseURL is prepended to entry image identifiers when rendering.
	ImageBaseURL string `json:"image_base_url,omitempty" env:"LEMON_IMAGE_BASE_URL"`

	// Categories is the category vocabulary shown as filter chips, in order.
	// An empty active selection means all of these.
	Categories []string `json:"categories,omitempty" env:"LEMON_CATEGORIES" envSeparator:","`

	// DebounceMS is the quiet window for search text input, in milliseconds.
	DebounceMS int `json:"debounce_ms,omitempty" env:"LEMON_DEBOUNCE_MS"`

	// FetchTimeoutMS bounds the single remote fetch, in milliseconds.
	FetchTimeoutMS int `json:"fetch_timeout_ms,omitempty" env:"LEMON_FETCH_TIMEOUT_MS"`

	// SearchCaseInsensitive switches name matching from case-sensitive
	// substring matching to case-insensitive matching.
	SearchCaseInsensitive bool `json:"search_case_insensitive,omitempty" env:"LEMON_SEARCH_CASE_INSENSITIVE"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" env:"LEMON_DB_MAX_OPEN_CONNS"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" env:"LEMON_DB_MAX_IDLE_CONNS"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" env:"LEMON_LOG_LEVEL"`

	// LogFormat is one of text, json, pretty.
	LogFormat string `json:"log_format,omitempty" env:"LEMON_LOG_FORMAT"`

	// LogFile, when set, additionally writes JSON logs to a rotating file.
	// Relative paths are resolved against the base directory.
	LogFile string `json:"log_file,omitempty" env:"LEMON_LOG_FILE"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" env:"LEMON_DISABLED_TOOLS" envSeparator:","`

	// AllowedPaths lists extra absolute directories export and snapshot
	// files may live in, besides <base>/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty" env:"LEMON_ALLOWED_PATHS" envSeparator:","`

	// AllowUnsafePaths lifts the directory restriction on export and
	// snapshot files. Symlinks are still rejected.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" env:"LEMON_ALLOW_UNSAFE_PATHS"`

	// WebBind and WebPort configure the address of the web UI.
	WebBind string `json:"web_bind,omitempty" env:"LEMON_WEB_BIND"`
	WebPort int    `json:"web_port,omitempty" env:"LEMON_WEB_PORT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MenuURL:        DefaultMenuURL,
		ImageBaseURL:   DefaultImageBaseURL,
		Categories:     append([]string(nil), menu.DefaultCategories...),
		DebounceMS:     DefaultDebounceMS,
		FetchTimeoutMS: DefaultFetchTimeoutMS,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		WebBind:        DefaultWebBind,
		WebPort:        DefaultWebPort,
	}
}

// Debounce returns the search debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// FetchTimeout returns the remote fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json and then applies
// LEMON_* environment overrides.
// Returns default config (plus env overrides) if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.lemon.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return ApplyEnv(cfg)
}

// ApplyEnv overlays LEMON_* environment variables onto cfg.
// Unset variables leave the existing values untouched.
func ApplyEnv(cfg *Config) (*Config, error) {
	overlay := &Config{}
	if err := env.Parse(overlay); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return Merge(cfg, overlay), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars. A non-empty overlay category
// list replaces the base list (order matters for chips); other arrays are
// merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MenuURL = firstString(overlay.MenuURL, base.MenuURL)
	result.ImageBaseURL = firstString(overlay.ImageBaseURL, base.ImageBaseURL)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = firstString(overlay.LogFormat, base.LogFormat)
	result.LogFile = firstString(overlay.LogFile, base.LogFile)
	result.WebBind = firstString(overlay.WebBind, base.WebBind)

	result.DebounceMS = firstInt(overlay.DebounceMS, base.DebounceMS)
	result.FetchTimeoutMS = firstInt(overlay.FetchTimeoutMS, base.FetchTimeoutMS)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.WebPort = firstInt(overlay.WebPort, base.WebPort)

	// Booleans: overlay wins if true, else base
	result.SearchCaseInsensitive = base.SearchCaseInsensitive || overlay.SearchCaseInsensitive
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	if cats := menu.CleanLabels(overlay.Categories); len(cats) > 0 {
		result.Categories = cats
	} else {
		result.Categories = menu.CleanLabels(base.Categories)
	}
	if len(result.Categories) == 0 {
		result.Categories = nil
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	result := menu.CleanLabels(append(append([]string(nil), a...), b...))
	if len(result) == 0 {
		return nil
	}
	return result
}
