// Package ops implements the menu operations shared by the CLI, MCP and web hosts.
package ops

import (
	"context"

	"github.com/hpungsan/lemon/internal/menu"
)

// Bootstrap steps, reported in BOOTSTRAP_FAILED details.
const (
	StepEnsureSchema = "ensure_schema"
	StepScan         = "scan"
	StepInsert       = "insert"
	StepRescan       = "rescan"
)

// Fetcher supplies the full menu dataset in one call.
// Implementations absorb their own failures and return an empty list.
type Fetcher interface {
	FetchAll(ctx context.Context) []menu.Item
}

// sourceNamer is implemented by fetchers that can name their origin.
type sourceNamer interface {
	URL() string
}

// sourceOf returns the fetcher's origin for seed-run records.
func sourceOf(f Fetcher) string {
	if n, ok := f.(sourceNamer); ok {
		return n.URL()
	}
	return "unknown"
}
