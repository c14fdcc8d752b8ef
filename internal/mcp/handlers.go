package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	engine *ops.QueryEngine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		db:     db,
		cfg:    cfg,
		engine: ops.NewQueryEngine(db, cfg, logger),
		logger: logger.With(slog.String("component", "mcp.Handlers")),
	}
}

// QueryRequest represents the arguments for menu_query.
type QueryRequest struct {
	Term       string   `json:"term,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// SettingsGetRequest represents the arguments for settings_get.
type SettingsGetRequest struct {
	Keys []string `json:"keys,omitempty"`
}

// SettingsSetRequest represents the arguments for settings_set.
type SettingsSetRequest struct {
	Values map[string]string `json:"values"`
}

// HandleMenuList handles the menu_list tool call.
func (h *Handlers) HandleMenuList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.List(ctx, h.db)
	if err != nil {
		return h.errorResult("menu_list", err), nil
	}
	return successResult(result)
}

// HandleMenuQuery handles the menu_query tool call.
func (h *Handlers) HandleMenuQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input QueryRequest
	if err := req.BindArguments(&input); err != nil {
		return h.errorResult("menu_query", errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.Search(ctx, ops.QueryInput{
		Term:       input.Term,
		Categories: input.Categories,
	})
	if err != nil {
		return h.errorResult("menu_query", err), nil
	}
	return successResult(result)
}

// HandleMenuStatus handles the menu_status tool call.
func (h *Handlers) HandleMenuStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Status(ctx, h.db, h.cfg)
	if err != nil {
		return h.errorResult("menu_status", err), nil
	}
	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SettingsGetRequest
	if err := req.BindArguments(&input); err != nil {
		return h.errorResult("settings_get", errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetSettings(ctx, h.db, ops.SettingsGetInput{Keys: input.Keys})
	if err != nil {
		return h.errorResult("settings_get", err), nil
	}
	return successResult(result)
}

// HandleSettingsSet handles the settings_set tool call.
func (h *Handlers) HandleSettingsSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SettingsSetRequest
	if err := req.BindArguments(&input); err != nil {
		return h.errorResult("settings_set", errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetSettings(ctx, h.db, ops.SettingsSetInput{Pairs: input.Values})
	if err != nil {
		return h.errorResult("settings_set", err), nil
	}
	return successResult(result)
}

// HandleSettingsClear handles the settings_clear tool call.
func (h *Handlers) HandleSettingsClear(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ClearSettings(ctx, h.db)
	if err != nil {
		return h.errorResult("settings_clear", err), nil
	}
	return successResult(result)
}

// errorResult logs err and converts it to an MCP error result.
// Internal error details are not exposed.
func (h *Handlers) errorResult(tool string, err error) *mcp.CallToolResult {
	h.logger.Warn("tool call failed", slog.String("tool", tool), slog.Any("error", err))

	var payload map[string]any
	if lErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    lErr.Code,
			"message": lErr.Message,
			"status":  lErr.Status,
		}
		if lErr.Code != errors.ErrInternal && lErr.Details != nil {
			errorObj["details"] = lErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
