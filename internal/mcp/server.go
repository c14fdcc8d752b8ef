package mcp

import (
	"database/sql"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/lemon/internal/config"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "lemon"

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"menu_list": {
		def:     menuListTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMenuList },
	},
	"menu_query": {
		def:     menuQueryTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMenuQuery },
	},
	"menu_status": {
		def:     menuStatusTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMenuStatus },
	},
	"settings_get": {
		def:     settingsGetTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_set": {
		def:     settingsSetTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsSet },
	},
	"settings_clear": {
		def:     settingsClearTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsClear },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns the names in the list that are not tools.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the menu and settings tools.
// Tools listed in cfg.DisabledTools are not registered.
func NewServer(db *sql.DB, cfg *config.Config, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for _, name := range AllToolNames() {
		if disabled[name] {
			continue
		}
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio until stdin closes.
func Run(db *sql.DB, cfg *config.Config, version string, logger *slog.Logger) error {
	return server.ServeStdio(NewServer(db, cfg, version, logger))
}
