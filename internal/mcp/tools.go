package mcp

import "github.com/mark3labs/mcp-go/mcp"

func menuListTool() mcp.Tool {
	return mcp.NewTool(
		"menu_list",
		mcp.WithDescription("List every cached menu entry in store order."),
	)
}

func menuQueryTool() mcp.Tool {
	return mcp.NewTool(
		"menu_query",
		mcp.WithDescription("Filter the cached menu by name substring and categories. "+
			"An empty category list means all categories."),
		mcp.WithString("term",
			mcp.Description("Substring the entry name must contain; empty for no text filter"),
		),
		mcp.WithArray("categories",
			mcp.Description("Category labels to include, e.g. starters, mains, desserts, drinks"),
			mcp.WithStringItems(),
		),
	)
}

func menuStatusTool() mcp.Tool {
	return mcp.NewTool(
		"menu_status",
		mcp.WithDescription("Report entry counts per category and the last seed run."),
	)
}

func settingsGetTool() mcp.Tool {
	return mcp.NewTool(
		"settings_get",
		mcp.WithDescription("Read profile settings. Absent keys are returned as null."),
		mcp.WithArray("keys",
			mcp.Description("Keys to read; empty for every known profile key"),
			mcp.WithStringItems(),
		),
	)
}

func settingsSetTool() mcp.Tool {
	return mcp.NewTool(
		"settings_set",
		mcp.WithDescription("Store profile settings atomically."),
		mcp.WithObject("values",
			mcp.Required(),
			mcp.Description("String values keyed by setting name, e.g. {\"firstName\": \"Tilly\"}"),
		),
	)
}

func settingsClearTool() mcp.Tool {
	return mcp.NewTool(
		"settings_clear",
		mcp.WithDescription("Remove every stored profile setting. The menu cache is kept."),
		mcp.WithDestructiveHintAnnotation(true),
	)
}
