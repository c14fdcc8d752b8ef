package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/logging"
	"github.com/hpungsan/lemon/internal/mcp"
	"github.com/hpungsan/lemon/internal/ops"
	"github.com/hpungsan/lemon/internal/remote"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"bootstrap": true, "list": true, "query": true, "browse": true,
	"status": true, "settings": true, "export": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// homeDir returns LEMON_HOME, or ~/.lemon.
func homeDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("LEMON_HOME")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".lemon"), nil
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _
  | |    ___ _ __ ___   ___  _ __
  | |   / _ \ '_ ' _ \ / _ \| '_ \
  | |__|  __/ | | | | | (_) | | | |
  |_____\___|_| |_| |_|\___/|_| |_|

  Little Lemon menu cache

  Usage: lemon <command> [options]
         lemon --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	baseDir, err := homeDir()
	if err != nil {
		fatal("%v", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logFile := cfg.LogFile
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(baseDir, logFile)
	}
	// Logs go to stderr; stdout carries command output or the MCP protocol.
	logger, closer := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   logFile,
	}, os.Stderr)
	defer closer.Close()
	slog.SetDefault(logger)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", slog.Any("tools", unknown))
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	env := &appEnv{
		db:      database,
		cfg:     cfg,
		baseDir: baseDir,
		logger:  logger,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}

	if isCLIMode(os.Args) {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			closer.Close()
			database.Close()
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'lemon --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default). The store is seeded before tools are served.
	fetcher := remote.New(remote.Config{URL: cfg.MenuURL, Timeout: cfg.FetchTimeout(), Logger: logger})
	if _, err := ops.NewBootstrap(database, fetcher, logger).Run(context.Background()); err != nil {
		fatal("%v", err)
	}
	if err := mcp.Run(database, cfg, Version, logger); err != nil {
		fatal("%v", err)
	}
}
