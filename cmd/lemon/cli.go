package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/filter"
	"github.com/hpungsan/lemon/internal/menu"
	"github.com/hpungsan/lemon/internal/ops"
	"github.com/hpungsan/lemon/internal/remote"
	"github.com/hpungsan/lemon/internal/web"
)

// appEnv carries the process-wide dependencies of every command.
type appEnv struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
	logger  *slog.Logger
	stdin   io.Reader
	stdout  io.Writer
}

func (e *appEnv) exportsDir() string {
	return ops.ExportsDir(e.baseDir)
}

// fetcher returns the remote menu client, or a snapshot reader when from is set.
func (e *appEnv) fetcher(from string) ops.Fetcher {
	if from != "" {
		return ops.NewSnapshotSource(from, e.exportsDir(), e.cfg, e.logger)
	}
	return remote.New(remote.Config{
		URL:     e.cfg.MenuURL,
		Timeout: e.cfg.FetchTimeout(),
		Logger:  e.logger,
	})
}

// bootstrap seeds the store on first use and returns the stored entries.
func (e *appEnv) bootstrap(ctx context.Context, from string) (*ops.BootstrapOutput, error) {
	return ops.NewBootstrap(e.db, e.fetcher(from), e.logger).Run(ctx)
}

// newCLIApp creates the CLI application with all commands.
// env may be nil when only help or version output is needed.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "lemon",
		Usage:   "Little Lemon menu cache",
		Version: Version,
		Commands: []*cli.Command{
			bootstrapCmd(env),
			listCmd(env),
			queryCmd(env),
			browseCmd(env),
			statusCmd(env),
			settingsCmd(env),
			exportCmd(env),
			serveCmd(env),
		},
	}
	if env != nil {
		app.Reader = env.stdin
		app.Writer = env.stdout
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// bootstrapResult is the bootstrap command output; entries are summarized.
type bootstrapResult struct {
	Seeded  bool         `json:"seeded"`
	Fetched int          `json:"fetched"`
	Entries int          `json:"entries"`
	Source  string       `json:"source,omitempty"`
	SeedRun *db.SeedRun  `json:"seed_run,omitempty"`
	Items   []menu.Entry `json:"items,omitempty"`
}

// bootstrapCmd creates the bootstrap command.
func bootstrapCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "bootstrap",
		Usage: "Seed the local store from the remote menu if it is empty",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "Seed from a JSONL snapshot instead of the remote menu"},
			&cli.BoolFlag{Name: "items", Usage: "Include the stored entries in the output"},
		},
		Action: func(c *cli.Context) error {
			out, err := env.bootstrap(c.Context, c.String("from"))
			if err != nil {
				return outputError(err)
			}

			result := bootstrapResult{
				Seeded:  out.Seeded,
				Fetched: out.Fetched,
				Entries: len(out.Entries),
			}
			if out.SeedRun != nil {
				result.SeedRun = out.SeedRun
				result.Source = out.SeedRun.SourceURL
			}
			if c.Bool("items") {
				result.Items = out.Entries
			}
			return outputJSON(env.stdout, result)
		},
	}
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every stored menu entry",
		Action: func(c *cli.Context) error {
			if _, err := env.bootstrap(c.Context, ""); err != nil {
				return outputError(err)
			}

			output, err := ops.List(c.Context, env.db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.stdout, output)
		},
	}
}

// queryCmd creates the query command.
func queryCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Filter the menu by name text and categories",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "term", Aliases: []string{"t"}, Usage: "Name substring to match"},
			&cli.StringSliceFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category to include (repeatable, comma-separated)"},
		},
		Action: func(c *cli.Context) error {
			if _, err := env.bootstrap(c.Context, ""); err != nil {
				return outputError(err)
			}

			engine := ops.NewQueryEngine(env.db, env.cfg, env.logger)
			output, err := engine.Search(c.Context, ops.QueryInput{
				Term:       c.String("term"),
				Categories: splitLabels(c.StringSlice("category")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.stdout, output)
		},
	}
}

// browseCmd creates the browse command: an interactive filter session.
// Each input line is the current contents of the search box. Lines
// starting with ':' are commands.
func browseCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Interactively filter the menu (type text; :toggle <category>, :categories a,b, :flush, :quit)",
		Action: func(c *cli.Context) error {
			boot, err := env.bootstrap(c.Context, "")
			if err != nil {
				return outputError(err)
			}

			engine := ops.NewQueryEngine(env.db, env.cfg, env.logger)
			ctrl := filter.NewController(engine, boot.Entries,
				filter.WithDebounce(env.cfg.Debounce()),
				filter.WithLogger(env.logger),
				filter.WithContext(c.Context),
			)
			defer ctrl.Close()

			p := &browsePrinter{w: env.stdout}
			p.print(filter.Update{State: ctrl.State(), Entries: boot.Entries})
			unsubscribe := ctrl.Subscribe(p.print)
			defer unsubscribe()

			return runBrowse(ctrl, env.stdin)
		},
	}
}

// runBrowse feeds input lines to ctrl until EOF or :quit, then settles
// pending text and waits for the last result.
func runBrowse(ctrl *filter.Controller, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ":") {
			ctrl.SetSearchText(line)
			continue
		}

		cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
		switch cmd {
		case "quit", "q":
			ctrl.Flush()
			ctrl.Wait()
			return nil
		case "toggle", "t":
			ctrl.ToggleCategory(strings.TrimSpace(arg))
		case "categories", "c":
			ctrl.SetCategories(splitLabels([]string{arg}))
		case "flush", "f":
			ctrl.Flush()
		default:
			return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown browse command %q", line)))
		}
		ctrl.Wait()
	}
	if err := scanner.Err(); err != nil {
		return outputError(errors.NewInternal(err))
	}

	ctrl.Flush()
	ctrl.Wait()
	return nil
}

// browsePrinter writes each published result set as a text block.
type browsePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *browsePrinter) print(u filter.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cats := u.State.ActiveCategories()
	label := "all"
	if len(cats) > 0 {
		label = strings.Join(cats, ",")
	}
	fmt.Fprintf(p.w, "# term=%q categories=%s (%d)\n", u.State.SearchTerm, label, len(u.Entries))
	if u.Err != nil {
		fmt.Fprintf(p.w, "! %s\n", errorText(u.Err))
	}
	for _, e := range u.Entries {
		fmt.Fprintf(p.w, "  %-24s %8s  %s\n", e.Name, "$"+e.Price, e.Category)
	}
}

// statusCmd creates the status command.
func statusCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show store counts and the last seed run",
		Action: func(c *cli.Context) error {
			output, err := ops.Status(c.Context, env.db, env.cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.stdout, output)
		},
	}
}

// settingsCmd creates the settings command group.
func settingsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Read and write profile settings",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print settings values (all known keys by default)",
				ArgsUsage: "[key...]",
				Action: func(c *cli.Context) error {
					output, err := ops.GetSettings(c.Context, env.db, ops.SettingsGetInput{Keys: c.Args().Slice()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(env.stdout, output)
				},
			},
			{
				Name:      "set",
				Usage:     "Store settings values",
				ArgsUsage: "key=value...",
				Action: func(c *cli.Context) error {
					pairs, err := parsePairs(c.Args().Slice())
					if err != nil {
						return outputError(err)
					}
					output, err := ops.SetSettings(c.Context, env.db, ops.SettingsSetInput{Pairs: pairs})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(env.stdout, output)
				},
			},
			{
				Name:  "clear",
				Usage: "Remove every stored setting (log out)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "confirm", Usage: "Required to clear"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("confirm") {
						return outputError(errors.NewInvalidRequest("--confirm is required"))
					}
					output, err := ops.ClearSettings(c.Context, env.db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(env.stdout, output)
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the cached menu to a JSONL snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.lemon/exports/menu-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env.db, env.cfg, env.exportsDir(), ops.ExportInput{
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(env.stdout, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the menu web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if bind := c.String("bind"); bind != "" {
				env.cfg.WebBind = bind
			}
			if port := c.Int("port"); port > 0 {
				env.cfg.WebPort = port
			}

			if _, err := env.bootstrap(c.Context, ""); err != nil {
				return outputError(err)
			}

			srv, err := web.NewServer(env.db, env.cfg, Version, env.logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, env.logger)
		},
	}
}

// Helper functions

// outputJSON marshals result to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(errorText(err), 1)
}

// errorText renders err as "[CODE] message" when it carries a code.
func errorText(err error) string {
	if lErr, ok := errors.As(err); ok {
		return fmt.Sprintf("[%s] %s", lErr.Code, lErr.Message)
	}
	return err.Error()
}

// splitLabels flattens repeated and comma-separated category flags.
func splitLabels(values []string) []string {
	var labels []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if t := strings.TrimSpace(p); t != "" {
				labels = append(labels, t)
			}
		}
	}
	return labels
}

// parsePairs parses key=value arguments.
func parsePairs(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("expected key=value, got %q", a))
		}
		pairs[strings.TrimSpace(k)] = v
	}
	return pairs, nil
}
