package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docfind/internal"
	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/models"
	pkgconfig "github.com/starford/docfind/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openApp loads the configuration and wires the index. Logs go to logOut so
// command output on stdout stays clean.
func openApp(cmd *cli.Command, logOut io.Writer) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Open(
		internal.WithConfig(cfg),
		internal.WithLogOutput(logOut),
		internal.WithVersion(version),
	)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if paths := cmd.StringSlice("watch"); len(paths) > 0 {
		cfg.Watch.Paths = append(cfg.Watch.Paths, paths...)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runIndex(ctx context.Context, cmd *cli.Command) error {
	roots := cmd.Args().Slice()
	if len(roots) == 0 {
		return errors.New("index: at least one directory is required")
	}
	app, err := openApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	quiet := cmd.Bool("quiet")
	progress := func(n int, name string) {
		if !quiet {
			fmt.Fprintf(os.Stderr, "\r\033[K[%d] %s", n, name)
		}
	}

	var failed error
	for _, root := range roots {
		report, err := app.Service.IndexDirectory(ctx, root, progress)
		if !quiet {
			fmt.Fprint(os.Stderr, "\r\033[K")
		}
		fmt.Fprintf(os.Stdout, "%s: scanned %d, indexed %d, unchanged %d, removed %d, chunks %d (%s)\n",
			report.Root, report.Scanned, report.Processed, report.Skipped, report.Removed, report.Chunks,
			report.Duration.Round(time.Millisecond))
		if err != nil {
			failed = errors.Join(failed, fmt.Errorf("index %s: %w", root, err))
		}
	}
	return failed
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return errors.New("search: a query is required")
	}
	app, err := openApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := docservice.SearchOptions{
		TopK:     int(cmd.Int("top-k")),
		Type:     cmd.String("type"),
		Distinct: cmd.Bool("distinct") || app.Config.Search.DistinctFiles,
	}
	results := app.Service.Search(ctx, query, opts)

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printResults(os.Stdout, results)
	return nil
}

func printResults(w io.Writer, results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tFILE\tSHEET\tSNIPPET")
	for _, r := range results {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", r.Score, r.Metadata.SourcePath, r.SheetName, snippet(r.Text, 80))
	}
	_ = tw.Flush()
}

func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-1]) + "…"
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	app, err := openApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	st, err := app.Service.Stats(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func runReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return errors.New("reset: refusing to delete the index without --yes")
	}
	app, err := openApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Service.Reset(ctx); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return errors.New("reset: an index run is in progress")
		}
		return err
	}
	fmt.Fprintln(os.Stdout, "index reset")
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	app, err := openApp(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.ServeMCP()
}

func main() {
	cmd := &cli.Command{
		Name:    "docfind",
		Usage:   "Semantic search over local documents (PDF, Word, Excel, text)",
		Version: version,
		Action:  runServe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index or refresh one or more directories",
				ArgsUsage: "<dir>...",
				Action:    runIndex,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Do not print per-file progress"},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the index",
				ArgsUsage: "<query>",
				Action:    runSearch,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "top-k", Aliases: []string{"k"}, Usage: "Maximum number of results"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Restrict to a file type, e.g. pdf"},
					&cli.BoolFlag{Name: "distinct", Aliases: []string{"d"}, Usage: "Best chunk per file only"},
					&cli.BoolFlag{Name: "json", Usage: "Print results as JSON"},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show chunk and document counts",
				Action: runStats,
			},
			{
				Name:   "reset",
				Usage:  "Delete everything from the index",
				Action: runReset,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and directory watcher",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Directory to keep indexed (repeatable)"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
