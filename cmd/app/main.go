package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/munin/internal"
	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/mcpserver"
	"github.com/starford/munin/internal/models"
	pkgconfig "github.com/starford/munin/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func capture(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	payload := cmd.Args().First()
	if payload == "" {
		return fmt.Errorf("usage: munin capture <text|url|file-path>")
	}

	logger := internal.NewLogger(cfg)
	deps, err := internal.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	kind := extract.DetectKind(payload)
	if k := cmd.String("kind"); k != "" {
		switch models.Kind(k) {
		case models.KindText, models.KindURL, models.KindFile:
			kind = models.Kind(k)
		default:
			return fmt.Errorf("unknown kind: %s", k)
		}
	}

	res, err := deps.Pipeline.Handle(ctx, models.RawItem{
		Kind:       kind,
		Payload:    payload,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	return nil
}

func batch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// A dry run reroutes all writes into a scratch vault and skips the
	// model endpoint and the journal, so nothing real is touched.
	if dry := cmd.String("dry-output"); dry != "" {
		cfg.Vault.Path = dry
		cfg.Classifier.APIKey = ""
		cfg.Journal.Path = ""
	}

	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("usage: munin batch <file> (one item per line)")
	}
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := internal.NewLogger(cfg)
	deps, err := internal.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	results := deps.Pipeline.RunBatch(ctx, f)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "line %d: %s: %v\n", r.Line, r.Input, r.Err)
			continue
		}
		fmt.Printf("line %d: %s\n", r.Line, r.Result.NotePath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(results))
	}
	return nil
}

func mcp(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	deps, err := internal.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	return mcpserver.New(deps.Pipeline, deps.Journal).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "munin",
		Usage: "Capture text, links, and files into a Markdown knowledge vault",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the capture HTTP server and inbox watcher",
				Action: serve,
			},
			{
				Name:      "capture",
				Usage:     "Capture a single item and print the stored paths",
				ArgsUsage: "<text|url|file-path>",
				Action:    capture,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Force the input kind: text, url, or file",
					},
				},
			},
			{
				Name:      "batch",
				Usage:     "Capture items from a file, one per line",
				ArgsUsage: "<file>",
				Action:    batch,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dry-output",
						Usage: "Write into this directory instead of the real vault; disables the model and the journal",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
