package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"augments/internal"
	"augments/internal/artifact"
	"augments/internal/pipeline"
	"augments/internal/youtube"
	pkgconfig "augments/pkg/config"
)

func newApp(ctx context.Context, cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return internal.New(ctx,
		internal.WithConfig(cfg),
		internal.WithProgress(func(stage pipeline.State, msg string) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", stage, msg)
		}),
	)
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().First()
	useClipboard := cmd.Bool("clipboard")
	if ref == "" && !useClipboard {
		return fmt.Errorf("a video URL/ID or --clipboard is required")
	}

	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	var patterns []string
	if raw := cmd.String("patterns"); raw != "" {
		patterns = strings.Split(raw, ",")
	}

	res, err := app.Analyze(ctx, internal.AnalyzeParams{
		Ref:       ref,
		Clipboard: useClipboard,
		Title:     cmd.String("title"),
		Patterns:  patterns,
		Audio:     !cmd.Bool("no-audio"),
		Save:      !cmd.Bool("no-save"),
	})
	if err != nil {
		return err
	}

	if res.Report != nil {
		fmt.Printf("Report saved: %s\n", res.Report.Path)
	} else {
		fmt.Println(res.Markdown)
	}
	return nil
}

func runTranscript(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().First()
	if ref == "" {
		return fmt.Errorf("a video URL/ID is required")
	}

	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	text, err := app.Transcript(ctx, ref, cmd.String("format"), !cmd.Bool("no-save"))
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runInfo(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().First()
	if ref == "" {
		return fmt.Errorf("a video URL/ID is required")
	}

	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	meta, err := app.Info(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Printf("Title:     %s\n", meta.Title)
	fmt.Printf("Channel:   %s\n", meta.Author)
	fmt.Printf("Duration:  %s\n", youtube.FormatDuration(meta.Duration))
	fmt.Printf("Views:     %d\n", meta.ViewCount)
	fmt.Printf("Published: %s\n", youtube.FormatUploadDate(meta.UploadDate))
	fmt.Printf("URL:       %s\n", youtube.WatchURL(meta.ID))
	return nil
}

func runDownload(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().First()
	if ref == "" {
		return fmt.Errorf("a video URL/ID is required")
	}

	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	art, err := app.Download(ctx, ref, cmd.String("format"))
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded: %s (%.1f MB)\n", art.Path, float64(art.Size)/(1024*1024))
	return nil
}

func parseCategories(arg string) ([]artifact.Category, error) {
	if arg == "" || arg == "all" {
		return nil, nil
	}
	cat, err := artifact.ParseCategory(arg)
	if err != nil {
		return nil, err
	}
	return []artifact.Category{cat}, nil
}

func runArtifactsList(ctx context.Context, cmd *cli.Command) error {
	cats, err := parseCategories(cmd.Args().First())
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	byCat, err := app.ListArtifacts(cats)
	if err != nil {
		return err
	}

	for _, cat := range artifact.Categories {
		list, ok := byCat[cat]
		if !ok {
			continue
		}
		fmt.Printf("%s (%d):\n", cat, len(list))
		for _, art := range list {
			fmt.Printf("  %-50s %8.2f MB  %s\n",
				art.Name,
				float64(art.Size)/(1024*1024),
				art.CreatedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func runArtifactsCleanup(ctx context.Context, cmd *cli.Command) error {
	cats, err := parseCategories(cmd.Args().First())
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	removed, err := app.Cleanup(cats, cmd.String("max-age"))
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d artifact(s)\n", removed)
	return nil
}

func runCacheStats(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	st, err := app.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Cache entries: %d\n", st.Entries)
	for _, cat := range artifact.Categories {
		fmt.Printf("  %-12s %d\n", cat, st.Artifacts[cat])
	}
	fmt.Printf("Total size: %.2f MB\n", float64(st.TotalSize)/(1024*1024))
	return nil
}

func runCacheClear(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	dropped, err := app.ClearCache()
	if err != nil {
		return err
	}
	fmt.Printf("Cleared %d cache entr%s\n", dropped, plural(dropped, "y", "ies"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "~/.config/augments/config.yaml",
		Value:       filepath.Join(internal.DefaultConfigDir(), "config.yaml"),
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "augments",
		Usage: "Acquire, analyze, and narrate content from YouTube or the clipboard",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Run the full analysis pipeline over a video or the clipboard",
				ArgsUsage: "[url|id]",
				Action:    runAnalyze,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clipboard", Usage: "Read source text from the clipboard"},
					&cli.StringFlag{Name: "patterns", Usage: "Comma-separated analysis patterns"},
					&cli.BoolFlag{Name: "no-audio", Usage: "Skip audio summary generation"},
					&cli.BoolFlag{Name: "no-save", Usage: "Print the report instead of saving it"},
					&cli.StringFlag{Name: "title", Usage: "Override the report title"},
				},
			},
			{
				Name:      "transcript",
				Usage:     "Fetch a video transcript",
				ArgsUsage: "<url|id>",
				Action:    runTranscript,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "text", Usage: "Output format: text, vtt, srt, json"},
					&cli.BoolFlag{Name: "no-save", Usage: "Print without storing"},
				},
			},
			{
				Name:      "info",
				Usage:     "Show video metadata",
				ArgsUsage: "<url|id>",
				Action:    runInfo,
			},
			{
				Name:      "download",
				Usage:     "Download video or audio media",
				ArgsUsage: "<url|id>",
				Action:    runDownload,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "mp4", Usage: "Download format: mp4, webm, audio"},
				},
			},
			{
				Name:  "artifacts",
				Usage: "Inspect and clean the artifact store",
				Commands: []*cli.Command{
					{
						Name:      "list",
						Usage:     "List stored artifacts",
						ArgsUsage: "[category|all]",
						Action:    runArtifactsList,
					},
					{
						Name:      "cleanup",
						Usage:     "Remove artifacts older than --max-age",
						ArgsUsage: "[category|all]",
						Action:    runArtifactsCleanup,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "max-age", Usage: "Age bound, e.g. 7d, 24h, 30m"},
						},
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect and clear the cache index",
				Commands: []*cli.Command{
					{Name: "stats", Usage: "Show cache statistics", Action: runCacheStats},
					{Name: "clear", Usage: "Drop all cache index entries", Action: runCacheClear},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
