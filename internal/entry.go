// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"augments/internal/analysis"
	"augments/internal/artifact"
	"augments/internal/cache"
	"augments/internal/clipboard"
	"augments/internal/evict"
	"augments/internal/pipeline"
	"augments/internal/store"
	"augments/internal/tts"
	"augments/internal/youtube"
)

// App wires the store, cache, providers, and orchestrator for the CLI
// commands. Build it with New and release resources with Close.
type App struct {
	cfg      *Config
	logger   *slog.Logger
	progress pipeline.ProgressFunc
	clip     clipboard.Reader

	store       *store.Store
	index       *cache.Index
	cache       *cache.Cache
	transcripts *youtube.TranscriptService
	captions    *youtube.TimedtextClient
	metadata    youtube.MetadataSource
	downloader  *youtube.Downloader
	orch        *pipeline.Orchestrator

	cancelPrune context.CancelFunc
}

// New builds the application from configuration.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{clip: clipboard.SystemReader{}}

	for _, opt := range opts {
		opt(a)
	}

	if a.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.cfg

	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(a.logger)
	}
	logger := a.logger

	logger.Info("Configuration loaded",
		slog.String("artifact_root", cfg.Artifacts.Root),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("analysis_provider", cfg.Analysis.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	s, err := store.New(cfg.Artifacts.Root)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	a.store = s

	ix, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("init cache index: %w", err)
	}
	a.index = ix

	c := cache.New(ix, s)
	if cfg.Cache.MaxAge != "" {
		maxAge, err := evict.ParseMaxAge(cfg.Cache.MaxAge)
		if err != nil {
			ix.Close()
			return nil, fmt.Errorf("cache max_age: %w", err)
		}
		c = c.WithMaxAge(maxAge)
	}
	a.cache = c

	if cfg.Cache.Prune {
		pruneCtx, cancel := context.WithCancel(context.Background())
		a.cancelPrune = cancel
		go func() {
			if err := cache.Prune(pruneCtx, ix, s.Root(), logger); err != nil && pruneCtx.Err() == nil {
				logger.Warn("cache pruner stopped", slog.String("error", err.Error()))
			}
		}()
	}

	a.captions = youtube.NewTimedtextClient()
	a.transcripts = youtube.NewTranscriptService(s, c, a.captions, cfg.YouTube.Language, logger)
	a.downloader = youtube.NewDownloader(s, cfg.YouTube.YtdlpPath)

	ytdlp := &youtube.YtdlpSource{Path: cfg.YouTube.YtdlpPath}
	a.metadata = youtube.MetadataSource(ytdlp)
	if cfg.YouTube.APIKey != "" {
		api, err := youtube.NewAPISource(ctx, cfg.YouTube.APIKey, ytdlp)
		if err != nil {
			logger.Warn("youtube data api unavailable, using yt-dlp only",
				slog.String("error", err.Error()))
		} else {
			a.metadata = api
		}
	}

	var provider analysis.Provider
	switch cfg.Analysis.Provider {
	case ProviderOpenAI:
		provider = analysis.NewOpenAIClient(cfg.Analysis.OpenAI.APIKey, cfg.Analysis.OpenAI.Model)
	default:
		provider = analysis.NewOllamaClient(cfg.Analysis.Ollama.URL, cfg.Analysis.Ollama.Model)
	}
	runner := analysis.NewRunner(provider, cfg.Analysis.RatePerSecond, logger)

	var providers []tts.Provider
	if cfg.TTS.GoogleAPIKey != "" {
		providers = append(providers, tts.NewGoogleCloud(cfg.TTS.GoogleAPIKey, cfg.TTS.VoiceTypes))
	}
	providers = append(providers, tts.NewGTTS(cfg.TTS.Language))
	chain := tts.NewChain(logger, providers...)
	synth := tts.NewService(chain, s, c, logger)

	acquirer := &pipeline.ContentAcquirer{
		Transcripts: a.transcripts,
		Metadata:    a.metadata,
		Clipboard:   a.clip,
		Logger:      logger,
	}

	orchOpts := []pipeline.Option{}
	if cfg.Analysis.OpenAI.APIKey != "" && cfg.Analysis.Provider != ProviderOpenAI {
		orchOpts = append(orchOpts, pipeline.WithEnhancer(
			analysis.NewOpenAIClient(cfg.Analysis.OpenAI.APIKey, cfg.Analysis.OpenAI.Model)))
	}
	if a.progress != nil {
		orchOpts = append(orchOpts, pipeline.WithProgress(a.progress))
	}
	a.orch = pipeline.New(s, acquirer, runner, synth, logger, orchOpts...)

	return a, nil
}

// Close releases the cache index and stops the pruner.
func (a *App) Close() error {
	if a.cancelPrune != nil {
		a.cancelPrune()
	}
	if a.index != nil {
		return a.index.Close()
	}
	return nil
}

// AnalyzeParams configures the analyze command.
type AnalyzeParams struct {
	Ref       string
	Clipboard bool
	Title     string
	Patterns  []string
	Audio     bool
	Save      bool
}

// Analyze runs the full pipeline over a video or the clipboard.
func (a *App) Analyze(ctx context.Context, p AnalyzeParams) (*pipeline.Result, error) {
	patterns := make([]analysis.Pattern, 0, len(p.Patterns))
	for _, raw := range p.Patterns {
		pat, err := analysis.ParsePattern(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pat)
	}

	return a.orch.Run(ctx, pipeline.Request{
		Source: pipeline.Source{
			Ref:       p.Ref,
			Clipboard: p.Clipboard,
			Title:     p.Title,
		},
		Patterns: patterns,
		Audio:    p.Audio,
		Save:     p.Save,
	})
}

// Transcript fetches a transcript in the requested format. With save the
// transcript goes through the store and cache; without it the captions are
// fetched and rendered directly.
func (a *App) Transcript(ctx context.Context, ref, format string, save bool) (string, error) {
	id, err := youtube.ParseVideoID(ref)
	if err != nil {
		return "", err
	}
	f, err := youtube.ParseTranscriptFormat(format)
	if err != nil {
		return "", err
	}

	if save {
		text, _, err := a.transcripts.Get(ctx, id, f)
		return text, err
	}

	entries, err := a.captions.FetchCaptions(ctx, id, a.cfg.YouTube.Language)
	if err != nil {
		return "", err
	}
	return youtube.Render(entries, f)
}

// Info fetches video metadata.
func (a *App) Info(ctx context.Context, ref string) (*youtube.Metadata, error) {
	id, err := youtube.ParseVideoID(ref)
	if err != nil {
		return nil, err
	}
	return a.metadata.Fetch(ctx, id)
}

// Download fetches video or audio media into the downloads category.
func (a *App) Download(ctx context.Context, ref, format string) (artifact.Artifact, error) {
	id, err := youtube.ParseVideoID(ref)
	if err != nil {
		return artifact.Artifact{}, err
	}
	f, err := youtube.ParseDownloadFormat(format)
	if err != nil {
		return artifact.Artifact{}, err
	}

	meta, err := a.metadata.Fetch(ctx, id)
	if err != nil {
		a.logger.Warn("download: metadata unavailable",
			slog.String("video_id", id),
			slog.String("error", err.Error()))
		meta = nil
	}
	return a.downloader.Download(ctx, id, meta, f)
}

// ListArtifacts returns stored artifacts for the given categories, oldest
// first within each category.
func (a *App) ListArtifacts(cats []artifact.Category) (map[artifact.Category][]artifact.Artifact, error) {
	if len(cats) == 0 {
		cats = artifact.Categories
	}
	out := make(map[artifact.Category][]artifact.Artifact, len(cats))
	for _, cat := range cats {
		list, err := a.store.List(cat)
		if err != nil {
			return nil, err
		}
		out[cat] = list
	}
	return out, nil
}

// Cleanup removes artifacts older than maxAge; empty maxAge falls back to
// the configured cache max_age.
func (a *App) Cleanup(cats []artifact.Category, maxAge string) (int, error) {
	if maxAge == "" {
		maxAge = a.cfg.Cache.MaxAge
	}
	d, err := evict.ParseMaxAge(maxAge)
	if err != nil {
		return 0, err
	}
	return evict.Sweep(a.store, cats, d, a.logger)
}

// CacheStats summarizes the cache index and the artifact tree.
type CacheStats struct {
	Entries   int
	Artifacts map[artifact.Category]int
	TotalSize int64
}

// Stats reports cache index and artifact counts.
func (a *App) Stats() (CacheStats, error) {
	entries, err := a.index.Count()
	if err != nil {
		return CacheStats{}, err
	}
	st := CacheStats{Entries: entries, Artifacts: make(map[artifact.Category]int)}
	for _, cat := range artifact.Categories {
		list, err := a.store.List(cat)
		if err != nil {
			return CacheStats{}, err
		}
		st.Artifacts[cat] = len(list)
		for _, art := range list {
			st.TotalSize += art.Size
		}
	}
	return st, nil
}

// ClearCache drops every cache index row. Artifacts on disk are untouched.
func (a *App) ClearCache() (int, error) {
	return a.index.Clear()
}
