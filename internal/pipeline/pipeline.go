// Package pipeline sequences acquisition, analysis, synthesis, and report
// assembly into a single run over the artifact store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"augments/internal/analysis"
	"augments/internal/apperr"
	"augments/internal/artifact"
	"augments/internal/store"
	"augments/internal/tts"
	"augments/internal/youtube"
)

// State is the orchestrator's position in a run.
type State string

const (
	StateIdle         State = "idle"
	StateAcquiring    State = "acquiring"
	StateAnalyzing    State = "analyzing"
	StateSynthesizing State = "synthesizing"
	StateAssembling   State = "assembling"
	StateDone         State = "done"
	StateErrored      State = "errored"
)

// Source references the content to process: a video URL/ID or the
// clipboard. Title optionally overrides the derived document title.
type Source struct {
	Ref       string
	Clipboard bool
	Title     string
}

// Acquisition is the output of the acquiring stage: normalized text plus,
// for video sources, the raw transcript artifact and metadata.
type Acquisition struct {
	Text     string
	Title    string
	Artifact *artifact.Artifact
	Meta     *youtube.Metadata
}

// Acquirer fetches and normalizes source content.
type Acquirer interface {
	Acquire(ctx context.Context, src Source) (*Acquisition, error)
}

// Analyzer applies patterns and raw prompts; *analysis.Runner satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, p analysis.Pattern, text string) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request configures one pipeline run.
type Request struct {
	Source   Source
	Patterns []analysis.Pattern
	Audio    bool
	Save     bool
}

// Result is the terminal record of a run. Artifacts lists everything that
// was persisted, including partial output from failed runs — nothing is
// rolled back.
type Result struct {
	RunID         uuid.UUID
	State         State
	FailedStage   State
	Artifacts     []artifact.Artifact
	Report        *artifact.Artifact
	Markdown      string
	AudioProvider string
}

// StageError reports which stage a run failed in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ProgressFunc receives plain status events; rendering is the caller's
// concern.
type ProgressFunc func(stage State, message string)

// Orchestrator runs the pipeline. A single run is sequential; independent
// runs may execute concurrently sharing the store and cache.
type Orchestrator struct {
	store    *store.Store
	acquirer Acquirer
	analyzer Analyzer
	enhancer analysis.Provider // optional refinement pass, may be nil
	synth    tts.Synthesizer
	logger   *slog.Logger
	progress ProgressFunc

	// Bounded backoff for rate-limited analysis calls.
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnhancer enables the optional insight-refinement pass.
func WithEnhancer(p analysis.Provider) Option {
	return func(o *Orchestrator) { o.enhancer = p }
}

// WithProgress installs a status event callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithRetry overrides the rate-limit retry policy.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *Orchestrator) {
		o.maxAttempts = attempts
		o.retryDelay = delay
	}
}

// New builds an Orchestrator.
func New(s *store.Store, acq Acquirer, an Analyzer, synth tts.Synthesizer, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       s,
		acquirer:    acq,
		analyzer:    an,
		synth:       synth,
		logger:      logger,
		maxAttempts: 3,
		retryDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pipeline run. On failure the returned Result records
// the failing stage and every artifact persisted before the failure.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{RunID: uuid.New(), State: StateIdle}

	// --- Acquiring ---
	if err := o.enter(ctx, res, StateAcquiring, "fetching source content"); err != nil {
		return res, o.fail(res, err)
	}
	acq, err := o.acquirer.Acquire(ctx, req.Source)
	if err != nil {
		return res, o.fail(res, err)
	}
	if acq.Artifact != nil {
		res.Artifacts = append(res.Artifacts, *acq.Artifact)
	}
	if strings.TrimSpace(acq.Text) == "" {
		return res, o.fail(res, fmt.Errorf("empty normalized text: %w", apperr.ErrSourceUnavailable))
	}

	// --- Analyzing ---
	if err := o.enter(ctx, res, StateAnalyzing, "running analysis patterns"); err != nil {
		return res, o.fail(res, err)
	}
	patterns := req.Patterns
	if len(patterns) == 0 {
		patterns = analysis.DefaultPatterns
	}
	outputs, err := o.analyze(ctx, patterns, acq)
	if err != nil {
		return res, o.fail(res, err)
	}

	if o.enhancer != nil && outputs[analysis.PatternExtractWisdom] != "" {
		o.report(StateAnalyzing, "enhancing insights")
		enhanced, err := o.enhancer.Generate(ctx, analysis.EnhancePrompt(outputs[analysis.PatternExtractWisdom]))
		if err != nil {
			o.logger.Warn("pipeline: enhancement skipped", slog.String("error", err.Error()))
		} else if enhanced != "" {
			outputs[analysis.PatternExtractWisdom] = enhanced
		}
	}

	baseName := o.baseName(req, acq)

	// --- Synthesizing (skipped without error when audio is off) ---
	var audio *artifact.Artifact
	if req.Audio {
		if err := o.enter(ctx, res, StateSynthesizing, "generating audio summary"); err != nil {
			return res, o.fail(res, err)
		}
		summary := outputs[analysis.PatternSummarize]
		if summary == "" {
			summary = acq.Text
		}
		art, provider, err := o.synth.Synthesize(ctx, baseName+"-summary", summary)
		if err != nil {
			return res, o.fail(res, err)
		}
		audio = &art
		res.AudioProvider = provider
		res.Artifacts = append(res.Artifacts, art)
	}

	// --- Assembling ---
	if err := o.enter(ctx, res, StateAssembling, "writing markdown report"); err != nil {
		return res, o.fail(res, err)
	}
	res.Markdown = buildReport(reportData{
		Title:         acq.Title,
		Meta:          acq.Meta,
		Outputs:       outputs,
		LinkAnalysis:  outputs[linkAnalysisKey],
		Frontmatter:   outputs[frontmatterKey],
		Transcript:    acq.Text,
		Audio:         audio,
		AudioProvider: res.AudioProvider,
	})
	if req.Save {
		art, err := o.store.Save(artifact.Report, baseName+".md", []byte(res.Markdown))
		if err != nil {
			return res, o.fail(res, err)
		}
		res.Report = &art
		res.Artifacts = append(res.Artifacts, art)
	}

	res.State = StateDone
	o.report(StateDone, "pipeline complete")
	return res, nil
}

// Keys for the auxiliary metadata-aware outputs that live alongside
// regular pattern outputs.
const (
	linkAnalysisKey analysis.Pattern = "link_analysis"
	frontmatterKey  analysis.Pattern = "frontmatter"
)

// analyze runs the requested patterns in parallel, plus the metadata-aware
// link analysis and frontmatter generation for video sources. Pattern
// failures abort the stage; the two auxiliary prompts are best-effort.
func (o *Orchestrator) analyze(ctx context.Context, patterns []analysis.Pattern, acq *Acquisition) (map[analysis.Pattern]string, error) {
	outputs := make(map[analysis.Pattern]string)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, p := range patterns {
		g.Go(func() error {
			out, err := o.withRetry(gCtx, func() (string, error) {
				return o.analyzer.Analyze(gCtx, p, acq.Text)
			})
			if err != nil {
				return fmt.Errorf("pattern %s: %w", p, err)
			}
			mu.Lock()
			outputs[p] = out
			mu.Unlock()
			return nil
		})
	}

	if acq.Meta != nil {
		meta := acq.Meta
		g.Go(func() error {
			out, err := o.withRetry(gCtx, func() (string, error) {
				return o.analyzer.Generate(gCtx, analysis.LinkAnalysisPrompt(
					acq.Text, youtube.WatchURL(meta.ID), meta.Description))
			})
			if err != nil {
				o.logger.Warn("pipeline: link analysis skipped", slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			outputs[linkAnalysisKey] = out
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			out, err := o.withRetry(gCtx, func() (string, error) {
				return o.analyzer.Generate(gCtx, analysis.FrontmatterPrompt(
					meta.Title,
					meta.Author,
					youtube.WatchURL(meta.ID),
					youtube.FormatDuration(meta.Duration),
					fmt.Sprint(meta.ViewCount),
					youtube.FormatUploadDate(meta.UploadDate),
					meta.Description,
				))
			})
			if err != nil {
				o.logger.Warn("pipeline: frontmatter generation skipped", slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			outputs[frontmatterKey] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// withRetry retries fn with doubling delay while it fails rate-limited.
func (o *Orchestrator) withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	delay := o.retryDelay
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !errors.Is(err, apperr.ErrRateLimited) || attempt == o.maxAttempts {
			return "", err
		}
		o.logger.Warn("pipeline: rate limited, backing off",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", lastErr
}

func (o *Orchestrator) baseName(req Request, acq *Acquisition) string {
	if acq.Meta != nil {
		return acq.Meta.FilenamePrefix()
	}
	title := req.Source.Title
	if title == "" {
		title = acq.Title
	}
	if title == "" {
		title = "analysis"
	}
	return store.Sanitize(title) + "-analysis"
}

// enter moves the run into stage; aborts requested between stages take
// effect here.
func (o *Orchestrator) enter(ctx context.Context, res *Result, stage State, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res.State = stage
	o.report(stage, msg)
	return nil
}

func (o *Orchestrator) report(stage State, msg string) {
	o.logger.Info("pipeline: "+msg, slog.String("stage", string(stage)))
	if o.progress != nil {
		o.progress(stage, msg)
	}
}

// fail records the failing stage and preserves whatever was persisted.
func (o *Orchestrator) fail(res *Result, err error) error {
	res.FailedStage = res.State
	res.State = StateErrored
	o.report(StateErrored, fmt.Sprintf("%s stage failed", res.FailedStage))
	return &StageError{Stage: res.FailedStage, Err: err}
}
