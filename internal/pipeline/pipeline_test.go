package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"augments/internal/analysis"
	"augments/internal/apperr"
	"augments/internal/artifact"
	"augments/internal/testutil"
	"augments/internal/youtube"
)

type fakeAcquirer struct {
	acq *Acquisition
	err error
}

func (f *fakeAcquirer) Acquire(context.Context, Source) (*Acquisition, error) {
	return f.acq, f.err
}

type fakeAnalyzer struct {
	outputs   map[analysis.Pattern]string
	failWith  error
	failTimes int
	calls     int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, p analysis.Pattern, _ string) (string, error) {
	f.calls++
	if f.failWith != nil && (f.failTimes == 0 || f.calls <= f.failTimes) {
		return "", f.failWith
	}
	return f.outputs[p], nil
}

func (f *fakeAnalyzer) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("no metadata prompts expected")
}

type fakeSynth struct {
	art      artifact.Artifact
	provider string
	err      error
	calls    int
}

func (f *fakeSynth) Synthesize(context.Context, string, string) (artifact.Artifact, string, error) {
	f.calls++
	return f.art, f.provider, f.err
}

func textAcquisition(text string) *Acquisition {
	return &Acquisition{Text: text, Title: "Test Content"}
}

func newTestOrchestrator(t *testing.T, acq Acquirer, an Analyzer, synth *fakeSynth, opts ...Option) *Orchestrator {
	t.Helper()
	if synth == nil {
		synth = &fakeSynth{}
	}
	opts = append(opts, WithRetry(3, time.Millisecond))
	return New(testutil.TestStore(t), acq, an, synth, testutil.Logger(), opts...)
}

func TestRunWithoutAudioReachesDone(t *testing.T) {
	an := &fakeAnalyzer{outputs: map[analysis.Pattern]string{
		analysis.PatternSummarize: "A short greeting followed by a test sentence.",
	}}
	synth := &fakeSynth{}
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("Hello world. This is a test.")}, an, synth)

	res, err := o.Run(context.Background(), Request{
		Source:   Source{Clipboard: true},
		Patterns: []analysis.Pattern{analysis.PatternSummarize},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != StateDone {
		t.Errorf("state = %s", res.State)
	}
	if synth.calls != 0 {
		t.Errorf("synthesizer called %d times with audio off", synth.calls)
	}
	if !strings.Contains(res.Markdown, "Hello world. This is a test.") {
		t.Errorf("report missing transcript excerpt:\n%s", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "Audio summary not available.") {
		t.Errorf("report missing audio-unavailable line:\n%s", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "A short greeting") {
		t.Errorf("report missing summary:\n%s", res.Markdown)
	}
}

func TestRunWithAudioRecordsProvider(t *testing.T) {
	an := &fakeAnalyzer{outputs: map[analysis.Pattern]string{
		analysis.PatternSummarize: "summary",
	}}
	synth := &fakeSynth{
		art:      artifact.Artifact{Category: artifact.Audio, Name: "x.mp3", Path: "/tmp/x.mp3"},
		provider: "google-cloud-tts",
	}
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("some text")}, an, synth)

	res, err := o.Run(context.Background(), Request{
		Source:   Source{Clipboard: true},
		Patterns: []analysis.Pattern{analysis.PatternSummarize},
		Audio:    true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AudioProvider != "google-cloud-tts" {
		t.Errorf("provider = %q", res.AudioProvider)
	}
	if !strings.Contains(res.Markdown, "/tmp/x.mp3") {
		t.Errorf("report missing audio link:\n%s", res.Markdown)
	}
	if len(res.Artifacts) != 1 {
		t.Errorf("artifacts = %+v", res.Artifacts)
	}
}

func TestRunSaveWritesReport(t *testing.T) {
	an := &fakeAnalyzer{outputs: map[analysis.Pattern]string{
		analysis.PatternSummarize: "summary",
	}}
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("content")}, an, nil)

	res, err := o.Run(context.Background(), Request{
		Source:   Source{Clipboard: true, Title: "My Notes"},
		Patterns: []analysis.Pattern{analysis.PatternSummarize},
		Save:     true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report == nil {
		t.Fatal("no report artifact")
	}
	if res.Report.Category != artifact.Report {
		t.Errorf("category = %s", res.Report.Category)
	}
	if !strings.HasPrefix(res.Report.Name, "My_Notes-analysis") {
		t.Errorf("report name = %q", res.Report.Name)
	}
}

func TestRunAcquireFailureRecordsStage(t *testing.T) {
	boom := fmt.Errorf("no clipboard: %w", apperr.ErrSourceUnavailable)
	o := newTestOrchestrator(t, &fakeAcquirer{err: boom}, &fakeAnalyzer{}, nil)

	res, err := o.Run(context.Background(), Request{Source: Source{Clipboard: true}})
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StateAcquiring {
		t.Errorf("err = %v", err)
	}
	if res.State != StateErrored || res.FailedStage != StateAcquiring {
		t.Errorf("state = %s, failed = %s", res.State, res.FailedStage)
	}
	if !errors.Is(err, apperr.ErrSourceUnavailable) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestRunEmptyTextFailsAcquiring(t *testing.T) {
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("   ")}, &fakeAnalyzer{}, nil)

	_, err := o.Run(context.Background(), Request{Source: Source{Clipboard: true}})
	if !errors.Is(err, apperr.ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestRunAnalysisFailureRecordsStage(t *testing.T) {
	an := &fakeAnalyzer{failWith: fmt.Errorf("model gone: %w", apperr.ErrAnalysisProvider)}
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("text")}, an, nil)

	res, err := o.Run(context.Background(), Request{
		Source:   Source{Clipboard: true},
		Patterns: []analysis.Pattern{analysis.PatternSummarize},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.FailedStage != StateAnalyzing {
		t.Errorf("failed stage = %s", res.FailedStage)
	}
}

func TestRunRetriesRateLimit(t *testing.T) {
	an := &fakeAnalyzer{
		outputs:   map[analysis.Pattern]string{analysis.PatternSummarize: "eventually"},
		failWith:  fmt.Errorf("throttled: %w", apperr.ErrRateLimited),
		failTimes: 2,
	}
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("text")}, an, nil)

	res, err := o.Run(context.Background(), Request{
		Source:   Source{Clipboard: true},
		Patterns: []analysis.Pattern{analysis.PatternSummarize},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != StateDone {
		t.Errorf("state = %s", res.State)
	}
	if an.calls != 3 {
		t.Errorf("analyzer calls = %d", an.calls)
	}
}

func TestRunRateLimitExhausted(t *testing.T) {
	an := &fakeAnalyzer{failWith: fmt.Errorf("throttled: %w", apperr.ErrRateLimited)}
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("text")}, an, nil)

	_, err := o.Run(context.Background(), Request{
		Source:   Source{Clipboard: true},
		Patterns: []analysis.Pattern{analysis.PatternSummarize},
	})
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if an.calls != 3 {
		t.Errorf("analyzer calls = %d, want 3", an.calls)
	}
}

func TestRunCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newTestOrchestrator(t, &fakeAcquirer{acq: textAcquisition("text")}, &fakeAnalyzer{}, nil)

	res, err := o.Run(ctx, Request{Source: Source{Clipboard: true}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if res.State != StateErrored {
		t.Errorf("state = %s", res.State)
	}
}

func TestBuildReportVideoSections(t *testing.T) {
	md := buildReport(reportData{
		Title: "A Video",
		Meta: &youtube.Metadata{
			ID:         "dQw4w9WgXcQ",
			Title:      "A Video",
			Author:     "Channel",
			Duration:   90,
			ViewCount:  1234,
			UploadDate: "20240101",
		},
		Outputs: map[analysis.Pattern]string{
			analysis.PatternSummarize:     "the summary",
			analysis.PatternExtractWisdom: "the wisdom",
		},
		Transcript: "the transcript text",
	})

	for _, want := range []string{
		"# A Video",
		"## Video Information",
		"watch?v=dQw4w9WgXcQ",
		"00:01:30",
		"2024-01-01",
		"## Summary",
		"## Key Insights",
		"## Transcript Excerpt",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestNormalizeFrontmatterAcceptsValidYAML(t *testing.T) {
	out := normalizeFrontmatter("---\ntitle: Hi\ntags: [a, b]\n---", reportData{Title: "fallback"})
	if !strings.HasPrefix(out, "---\n") || !strings.Contains(out, "title: Hi") {
		t.Errorf("out = %q", out)
	}
}

func TestNormalizeFrontmatterFallsBack(t *testing.T) {
	out := normalizeFrontmatter("this is: not: yaml: at: all: [", reportData{Title: "My Title"})
	if !strings.Contains(out, "My Title") {
		t.Errorf("fallback missing title: %q", out)
	}
	if !strings.Contains(out, "type: analysis") {
		t.Errorf("fallback missing type: %q", out)
	}
}

func TestExcerptTruncatesAtWordBoundary(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 300)
	got := excerpt(text, 100)
	if len([]rune(got)) > 104 {
		t.Errorf("excerpt too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt missing ellipsis: %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), "lor") {
		t.Errorf("excerpt cut mid-word: %q", got)
	}
}
