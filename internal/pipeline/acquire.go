package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"augments/internal/clipboard"
	"augments/internal/youtube"
)

// ContentAcquirer resolves a Source into normalized text: video sources go
// through the cached transcript service, clipboard sources through the
// system clipboard.
type ContentAcquirer struct {
	Transcripts *youtube.TranscriptService
	Metadata    youtube.MetadataSource
	Clipboard   clipboard.Reader
	Logger      *slog.Logger
}

func (a *ContentAcquirer) Acquire(ctx context.Context, src Source) (*Acquisition, error) {
	if src.Clipboard {
		return a.acquireClipboard(ctx, src)
	}
	return a.acquireVideo(ctx, src)
}

func (a *ContentAcquirer) acquireClipboard(ctx context.Context, src Source) (*Acquisition, error) {
	text, err := a.Clipboard.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	title := src.Title
	if title == "" {
		title = clipboard.Title(text)
	}
	return &Acquisition{Text: text, Title: title}, nil
}

func (a *ContentAcquirer) acquireVideo(ctx context.Context, src Source) (*Acquisition, error) {
	id, err := youtube.ParseVideoID(src.Ref)
	if err != nil {
		return nil, err
	}

	text, art, err := a.Transcripts.Get(ctx, id, youtube.FormatText)
	if err != nil {
		return nil, fmt.Errorf("transcript for %s: %w", id, err)
	}

	// Metadata enriches the report but a missing snippet never blocks
	// the run.
	meta, err := a.Metadata.Fetch(ctx, id)
	if err != nil {
		a.Logger.Warn("acquire: metadata unavailable",
			slog.String("video_id", id),
			slog.String("error", err.Error()))
		meta = nil
	}

	title := src.Title
	if title == "" {
		if meta != nil {
			title = meta.Title
		} else {
			title = id
		}
	}
	return &Acquisition{Text: text, Title: title, Artifact: &art, Meta: meta}, nil
}
