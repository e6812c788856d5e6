package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultTranslateTTSURL = "https://translate.google.com/translate_tts"

	// The translate endpoint rejects long inputs; gTTS splits at 200 chars.
	maxChunkRunes = 200
)

// GTTS is the secondary provider: the keyless Google Translate speech
// endpoint. Text is chunked and the resulting MP3 segments concatenated,
// which players handle as a single stream.
type GTTS struct {
	BaseURL string
	Lang    string
	hc      *http.Client
}

// NewGTTS creates the fallback provider for the given language.
func NewGTTS(lang string) *GTTS {
	if lang == "" {
		lang = "en"
	}
	return &GTTS{
		BaseURL: defaultTranslateTTSURL,
		Lang:    lang,
		hc:      &http.Client{Timeout: time.Minute},
	}
}

func (g *GTTS) Name() string { return "gtts" }

// Synthesize fetches audio chunk by chunk.
func (g *GTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := splitChunks(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("tts: empty text")
	}

	var audio []byte
	for i, chunk := range chunks {
		data, err := g.fetchChunk(ctx, chunk, i, len(chunks))
		if err != nil {
			return nil, err
		}
		audio = append(audio, data...)
	}
	return audio, nil
}

func (g *GTTS) fetchChunk(ctx context.Context, chunk string, idx, total int) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", chunk)
	params.Set("tl", g.Lang)
	params.Set("client", "tw-ob")
	params.Set("idx", fmt.Sprint(idx))
	params.Set("total", fmt.Sprint(total))
	params.Set("textlen", fmt.Sprint(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("tts: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: gtts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: gtts status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read gtts response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("tts: gtts returned empty audio")
	}
	return data, nil
}

// splitChunks breaks text at whitespace into runs of at most max runes.
// Words longer than max are split mid-word.
func splitChunks(text string, max int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, word := range strings.Fields(text) {
		wl := utf8.RuneCountInString(word)
		if wl > max {
			flush()
			runes := []rune(word)
			for len(runes) > max {
				chunks = append(chunks, string(runes[:max]))
				runes = runes[max:]
			}
			cur.WriteString(string(runes))
			curLen = len(runes)
			continue
		}
		if curLen > 0 && curLen+1+wl > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += wl
	}
	flush()
	return chunks
}
