package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"augments/internal/analysis"
	"augments/internal/artifact"
	"augments/internal/youtube"
)

const transcriptExcerptLimit = 2000

type reportData struct {
	Title         string
	Meta          *youtube.Metadata
	Outputs       map[analysis.Pattern]string
	LinkAnalysis  string
	Frontmatter   string
	Transcript    string
	Audio         *artifact.Artifact
	AudioProvider string
}

// buildReport assembles the final markdown document. Sections appear only
// when their input exists; the transcript excerpt is always present.
func buildReport(d reportData) string {
	var b strings.Builder

	b.WriteString(normalizeFrontmatter(d.Frontmatter, d))
	b.WriteString("\n")

	title := d.Title
	if title == "" && d.Meta != nil {
		title = d.Meta.Title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if d.Meta != nil {
		b.WriteString("## Video Information\n\n")
		fmt.Fprintf(&b, "- **Channel**: %s\n", d.Meta.Author)
		fmt.Fprintf(&b, "- **Duration**: %s\n", youtube.FormatDuration(d.Meta.Duration))
		fmt.Fprintf(&b, "- **Views**: %d\n", d.Meta.ViewCount)
		fmt.Fprintf(&b, "- **Published**: %s\n", youtube.FormatUploadDate(d.Meta.UploadDate))
		fmt.Fprintf(&b, "- **URL**: %s\n\n", youtube.WatchURL(d.Meta.ID))
	}

	if s := d.Outputs[analysis.PatternSummarize]; s != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(strings.TrimSpace(s))
		b.WriteString("\n\n")
	}
	if s := d.Outputs[analysis.PatternExtractWisdom]; s != "" {
		b.WriteString("## Key Insights\n\n")
		b.WriteString(strings.TrimSpace(s))
		b.WriteString("\n\n")
	}
	if s := d.Outputs[analysis.PatternExtractLinks]; s != "" {
		b.WriteString("## Links and Resources\n\n")
		b.WriteString(strings.TrimSpace(s))
		b.WriteString("\n\n")
	}
	if s := d.Outputs[analysis.PatternExtractReferences]; s != "" {
		b.WriteString("## References\n\n")
		b.WriteString(strings.TrimSpace(s))
		b.WriteString("\n\n")
	}
	if d.LinkAnalysis != "" {
		b.WriteString("## Related Links\n\n")
		b.WriteString(strings.TrimSpace(d.LinkAnalysis))
		b.WriteString("\n\n")
	}

	b.WriteString("## Audio Summary\n\n")
	if d.Audio != nil {
		fmt.Fprintf(&b, "[Listen to summary](%s) (generated by %s)\n\n", d.Audio.Path, d.AudioProvider)
	} else {
		b.WriteString("Audio summary not available.\n\n")
	}

	b.WriteString("## Transcript Excerpt\n\n")
	b.WriteString(excerpt(d.Transcript, transcriptExcerptLimit))
	b.WriteString("\n")

	return b.String()
}

// normalizeFrontmatter returns a valid YAML frontmatter block. The
// model-generated candidate is used only when it parses as YAML; otherwise
// a static block is built from the available metadata.
func normalizeFrontmatter(candidate string, d reportData) string {
	body := strings.TrimSpace(candidate)
	body = strings.TrimPrefix(body, "---")
	body = strings.TrimSuffix(strings.TrimSpace(body), "---")
	body = strings.TrimSpace(body)
	if body != "" {
		var probe map[string]any
		if err := yaml.Unmarshal([]byte(body), &probe); err == nil && len(probe) > 0 {
			return "---\n" + body + "\n---\n"
		}
	}
	return fallbackFrontmatter(d)
}

func fallbackFrontmatter(d reportData) string {
	fm := map[string]any{
		"title":   d.Title,
		"date":    time.Now().Format("2006-01-02"),
		"type":    "analysis",
		"source":  "clipboard",
		"aliases": []string{},
		"tags":    []string{"analysis"},
	}
	if d.Meta != nil {
		fm["title"] = d.Meta.Title
		fm["source"] = youtube.WatchURL(d.Meta.ID)
		fm["channel"] = d.Meta.Author
		fm["duration"] = youtube.FormatDuration(d.Meta.Duration)
		fm["published"] = youtube.FormatUploadDate(d.Meta.UploadDate)
		fm["tags"] = []string{"youtube", "analysis"}
	}
	out, err := yaml.Marshal(fm)
	if err != nil {
		// Marshal of plain maps does not fail; keep the document valid anyway.
		return "---\ntitle: " + d.Title + "\n---\n"
	}
	return "---\n" + string(out) + "---\n"
}

// excerpt truncates text to limit runes at a word boundary.
func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return strings.TrimSpace(string(runes[:cut])) + "..."
}
