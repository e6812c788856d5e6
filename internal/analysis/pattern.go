// Package analysis applies named text-transformation patterns to
// normalized text through an external language-model provider.
package analysis

import "fmt"

// Pattern names a text transformation.
type Pattern string

const (
	PatternSummarize         Pattern = "summarize"
	PatternExtractWisdom     Pattern = "extract_wisdom"
	PatternExtractLinks      Pattern = "extract_links"
	PatternExtractReferences Pattern = "extract_references"
)

// DefaultPatterns is the set the analyze pipeline runs when none are
// requested explicitly.
var DefaultPatterns = []Pattern{PatternSummarize, PatternExtractWisdom, PatternExtractLinks}

var patternPrompts = map[Pattern]string{
	PatternSummarize: `Summarize the following content in a few tight paragraphs.
Open with a one-sentence overview, then cover the main points in the order
they appear. Plain markdown, no preamble.

Content:
%s`,

	PatternExtractWisdom: `Extract the key insights, ideas, and takeaways from the following
content. Return a markdown list of the most valuable points, each one a
single self-contained sentence. No preamble.

Content:
%s`,

	PatternExtractLinks: `Extract every URL and explicitly mentioned resource from the
following content. Return a markdown list; for each item give the link or
resource name and a short description. If there are none, say so.

Content:
%s`,

	PatternExtractReferences: `List the books, papers, tools, and other works referenced in the
following content, as a markdown list with a one-line note on how each was
mentioned. If there are none, say so.

Content:
%s`,
}

// ParsePattern validates a user-supplied pattern name.
func ParsePattern(s string) (Pattern, error) {
	if _, ok := patternPrompts[Pattern(s)]; !ok {
		return "", fmt.Errorf("analysis: unknown pattern %q", s)
	}
	return Pattern(s), nil
}

// Prompt renders the provider prompt for a pattern over text.
func Prompt(p Pattern, text string) (string, error) {
	tmpl, ok := patternPrompts[p]
	if !ok {
		return "", fmt.Errorf("analysis: unknown pattern %q", p)
	}
	return fmt.Sprintf(tmpl, text), nil
}

// LinkAnalysisPrompt builds the metadata-aware link extraction prompt used
// for video sources, where the description and URL are extra material.
func LinkAnalysisPrompt(text, videoURL, description string) string {
	return fmt.Sprintf(`Analyze the following text and extract all relevant links and
resources mentioned, including both explicit URLs and references to
resources such as books, tools, and websites. Provide a brief description
for each. Also consider these additional sources:

Video URL: %s
Video Description: %s

Format the output as a markdown list with "Direct Links" and "Mentioned
Resources" categories.

Text to analyze:
%s`, videoURL, description, text)
}

// FrontmatterPrompt asks the model for YAML frontmatter describing a video
// document. The caller validates the result and falls back to a static
// block when the model returns something that does not parse.
func FrontmatterPrompt(title, author, videoURL, duration, views, uploadDate, description string) string {
	return fmt.Sprintf(`Generate YAML frontmatter for a markdown document about a YouTube
video, using this information:

Title: %s
Author: %s
Video URL: %s
Duration: %s
Views: %s
Upload Date: %s
Description: %s

Include basic metadata, topics/tags from the content, content type, skill
level, and key technologies mentioned. Return ONLY valid YAML between
triple-dash delimiters (--- at the start AND end).`,
		title, author, videoURL, duration, views, uploadDate, description)
}

// EnhancePrompt asks the model to refine previously extracted insights.
func EnhancePrompt(text string) string {
	return "Enhance and refine this text:\n\n" + text
}
