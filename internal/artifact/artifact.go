// Package artifact defines the domain types for persisted pipeline outputs.
package artifact

import (
	"fmt"
	"time"
)

// Category identifies the typed directory an artifact lives in.
type Category string

const (
	Transcript Category = "transcript"
	Audio      Category = "audio"
	Download   Category = "download"
	Temp       Category = "temp"
	Report     Category = "report"
)

// Categories lists every category in a stable order.
var Categories = []Category{Transcript, Audio, Download, Temp, Report}

// Dir returns the on-disk directory name for the category. The names must
// stay compatible with existing installations.
func (c Category) Dir() string {
	switch c {
	case Transcript:
		return "transcripts"
	case Audio:
		return "audio"
	case Download:
		return "downloads"
	case Temp:
		return "temp"
	case Report:
		return "reports"
	}
	return string(c)
}

// ParseCategory maps a user-supplied name (either the category or its
// directory name) to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if s == string(c) || s == c.Dir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("artifact: unknown category %q", s)
}

// Artifact is a named, typed file on disk. Path is absolute and unique
// within the category.
type Artifact struct {
	Category  Category  `json:"category"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Age returns how long ago the artifact was written.
func (a Artifact) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt)
}
