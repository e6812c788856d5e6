// Package evict implements the age-based artifact eviction sweep.
package evict

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"augments/internal/artifact"
	"augments/internal/store"
)

// ParseMaxAge parses a human-readable age bound: "7d", "24h", "30m",
// "10s". Day suffixes are handled here, everything else is delegated to
// time.ParseDuration. Malformed or non-positive values are rejected.
func ParseMaxAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("evict: empty max age")
	}
	var d time.Duration
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("evict: invalid max age %q: %w", s, err)
		}
		d = time.Duration(days) * 24 * time.Hour
	} else {
		var err error
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("evict: invalid max age %q: %w", s, err)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("evict: max age must be positive, got %q", s)
	}
	return d, nil
}

// Sweep removes every artifact in the given categories older than maxAge
// and returns the count actually removed. Deletion is best-effort per
// artifact: a failed delete is logged and the sweep continues. Only
// completed saves are visible to the sweep; in-progress temp files are
// hidden from the store listing.
func Sweep(s *store.Store, cats []artifact.Category, maxAge time.Duration, logger *slog.Logger) (int, error) {
	if len(cats) == 0 {
		cats = artifact.Categories
	}
	now := time.Now()
	removed := 0
	for _, cat := range cats {
		for a, err := range s.All(cat) {
			if err != nil {
				return removed, err
			}
			if a.Age(now) <= maxAge {
				continue
			}
			if err := os.Remove(a.Path); err != nil {
				if os.IsNotExist(err) {
					continue // already gone
				}
				logger.Warn("evict: remove failed",
					slog.String("path", a.Path),
					slog.String("error", err.Error()))
				continue
			}
			removed++
			logger.Debug("evict: removed",
				slog.String("category", string(cat)),
				slog.String("name", a.Name))
		}
	}
	return removed, nil
}
