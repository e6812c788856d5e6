package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"augments/internal/artifact"
	"augments/internal/checksum"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Sanitize converts a desired name into a safe filename: whitespace runs
// collapse to a single underscore, characters that are illegal in
// filesystem paths are stripped, length is capped at 255 bytes, and
// trailing dots and spaces are removed.
func Sanitize(name string) string {
	name = whitespaceRe.ReplaceAllString(name, "_")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20:
		case strings.ContainsRune(`<>:"/\|?*`, r):
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 255 {
		out = out[:255]
	}
	return strings.TrimRight(out, ". ")
}

// Resolve computes a collision-free path for desiredName inside the
// category directory. When the candidate path already holds a different
// artifact, a numeric disambiguator is appended before the extension
// (name_1, name_2, ...) until a free path is found. A candidate whose
// content matches sum (hex SHA-256, may be empty) is treated as the same
// artifact and reused rather than disambiguated.
//
// The result is a pure function of the current directory listing plus the
// inputs; the check-then-write window is not atomic and concurrent writers
// racing on the same name may still collide. That gap is accepted.
func (s *Store) Resolve(cat artifact.Category, desiredName, sum string) (string, error) {
	name := Sanitize(desiredName)
	if name == "" {
		return "", fmt.Errorf("store: empty name after sanitizing %q", desiredName)
	}

	dir := s.Dir(cat)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 0; ; i++ {
		if i > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		}
		info, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("store: stat %s: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}
		if sum != "" {
			existing, err := checksum.File(candidate)
			if err == nil && existing == sum {
				// Identical content already on disk: same artifact.
				return candidate, nil
			}
		}
	}
}
