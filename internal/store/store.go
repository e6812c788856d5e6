// Package store implements the artifact store: collision-free path
// resolution plus read/write/list/delete over the typed artifact tree.
package store

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"augments/internal/apperr"
	"augments/internal/artifact"
	"augments/internal/checksum"
)

// Store owns the on-disk artifact tree:
//
//	<root>/
//	  transcripts/
//	  audio/
//	  downloads/
//	  temp/
//	  reports/
//
// Artifact lifetime is governed here and by the eviction sweep; the cache
// index only holds weak references into this tree.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the category directories.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	for _, c := range artifact.Categories {
		if err := os.MkdirAll(filepath.Join(abs, c.Dir()), 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s dir: %w", c, err)
		}
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute artifact tree root.
func (s *Store) Root() string { return s.root }

// Dir returns the absolute directory for a category.
func (s *Store) Dir(cat artifact.Category) string {
	return filepath.Join(s.root, cat.Dir())
}

// Save writes content as a new artifact. The destination is resolved
// collision-free; identical content already on disk is reused in place.
// The write is atomic: temp file, fsync, rename. A failed write never
// leaves a truncated artifact behind.
func (s *Store) Save(cat artifact.Category, name string, content []byte) (artifact.Artifact, error) {
	sum := checksum.Sum(content)
	path, err := s.Resolve(cat, name, sum)
	if err != nil {
		return artifact.Artifact{}, err
	}
	return s.writeAt(cat, path, content, sum)
}

// Overwrite writes content to the sanitized name, replacing any existing
// artifact at that path. Used when regeneration is intentional (stale
// cache refresh); Save is the default.
func (s *Store) Overwrite(cat artifact.Category, name string, content []byte) (artifact.Artifact, error) {
	clean := Sanitize(name)
	if clean == "" {
		return artifact.Artifact{}, fmt.Errorf("store: empty name after sanitizing %q", name)
	}
	path := filepath.Join(s.Dir(cat), clean)
	return s.writeAt(cat, path, content, checksum.Sum(content))
}

func (s *Store) writeAt(cat artifact.Category, path string, content []byte, sum string) (artifact.Artifact, error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".augments-tmp-*")
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return artifact.Artifact{}, fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return artifact.Artifact{}, fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return artifact.Artifact{}, fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return artifact.Artifact{}, fmt.Errorf("store: rename: %w", err)
	}
	success = true

	info, err := os.Stat(path)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("store: stat after write: %w", err)
	}
	return artifact.Artifact{
		Category:  cat,
		Name:      filepath.Base(path),
		Path:      path,
		Size:      info.Size(),
		Checksum:  sum,
		CreatedAt: info.ModTime(),
	}, nil
}

// Load returns the content of the named artifact, or apperr.ErrNotFound.
func (s *Store) Load(cat artifact.Category, name string) ([]byte, error) {
	path := filepath.Join(s.Dir(cat), Sanitize(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store: %s/%s: %w", cat, name, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	return data, nil
}

// Stat returns artifact metadata for an absolute path inside the tree.
// Used by the cache to validate that a referenced artifact still exists.
func (s *Store) Stat(path string) (artifact.Artifact, error) {
	if !strings.HasPrefix(path, s.root+string(os.PathSeparator)) {
		return artifact.Artifact{}, fmt.Errorf("store: path outside artifact tree: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return artifact.Artifact{}, fmt.Errorf("store: %s: %w", path, apperr.ErrNotFound)
		}
		return artifact.Artifact{}, fmt.Errorf("store: stat %s: %w", path, err)
	}
	rel, _ := filepath.Rel(s.root, path)
	cat, _ := artifact.ParseCategory(strings.Split(rel, string(os.PathSeparator))[0])
	return artifact.Artifact{
		Category:  cat,
		Name:      filepath.Base(path),
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes the named artifact. It reports whether an artifact was
// actually removed; a missing artifact is not an error.
func (s *Store) Delete(cat artifact.Category, name string) (bool, error) {
	path := filepath.Join(s.Dir(cat), Sanitize(name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: delete %s: %w", path, err)
	}
	return true, nil
}

// All yields every artifact in the category ordered by creation time
// ascending. The sequence is finite and restartable: each range re-reads
// the directory.
func (s *Store) All(cat artifact.Category) iter.Seq2[artifact.Artifact, error] {
	return func(yield func(artifact.Artifact, error) bool) {
		entries, err := os.ReadDir(s.Dir(cat))
		if err != nil {
			yield(artifact.Artifact{}, fmt.Errorf("store: list %s: %w", cat, err))
			return
		}
		arts := make([]artifact.Artifact, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue // removed between readdir and stat
			}
			arts = append(arts, artifact.Artifact{
				Category:  cat,
				Name:      e.Name(),
				Path:      filepath.Join(s.Dir(cat), e.Name()),
				Size:      info.Size(),
				CreatedAt: info.ModTime(),
			})
		}
		sort.Slice(arts, func(i, j int) bool {
			return arts[i].CreatedAt.Before(arts[j].CreatedAt)
		})
		for _, a := range arts {
			if !yield(a, nil) {
				return
			}
		}
	}
}

// List materializes All into a slice.
func (s *Store) List(cat artifact.Category) ([]artifact.Artifact, error) {
	var out []artifact.Artifact
	for a, err := range s.All(cat) {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
