package cache_test

import (
	"os"
	"testing"
	"time"

	"augments/internal/artifact"
	"augments/internal/cache"
	"augments/internal/testutil"
)

func TestLookupMissOnEmptyCache(t *testing.T) {
	c, _ := testutil.TestCache(t)
	got, err := c.Lookup("transcript:abc:text")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestPutAndLookup(t *testing.T) {
	c, s := testutil.TestCache(t)

	art, err := s.Save(artifact.Transcript, "abc.txt", []byte("cached text"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.Put("transcript:abc:text", art); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Lookup("transcript:abc:text")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil {
		t.Fatal("cache miss after put")
	}
	if got.Path != art.Path {
		t.Errorf("path = %q, want %q", got.Path, art.Path)
	}
}

func TestLookupMissAfterExternalDelete(t *testing.T) {
	c, s := testutil.TestCache(t)

	art, err := s.Save(artifact.Transcript, "gone.txt", []byte("soon deleted"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.Put("transcript:gone:text", art); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.Remove(art.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	got, err := c.Lookup("transcript:gone:text")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Errorf("hit on deleted file: %+v", got)
	}

	// The dead row is dropped, so the next lookup misses cheaply too.
	got, err = c.Lookup("transcript:gone:text")
	if err != nil {
		t.Fatalf("second Lookup: %v", err)
	}
	if got != nil {
		t.Errorf("second lookup hit: %+v", got)
	}
}

func TestLookupMissWhenStale(t *testing.T) {
	c, s := testutil.TestCache(t)

	art, err := s.Save(artifact.Transcript, "old.txt", []byte("aged"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(art.Path, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := c.Put("transcript:old:text", art); err != nil {
		t.Fatalf("Put: %v", err)
	}

	bounded := c.WithMaxAge(24 * time.Hour)
	got, err := bounded.Lookup("transcript:old:text")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Errorf("hit on stale entry: %+v", got)
	}

	// The stale row was dropped, so even an unbounded lookup now misses.
	got, err = c.Lookup("transcript:old:text")
	if err != nil {
		t.Fatalf("unbounded Lookup: %v", err)
	}
	if got != nil {
		t.Errorf("dropped row resurfaced: %+v", got)
	}
}

func TestPutOverwritesEntry(t *testing.T) {
	c, s := testutil.TestCache(t)

	a1, _ := s.Save(artifact.Transcript, "one.txt", []byte("one"))
	a2, _ := s.Save(artifact.Transcript, "two.txt", []byte("two"))

	if err := c.Put("key", a1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put("key", a2); err != nil {
		t.Fatalf("Put again: %v", err)
	}

	got, err := c.Lookup("key")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil || got.Path != a2.Path {
		t.Errorf("got %+v, want path %q", got, a2.Path)
	}
}

func TestIndexClearAndCount(t *testing.T) {
	ix := testutil.TestIndex(t)

	for _, key := range []string{"a", "b", "c"} {
		err := ix.Put(cache.Entry{
			SourceKey: key,
			Category:  string(artifact.Transcript),
			Name:      key + ".txt",
			Path:      "/tmp/" + key,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	n, err := ix.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d", n)
	}

	dropped, err := ix.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if dropped != 3 {
		t.Errorf("dropped = %d", dropped)
	}
	n, _ = ix.Count()
	if n != 0 {
		t.Errorf("count after clear = %d", n)
	}
}
