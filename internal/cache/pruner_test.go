package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"augments/internal/artifact"
	"augments/internal/cache"
	"augments/internal/testutil"
)

func TestPruneDropsRowsForDeletedFiles(t *testing.T) {
	c, s := testutil.TestCache(t)
	ix := testutil.TestIndex(t)
	c = cache.New(ix, s)

	art, err := s.Save(artifact.Transcript, "watched.txt", []byte("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.Put("key", art); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = cache.Prune(ctx, ix, s.Root(), testutil.Logger())
	}()

	// Give the watcher a moment to register before deleting.
	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(art.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		e, err := ix.Get("key")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if e == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("index row not pruned after file delete")
}

func TestPruneReconcilesDeadRowsAtStartup(t *testing.T) {
	s := testutil.TestStore(t)
	ix := testutil.TestIndex(t)

	// A row pointing at a file that was deleted while no pruner ran.
	err := ix.Put(cache.Entry{
		SourceKey: "dead",
		Category:  string(artifact.Transcript),
		Name:      "gone.txt",
		Path:      s.Dir(artifact.Transcript) + "/gone.txt",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = cache.Prune(ctx, ix, s.Root(), testutil.Logger())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		e, err := ix.Get("dead")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if e == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("dead row not reconciled at startup")
}
