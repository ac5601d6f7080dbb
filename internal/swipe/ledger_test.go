package swipe

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/your-org/mediascan/internal/cache"
	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	c := cache.New(store.NewMemoryStore(), config.CacheConfig{
		ThrottleWindow: 10 * time.Millisecond,
		BlurFlushDelay: 5 * time.Millisecond,
		DupFlushDelay:  5 * time.Millisecond,
		SizeFlushDelay: 5 * time.Millisecond,
		Retention:      30 * 24 * time.Hour,
	})
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load cache: %v", err)
	}
	t.Cleanup(c.Close)
	return NewLedger(c)
}

func TestMarkAndVerdict(t *testing.T) {
	l := newTestLedger(t)

	if _, ok := l.Verdict("a"); ok {
		t.Fatal("verdict present before any mark")
	}

	l.Mark("a", true)
	v, ok := l.Verdict("a")
	if !ok || !v.Keep {
		t.Fatalf("verdict = %+v, %v; want keep", v, ok)
	}

	l.Mark("a", false)
	v, _ = l.Verdict("a")
	if v.Keep {
		t.Fatal("flipped verdict not visible")
	}
}

func TestPendingDeletionCountsDiscardsOnly(t *testing.T) {
	l := newTestLedger(t)

	l.Mark("keep1", true)
	l.Mark("keep2", true)
	l.Mark("drop1", false)
	l.Mark("drop2", false)
	l.Mark("drop3", false)

	if got := l.PendingDeletion(); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}

	// Flipping a discard back to keep shrinks the pending set.
	l.Mark("drop3", true)
	if got := l.PendingDeletion(); got != 2 {
		t.Fatalf("pending after flip = %d, want 2", got)
	}
}

func TestClearForgetsVerdict(t *testing.T) {
	l := newTestLedger(t)

	l.Mark("a", false)
	l.Clear("a")

	if _, ok := l.Verdict("a"); ok {
		t.Fatal("cleared verdict still readable")
	}
	if got := l.PendingDeletion(); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
}

func TestDiscards(t *testing.T) {
	l := newTestLedger(t)

	l.Mark("b", false)
	l.Mark("a", false)
	l.Mark("c", true)

	got := l.Discards()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("discards = %v, want [a b]", got)
	}
}

func TestLedgerSharesCacheKind(t *testing.T) {
	c := cache.New(store.NewMemoryStore(), config.CacheConfig{
		ThrottleWindow: 10 * time.Millisecond,
		BlurFlushDelay: 5 * time.Millisecond,
		DupFlushDelay:  5 * time.Millisecond,
		SizeFlushDelay: 5 * time.Millisecond,
		Retention:      30 * 24 * time.Hour,
	})
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load cache: %v", err)
	}
	defer c.Close()

	l := NewLedger(c)
	l.Mark("a", false)

	rec, ok := c.Get(models.KindSwipe, "a")
	if !ok || rec.Value {
		t.Fatalf("cache record = %+v, %v; want discard under swipe kind", rec, ok)
	}
}
