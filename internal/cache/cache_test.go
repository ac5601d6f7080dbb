package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/models"
)

// fakeStore is an in-memory DecisionStore that counts mutations.
type fakeStore struct {
	mu   sync.Mutex
	rows map[models.DecisionKind]map[string]models.StoredRecord

	inserts    int
	deletes    int
	deleteAlls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[models.DecisionKind]map[string]models.StoredRecord)}
}

func (f *fakeStore) kind(k models.DecisionKind) map[string]models.StoredRecord {
	if f.rows[k] == nil {
		f.rows[k] = make(map[string]models.StoredRecord)
	}
	return f.rows[k]
}

func (f *fakeStore) InsertBatch(_ context.Context, records []models.StoredRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		rows := f.kind(r.Kind)
		if _, ok := rows[r.AssetID]; ok {
			continue
		}
		rows[r.AssetID] = r
		f.inserts++
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, kind models.DecisionKind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.kind(kind)[id]; ok {
		delete(f.rows[kind], id)
		f.deletes++
	}
	return nil
}

func (f *fakeStore) DeleteBatch(_ context.Context, kind models.DecisionKind, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, ok := f.kind(kind)[id]; ok {
			delete(f.rows[kind], id)
			f.deletes++
		}
	}
	return nil
}

func (f *fakeStore) DeleteAll(_ context.Context, kind models.DecisionKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[kind] = make(map[string]models.StoredRecord)
	f.deleteAlls++
	return nil
}

func (f *fakeStore) FetchAll(_ context.Context, kind models.DecisionKind) ([]models.StoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.StoredRecord, 0, len(f.kind(kind)))
	for _, r := range f.rows[kind] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) FetchByID(_ context.Context, kind models.DecisionKind, id string) (*models.StoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.kind(kind)[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeStore) has(kind models.DecisionKind, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.kind(kind)[id]
	return ok
}

func (f *fakeStore) counts() (inserts, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts, f.deletes
}

func fastConfig() config.CacheConfig {
	return config.CacheConfig{
		ThrottleWindow: 20 * time.Millisecond,
		BlurFlushDelay: 10 * time.Millisecond,
		DupFlushDelay:  10 * time.Millisecond,
		SizeFlushDelay: 10 * time.Millisecond,
		Retention:      30 * 24 * time.Hour,
	}
}

func newTestCache(t *testing.T, st *fakeStore) *Cache {
	t.Helper()
	c := New(st, fastConfig())
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestGetUnsetAndSet(t *testing.T) {
	c := newTestCache(t, newFakeStore())

	if _, ok := c.Get(models.KindBlurred, "a"); ok {
		t.Fatal("expected unset decision")
	}

	c.Set(models.KindBlurred, "a", models.Record{Value: true})
	rec, ok := c.Get(models.KindBlurred, "a")
	if !ok || !rec.Value {
		t.Fatalf("got %+v, %v; want value=true", rec, ok)
	}
}

func TestSetFlushesAfterDebounce(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	c.Set(models.KindBlurred, "a", models.Record{Value: true})
	c.Set(models.KindBlurred, "b", models.Record{Value: false})

	waitFor(t, func() bool { return st.has(models.KindBlurred, "a") && st.has(models.KindBlurred, "b") },
		"records never reached the durable store")
}

func TestBurstCoalescesIntoOneInsertBatch(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	for i := 0; i < 50; i++ {
		c.Set(models.KindSize, string(rune('a'+i%26))+"x", models.Record{Value: true, Score: float64(i), HasScore: true})
	}

	waitFor(t, func() bool {
		inserts, _ := st.counts()
		return inserts > 0
	}, "flush never ran")

	// One burst inside the window produces one flush: every id inserted once.
	time.Sleep(60 * time.Millisecond)
	inserts, _ := st.counts()
	snap := c.Snapshot(models.KindSize)
	if inserts != len(snap) {
		t.Fatalf("inserts = %d, want %d (one per distinct id)", inserts, len(snap))
	}
}

func TestUnchangedSetIsNoOp(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	rec := models.Record{Value: true, Score: 7, HasScore: true}
	c.Set(models.KindDuplicate, "a", rec)
	waitFor(t, func() bool { return st.has(models.KindDuplicate, "a") }, "initial flush missing")

	// Same payload again: no dirty signal, no durable delete.
	c.Set(models.KindDuplicate, "a", models.Record{Value: true, Score: 7, HasScore: true})
	time.Sleep(80 * time.Millisecond)

	_, deletes := st.counts()
	if deletes != 0 {
		t.Fatalf("deletes = %d, want 0 for unchanged set", deletes)
	}
}

func TestChangedValueDeletesThenRecreates(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	c.Set(models.KindBlurred, "a", models.Record{Value: true})
	waitFor(t, func() bool { return st.has(models.KindBlurred, "a") }, "initial flush missing")

	c.Set(models.KindBlurred, "a", models.Record{Value: false})

	waitFor(t, func() bool {
		_, deletes := st.counts()
		return deletes >= 1
	}, "durable delete for changed value never happened")

	waitFor(t, func() bool {
		c.FlushAll()
		r, _ := st.FetchByID(context.Background(), models.KindBlurred, "a")
		return r != nil && r.Value == false
	}, "recreated row never appeared")

	rec, ok := c.Get(models.KindBlurred, "a")
	if !ok || rec.Value {
		t.Fatalf("memory shows %+v, %v; want value=false", rec, ok)
	}
}

func TestDeleteRemovesMemoryImmediately(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	c.Set(models.KindSwipe, "a", models.Record{Value: false})
	c.Delete(models.KindSwipe, "a")

	if _, ok := c.Get(models.KindSwipe, "a"); ok {
		t.Fatal("deleted decision still readable")
	}
}

func TestDeleteAllClearsKindOnly(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	c.Set(models.KindDuplicate, "a", models.Record{Value: true})
	c.Set(models.KindBlurred, "b", models.Record{Value: true})

	c.DeleteAll(models.KindDuplicate)

	if _, ok := c.Get(models.KindDuplicate, "a"); ok {
		t.Fatal("duplicate decision survived DeleteAll")
	}
	if _, ok := c.Get(models.KindBlurred, "b"); !ok {
		t.Fatal("unrelated kind was cleared")
	}
}

func TestLoadEvictsExpiredRecords(t *testing.T) {
	st := newFakeStore()
	fresh := models.StoredRecord{AssetID: "fresh", Kind: models.KindBlurred, Value: true, CreatedAt: time.Now()}
	stale := models.StoredRecord{AssetID: "stale", Kind: models.KindBlurred, Value: true, CreatedAt: time.Now().Add(-31 * 24 * time.Hour)}
	_ = st.InsertBatch(context.Background(), []models.StoredRecord{fresh, stale})

	c := newTestCache(t, st)

	if _, ok := c.Get(models.KindBlurred, "fresh"); !ok {
		t.Fatal("fresh record missing after load")
	}
	if _, ok := c.Get(models.KindBlurred, "stale"); ok {
		t.Fatal("stale record survived load")
	}
	waitFor(t, func() bool { return !st.has(models.KindBlurred, "stale") },
		"stale record never purged durably")
}

func TestCount(t *testing.T) {
	c := newTestCache(t, newFakeStore())

	c.Set(models.KindSwipe, "keep1", models.Record{Value: true})
	c.Set(models.KindSwipe, "drop1", models.Record{Value: false})
	c.Set(models.KindSwipe, "drop2", models.Record{Value: false})

	if got := c.Count(models.KindSwipe, false); got != 2 {
		t.Fatalf("Count(false) = %d, want 2", got)
	}
	if got := c.Count(models.KindSwipe, true); got != 1 {
		t.Fatalf("Count(true) = %d, want 1", got)
	}
}

func TestConcurrentSetsSurviveRace(t *testing.T) {
	st := newFakeStore()
	c := newTestCache(t, st)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := string(rune('a' + (g+i)%26))
				c.Set(models.KindSize, id, models.Record{Value: true, Score: float64(i), HasScore: true})
				c.Get(models.KindSize, id)
			}
		}(g)
	}
	wg.Wait()

	c.FlushAll()
	if snap := c.Snapshot(models.KindSize); len(snap) == 0 {
		t.Fatal("no records after concurrent writes")
	}
}
