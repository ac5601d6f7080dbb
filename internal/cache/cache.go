package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/observability"
	"github.com/your-org/mediascan/internal/store"
)

// storeTimeout bounds every asynchronous durable-store round trip.
const storeTimeout = 15 * time.Second

// kindState holds one decision kind's map, its lock, and its flush trigger.
type kindState struct {
	mu      sync.RWMutex
	records map[string]models.Record

	trig     *trigger
	flushing atomic.Bool
}

// Cache is the single authoritative in-memory store of per-asset decisions,
// backed durably by a DecisionStore. Reads never touch I/O; writes update
// memory synchronously and reach the durable store via a debounced,
// append-only flush. The in-memory state is always allowed to be ahead of
// the durable store.
type Cache struct {
	store     store.DecisionStore
	retention time.Duration
	kinds     map[models.DecisionKind]*kindState
}

// New builds a cache with per-kind flush schedules. Load must be called
// before the first Get is served.
func New(st store.DecisionStore, cfg config.CacheConfig) *Cache {
	c := &Cache{
		store:     st,
		retention: cfg.Retention,
		kinds:     make(map[models.DecisionKind]*kindState, len(models.AllKinds)),
	}

	delays := map[models.DecisionKind]time.Duration{
		models.KindBlurred:   cfg.BlurFlushDelay,
		models.KindDuplicate: cfg.DupFlushDelay,
		models.KindSize:      cfg.SizeFlushDelay,
		models.KindSwipe:     cfg.BlurFlushDelay,
	}

	for _, kind := range models.AllKinds {
		ks := &kindState{records: make(map[string]models.Record)}
		k := kind
		ks.trig = newTrigger(cfg.ThrottleWindow, delays[kind], func() { c.flush(k) })
		c.kinds[kind] = ks
	}

	return c
}

// Load reads all persisted records once. Records older than the retention
// window are excluded from the map and queued for durable deletion.
func (c *Cache) Load(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)

	for _, kind := range models.AllKinds {
		records, err := c.store.FetchAll(ctx, kind)
		if err != nil {
			return err
		}

		var stale []string
		ks := c.kinds[kind]
		ks.mu.Lock()
		for _, r := range records {
			if r.CreatedAt.Before(cutoff) {
				stale = append(stale, r.AssetID)
				continue
			}
			ks.records[r.AssetID] = r.ToRecord()
		}
		loaded := len(ks.records)
		ks.mu.Unlock()

		slog.Info("decision cache loaded", "kind", kind, "records", loaded, "evicted", len(stale))

		if len(stale) > 0 {
			go c.purge(kind, stale)
		}
	}
	return nil
}

func (c *Cache) purge(kind models.DecisionKind, ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.DeleteBatch(ctx, kind, ids); err != nil {
		slog.Warn("purge stale decisions", "kind", kind, "count", len(ids), "error", err)
	}
}

// Get returns the cached decision for (kind, id). The second return is
// false when the decision is unset. Never blocks on I/O.
func (c *Cache) Get(kind models.DecisionKind, id string) (models.Record, bool) {
	ks := c.kinds[kind]
	ks.mu.RLock()
	r, ok := ks.records[id]
	ks.mu.RUnlock()
	return r, ok
}

// Set stores a decision. Unchanged values are a no-op and emit no dirty
// signal. A changed value for an already-stored key schedules a durable
// delete first, so the next flush recreates the row (the store is
// append-only per kind).
func (c *Cache) Set(kind models.DecisionKind, id string, rec models.Record) {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}

	ks := c.kinds[kind]
	ks.mu.Lock()
	old, existed := ks.records[id]
	if existed && old.Equal(rec) {
		ks.mu.Unlock()
		return
	}
	ks.records[id] = rec
	ks.mu.Unlock()

	if existed {
		go c.durableDelete(kind, id)
	}
	ks.trig.Signal()
}

// Delete removes the decision from memory immediately and schedules the
// durable removal. Subsequent reads never see the deleted value, even if
// the durable delete later fails.
func (c *Cache) Delete(kind models.DecisionKind, id string) {
	ks := c.kinds[kind]
	ks.mu.Lock()
	_, existed := ks.records[id]
	delete(ks.records, id)
	ks.mu.Unlock()

	if existed {
		go c.durableDelete(kind, id)
	}
}

// DeleteAll clears the whole kind, memory first, durable store after.
func (c *Cache) DeleteAll(kind models.DecisionKind) {
	ks := c.kinds[kind]
	ks.mu.Lock()
	ks.records = make(map[string]models.Record)
	ks.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := c.store.DeleteAll(ctx, kind); err != nil {
			slog.Warn("durable delete-all failed", "kind", kind, "error", err)
		}
	}()
}

func (c *Cache) durableDelete(kind models.DecisionKind, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.Delete(ctx, kind, id); err != nil {
		slog.Warn("durable delete failed", "kind", kind, "id", id, "error", err)
	}
}

// Snapshot returns a copy of the kind's current map.
func (c *Cache) Snapshot(kind models.DecisionKind) map[string]models.Record {
	ks := c.kinds[kind]
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	out := make(map[string]models.Record, len(ks.records))
	for id, r := range ks.records {
		out[id] = r
	}
	return out
}

// Count returns the number of records of kind matching value.
func (c *Cache) Count(kind models.DecisionKind, value bool) int {
	ks := c.kinds[kind]
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	n := 0
	for _, r := range ks.records {
		if r.Value == value {
			n++
		}
	}
	return n
}

// flush writes every in-memory record of kind whose identifier is not yet
// present in the durable store. At most one flush per kind is in flight;
// an overlapping cycle is skipped and its records are picked up next time.
func (c *Cache) flush(kind models.DecisionKind) {
	ks := c.kinds[kind]
	if !ks.flushing.CompareAndSwap(false, true) {
		slog.Debug("flush already in flight, skipping", "kind", kind)
		return
	}
	defer ks.flushing.Store(false)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	existing, err := c.store.FetchAll(ctx, kind)
	if err != nil {
		slog.Warn("flush fetch failed", "kind", kind, "error", err)
		return
	}
	durable := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		durable[r.AssetID] = struct{}{}
	}

	ks.mu.RLock()
	batch := make([]models.StoredRecord, 0, len(ks.records))
	for id, r := range ks.records {
		if _, ok := durable[id]; ok {
			continue
		}
		batch = append(batch, models.ToStored(kind, id, r))
	}
	ks.mu.RUnlock()

	if len(batch) == 0 {
		return
	}

	if err := c.store.InsertBatch(ctx, batch); err != nil {
		slog.Warn("flush insert failed", "kind", kind, "count", len(batch), "error", err)
		return
	}

	observability.CacheFlushes.WithLabelValues(string(kind)).Inc()
	observability.CacheFlushDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	slog.Debug("decision cache flushed", "kind", kind, "records", len(batch))
}

// FlushAll flushes every kind synchronously. Used at shutdown to shrink
// the loss window.
func (c *Cache) FlushAll() {
	for _, kind := range models.AllKinds {
		c.flush(kind)
	}
}

// Close stops the flush triggers and performs a final flush.
func (c *Cache) Close() {
	for _, ks := range c.kinds {
		ks.trig.Stop()
	}
	c.FlushAll()
}
