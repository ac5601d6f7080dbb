package scan

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/mediascan/internal/cache"
	"github.com/your-org/mediascan/internal/config"
	"github.com/your-org/mediascan/internal/detect"
	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/observability"
)

// State is the per-media-kind scan state machine.
type State string

const (
	StateIdle        State = "idle"
	StateEnumerating State = "enumerating"
	StateDispatching State = "dispatching"
	StateFinished    State = "finished"
)

// Publisher receives the orchestrator's progress/preview/deletion events.
// Delivery runs on the producer's goroutine; implementations must not block.
type Publisher interface {
	Progress(ev models.ProgressEvent)
	Preview(ev models.PreviewEvent)
	MediaDeleted(ev models.MediaDeletedEvent)
}

// NopPublisher drops all events.
type NopPublisher struct{}

func (NopPublisher) Progress(models.ProgressEvent)         {}
func (NopPublisher) Preview(models.PreviewEvent)           {}
func (NopPublisher) MediaDeleted(models.MediaDeletedEvent) {}

// MultiPublisher fans each event out to every given publisher in order.
func MultiPublisher(pubs ...Publisher) Publisher {
	return multiPublisher(pubs)
}

type multiPublisher []Publisher

func (m multiPublisher) Progress(ev models.ProgressEvent) {
	for _, p := range m {
		p.Progress(ev)
	}
}

func (m multiPublisher) Preview(ev models.PreviewEvent) {
	for _, p := range m {
		p.Preview(ev)
	}
}

func (m multiPublisher) MediaDeleted(ev models.MediaDeletedEvent) {
	for _, p := range m {
		p.MediaDeleted(ev)
	}
}

// Service drives the scan pipeline: it enumerates the library, fans assets
// out to the detector lanes, aggregates category membership and byte-size
// totals, and streams progress. One long-lived instance is constructed at
// startup and passed to every consumer.
//
// The duplicate and similarity detectors are scan-session state, like the
// enumeration snapshot: each pass constructs its own, so a superseded
// scan's lanes never share a predecessor chain with the live one.
type Service struct {
	lib   library.Library
	cache *cache.Cache
	cfg   config.ScanConfig
	pub   Publisher

	blur *detect.BlurDetector

	mu       sync.Mutex
	states   map[models.MediaKind]State
	snapshot map[models.MediaKind][]models.AssetRef
	// scans holds the live pass ID per kind. Lane work tagged with a
	// stale ID is dropped before it touches shared state.
	scans map[models.MediaKind]uuid.UUID

	sets map[models.Category]*classSet
	aggs map[models.Category]*models.CategoryAggregate
}

func New(lib library.Library, c *cache.Cache, cfg config.ScanConfig, pub Publisher) *Service {
	if pub == nil {
		pub = NopPublisher{}
	}

	s := &Service{
		lib:      lib,
		cache:    c,
		cfg:      cfg,
		pub:      pub,
		blur:     detect.NewBlurDetector(cfg.BlurThreshold),
		states:   make(map[models.MediaKind]State),
		snapshot: make(map[models.MediaKind][]models.AssetRef),
		scans:    make(map[models.MediaKind]uuid.UUID),
		sets:     make(map[models.Category]*classSet),
		aggs:     make(map[models.Category]*models.CategoryAggregate),
	}
	for _, kind := range []models.MediaKind{models.MediaKindImage, models.MediaKindVideo} {
		s.states[kind] = StateIdle
	}
	for _, cat := range models.AllCategories {
		s.sets[cat] = newClassSet()
		s.aggs[cat] = &models.CategoryAggregate{}
	}
	return s
}

// State returns the scan state for one media kind.
func (s *Service) State(kind models.MediaKind) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[kind]
}

// Snapshot returns the enumeration snapshot retained by the last scan of
// the given kind. Borrowed, read-only.
func (s *Service) Snapshot(kind models.MediaKind) []models.AssetRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot[kind]
}

// beginScan stamps a fresh pass ID for the kind, superseding any pass
// still in flight.
func (s *Service) beginScan(kind models.MediaKind) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.scans[kind] = id
	return id
}

// current reports whether the given pass is still the live one.
func (s *Service) current(kind models.MediaKind, scanID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans[kind] == scanID
}

// setState applies a state transition only on behalf of the live pass;
// a superseded scan must not clobber its successor's state.
func (s *Service) setState(kind models.MediaKind, scanID uuid.UUID, st State) {
	s.mu.Lock()
	if s.scans[kind] == scanID {
		s.states[kind] = st
	}
	s.mu.Unlock()
}

// ScanImages enumerates the image library and runs all image detectors.
// A new invocation (or ResetData) supersedes a prior one: the superseded
// pass's in-flight lanes drain, but their late results are dropped before
// touching shared state.
func (s *Service) ScanImages(ctx context.Context) error {
	scanID := s.beginScan(models.MediaKindImage)

	s.setState(models.MediaKindImage, scanID, StateEnumerating)
	assets, err := s.lib.Assets(ctx, models.MediaKindImage)
	if err != nil {
		s.setState(models.MediaKindImage, scanID, StateIdle)
		return err
	}

	s.mu.Lock()
	if s.scans[models.MediaKindImage] == scanID {
		s.snapshot[models.MediaKindImage] = assets
	}
	s.mu.Unlock()

	if len(assets) == 0 {
		s.pub.Progress(models.ProgressEvent{ScanID: scanID, Kind: models.MediaKindImage, Fraction: 1, Finished: true})
		s.setState(models.MediaKindImage, scanID, StateFinished)
		return nil
	}

	s.setState(models.MediaKindImage, scanID, StateDispatching)

	// Sequential detectors belong to this pass alone.
	dup := detect.NewDuplicateDetector(s.cfg.ThumbSize)
	sim := detect.NewSimilarityDetector(s.cfg.SimilarTimeDelta, s.cfg.SimilarDistance)

	// One lane per detector kind: duplicate and blur each get a dedicated
	// goroutine so a slow preview fetch for asset N never blocks the
	// thumbnail comparison for asset N+1. Both lanes are internally
	// sequential; the duplicate lane needs enumeration order, the blur
	// lane just doesn't need more.
	dupCh := make(chan models.AssetRef, 16)
	blurCh := make(chan models.AssetRef, 16)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for ref := range dupCh {
			s.detectDuplicate(ctx, scanID, dup, ref)
		}
	}()
	go func() {
		defer wg.Done()
		for ref := range blurCh {
			s.detectBlur(ctx, scanID, ref)
		}
	}()

	total := len(assets)
	for i, ref := range assets {
		if !s.current(models.MediaKindImage, scanID) {
			break
		}
		s.pub.Progress(models.ProgressEvent{
			ScanID:   scanID,
			Kind:     models.MediaKindImage,
			Index:    i,
			Fraction: float64(i+1) / float64(total),
			Finished: i == total-1,
		})
		observability.AssetsScanned.WithLabelValues(string(models.MediaKindImage)).Inc()

		// Screenshot and similarity need no artifact, so they run inline
		// on the dispatch lane.
		if detect.IsScreenshot(ref) {
			s.insert(ctx, models.MediaKindImage, scanID, models.CategoryScreenshots, models.Classification{Ref: ref})
		}
		if res := sim.Classify(ref); res.Match {
			s.insert(ctx, models.MediaKindImage, scanID, models.CategorySimilar, models.Classification{
				Ref: ref, Similarity: res.Key, HasSimilarity: true,
			})
			s.insert(ctx, models.MediaKindImage, scanID, models.CategorySimilar, models.Classification{
				Ref: res.PrevRef, Similarity: res.PrevKey, HasSimilarity: true,
			})
		}

		select {
		case dupCh <- ref:
		case <-ctx.Done():
		}
		select {
		case blurCh <- ref:
		case <-ctx.Done():
		}

		if (i+1)%s.cfg.PreviewInterval == 0 {
			s.publishPreviews()
		}

		if ctx.Err() != nil {
			break
		}
	}
	close(dupCh)
	close(blurCh)
	wg.Wait()

	if !s.current(models.MediaKindImage, scanID) {
		slog.Info("image scan superseded", "scan_id", scanID)
		return ctx.Err()
	}
	s.publishPreviews()
	s.setState(models.MediaKindImage, scanID, StateFinished)
	slog.Info("image scan finished", "scan_id", scanID, "assets", total)
	return ctx.Err()
}

// ScanVideos enumerates the video library. Videos carry no detectors:
// the category holds every video, day-bucketed, with byte-size totals.
func (s *Service) ScanVideos(ctx context.Context) error {
	scanID := s.beginScan(models.MediaKindVideo)

	s.setState(models.MediaKindVideo, scanID, StateEnumerating)
	assets, err := s.lib.Assets(ctx, models.MediaKindVideo)
	if err != nil {
		s.setState(models.MediaKindVideo, scanID, StateIdle)
		return err
	}

	s.mu.Lock()
	if s.scans[models.MediaKindVideo] == scanID {
		s.snapshot[models.MediaKindVideo] = assets
	}
	s.mu.Unlock()

	if len(assets) == 0 {
		s.pub.Progress(models.ProgressEvent{ScanID: scanID, Kind: models.MediaKindVideo, Fraction: 1, Finished: true})
		s.setState(models.MediaKindVideo, scanID, StateFinished)
		return nil
	}

	s.setState(models.MediaKindVideo, scanID, StateDispatching)
	total := len(assets)
	for i, ref := range assets {
		if !s.current(models.MediaKindVideo, scanID) {
			break
		}
		s.pub.Progress(models.ProgressEvent{
			ScanID:   scanID,
			Kind:     models.MediaKindVideo,
			Index:    i,
			Fraction: float64(i+1) / float64(total),
			Finished: i == total-1,
		})
		observability.AssetsScanned.WithLabelValues(string(models.MediaKindVideo)).Inc()

		s.insert(ctx, models.MediaKindVideo, scanID, models.CategoryVideos, models.Classification{Ref: ref})

		if (i+1)%s.cfg.PreviewInterval == 0 {
			s.publishPreviews()
		}
		if ctx.Err() != nil {
			break
		}
	}

	if !s.current(models.MediaKindVideo, scanID) {
		slog.Info("video scan superseded", "scan_id", scanID)
		return ctx.Err()
	}
	s.publishPreviews()
	s.setState(models.MediaKindVideo, scanID, StateFinished)
	slog.Info("video scan finished", "scan_id", scanID, "assets", total)
	return ctx.Err()
}

// detectDuplicate runs the read-through duplicate lane for one asset.
func (s *Service) detectDuplicate(ctx context.Context, scanID uuid.UUID, dup *detect.DuplicateDetector, ref models.AssetRef) {
	if !s.current(models.MediaKindImage, scanID) {
		return
	}

	if rec, ok := s.cache.Get(models.KindDuplicate, ref.ID); ok {
		observability.CacheHits.WithLabelValues(string(models.KindDuplicate)).Inc()
		if rec.Value {
			s.insert(ctx, models.MediaKindImage, scanID, models.CategoryDuplicates, models.Classification{
				Ref: ref, Equality: rec.Score, HasEquality: rec.HasScore,
			})
		}
		// The thumbnail was never rendered; the next asset can't match.
		dup.Skip(ref, rec.Score, rec.Value && rec.HasScore)
		return
	}

	observability.DetectorInvocations.WithLabelValues("duplicate").Inc()
	thumb, err := s.lib.Render(ctx, ref.ID, s.cfg.ThumbSize)
	if err != nil {
		// No decision possible: not cached, retried on the next scan.
		slog.Warn("thumbnail fetch failed", "asset", ref.ID, "error", err)
		dup.Skip(ref, 0, false)
		return
	}

	res := dup.Classify(ref, thumb)
	if !s.current(models.MediaKindImage, scanID) {
		return
	}
	s.cache.Set(models.KindDuplicate, ref.ID, models.Record{Value: res.Match, Score: res.Key, HasScore: true})

	if res.Match {
		s.insert(ctx, models.MediaKindImage, scanID, models.CategoryDuplicates, models.Classification{
			Ref: ref, Equality: res.Key, HasEquality: true,
		})
		s.insert(ctx, models.MediaKindImage, scanID, models.CategoryDuplicates, models.Classification{
			Ref: res.PrevRef, Equality: res.PrevKey, HasEquality: true,
		})
		// The predecessor's cluster assignment may have changed.
		s.cache.Set(models.KindDuplicate, res.PrevRef.ID, models.Record{Value: true, Score: res.PrevKey, HasScore: true})
	}
}

// detectBlur runs the read-through blur lane for one asset.
func (s *Service) detectBlur(ctx context.Context, scanID uuid.UUID, ref models.AssetRef) {
	if !s.current(models.MediaKindImage, scanID) {
		return
	}

	if rec, ok := s.cache.Get(models.KindBlurred, ref.ID); ok {
		observability.CacheHits.WithLabelValues(string(models.KindBlurred)).Inc()
		if rec.Value {
			s.insert(ctx, models.MediaKindImage, scanID, models.CategoryBlurred, models.Classification{Ref: ref})
		}
		return
	}

	observability.DetectorInvocations.WithLabelValues("blur").Inc()
	preview, err := s.lib.Render(ctx, ref.ID, s.cfg.PreviewSize)
	if err != nil {
		slog.Warn("preview fetch failed", "asset", ref.ID, "error", err)
		return
	}

	blurred, _ := s.blur.Classify(preview)
	if !s.current(models.MediaKindImage, scanID) {
		return
	}
	s.cache.Set(models.KindBlurred, ref.ID, models.Record{Value: blurred})
	if blurred {
		s.insert(ctx, models.MediaKindImage, scanID, models.CategoryBlurred, models.Classification{Ref: ref})
	}
}

// insert adds a classification to a category set (insert-if-absent) and,
// on insertion, adds the asset's byte size to the category aggregate.
// Inserts from a superseded pass are dropped.
func (s *Service) insert(ctx context.Context, kind models.MediaKind, scanID uuid.UUID, cat models.Category, c models.Classification) {
	if !s.current(kind, scanID) {
		return
	}
	size := s.assetSize(ctx, c.Ref)
	if s.sets[cat].upsert(c, size) {
		s.aggs[cat].Add(size)
		observability.CategorySize.WithLabelValues(string(cat)).Set(float64(s.sets[cat].len()))
	}
}

// assetSize reads the byte-size estimate through the size cache.
func (s *Service) assetSize(ctx context.Context, ref models.AssetRef) int64 {
	if rec, ok := s.cache.Get(models.KindSize, ref.ID); ok && rec.HasScore {
		observability.CacheHits.WithLabelValues(string(models.KindSize)).Inc()
		return int64(rec.Score)
	}

	size, err := s.lib.SizeOf(ctx, ref.ID)
	if err != nil {
		// Fall back to the enumeration metadata estimate.
		size = ref.SizeBytes
	}
	s.cache.Set(models.KindSize, ref.ID, models.Record{Value: true, Score: float64(size), HasScore: true})
	return size
}

// publishPreviews emits one representative preview per non-empty category.
// Called at an evenly spaced index interval so preview cost stays bounded
// regardless of collection size.
func (s *Service) publishPreviews() {
	for _, cat := range models.AllCategories {
		classes := s.sets[cat].snapshot()
		if len(classes) == 0 {
			continue
		}
		rep := classes[0]
		for _, c := range classes[1:] {
			if c.Ref.Index < rep.Ref.Index {
				rep = c
			}
		}
		s.pub.Preview(models.PreviewEvent{Category: cat, AssetID: rep.Ref.ID, ObjectKey: rep.Ref.ObjectKey})
	}
}

// ResetData clears all classification sets and aggregates back to initial
// values and supersedes any scan still in flight, so draining lanes stop
// repopulating what was just cleared. The decision cache survives resets.
func (s *Service) ResetData() {
	s.mu.Lock()
	for kind := range s.states {
		s.states[kind] = StateIdle
		s.scans[kind] = uuid.Nil
	}
	s.mu.Unlock()

	for _, cat := range models.AllCategories {
		s.sets[cat].clear()
		s.aggs[cat].Reset()
		observability.CategorySize.WithLabelValues(string(cat)).Set(0)
	}
}

// Media returns the category's current set as ordered sections:
// duplicates/similar as cluster groups of at least two, everything else
// as calendar-day buckets.
func (s *Service) Media(cat models.Category) []Section {
	classes := s.sets[cat].snapshot()
	switch cat {
	case models.CategoryDuplicates:
		return clusterSections(classes, func(c models.Classification) (float64, bool) {
			return c.Equality, c.HasEquality
		})
	case models.CategorySimilar:
		return clusterSections(classes, func(c models.Classification) (float64, bool) {
			return c.Similarity, c.HasSimilarity
		})
	default:
		return daySections(classes)
	}
}

// AggregateSnapshot is one category's running totals.
type AggregateSnapshot struct {
	Count     int   `json:"count"`
	TotalSize int64 `json:"total_size"`
}

// Aggregates returns every category's running count and byte total.
func (s *Service) Aggregates() map[models.Category]AggregateSnapshot {
	out := make(map[models.Category]AggregateSnapshot, len(s.aggs))
	for cat, agg := range s.aggs {
		count, size := agg.Snapshot()
		out[cat] = AggregateSnapshot{Count: count, TotalSize: size}
	}
	return out
}

// InvalidateDuplicates wipes the duplicate classification wholesale: new
// adjacent assets shift which pairs were compared, so stale pairwise
// decisions are unsafe to keep.
func (s *Service) InvalidateDuplicates() {
	s.cache.DeleteAll(models.KindDuplicate)
	s.sets[models.CategoryDuplicates].clear()
	s.aggs[models.CategoryDuplicates].Reset()
	observability.CategorySize.WithLabelValues(string(models.CategoryDuplicates)).Set(0)
	slog.Info("duplicate classification invalidated after insertion")
}

// RemoveAsset reconciles one removed asset out of every category holding
// it. A duplicate group shrunk to a single member is dissolved: its lone
// partner is removed and uncached too.
func (s *Service) RemoveAsset(id string) {
	dupClass, inDuplicates := s.sets[models.CategoryDuplicates].get(id)

	for _, cat := range models.AllCategories {
		size, ok := s.sets[cat].remove(id)
		if !ok {
			continue
		}
		s.aggs[cat].Remove(size)
		observability.CategorySize.WithLabelValues(string(cat)).Set(float64(s.sets[cat].len()))
		s.pub.MediaDeleted(models.MediaDeletedEvent{Category: cat, AssetID: id})
	}

	s.cache.Delete(models.KindSize, id)
	s.cache.Delete(models.KindBlurred, id)
	s.cache.Delete(models.KindDuplicate, id)
	s.cache.Delete(models.KindSwipe, id)

	if inDuplicates && dupClass.HasEquality {
		remaining := s.sets[models.CategoryDuplicates].membersWithEquality(dupClass.Equality)
		if len(remaining) == 1 {
			// A duplicate group of size 1 is not a duplicate.
			partner := remaining[0]
			if size, ok := s.sets[models.CategoryDuplicates].remove(partner); ok {
				s.aggs[models.CategoryDuplicates].Remove(size)
				observability.CategorySize.WithLabelValues(string(models.CategoryDuplicates)).Set(float64(s.sets[models.CategoryDuplicates].len()))
				s.pub.MediaDeleted(models.MediaDeletedEvent{Category: models.CategoryDuplicates, AssetID: partner})
			}
			s.cache.Delete(models.KindDuplicate, partner)
			s.cache.Delete(models.KindSize, partner)
		}
	}
}
