package scan

import (
	"sort"
	"sync"
	"time"

	"github.com/your-org/mediascan/internal/models"
)

// entry is one classified asset plus the byte size that was added to the
// category aggregate when it was inserted (so removal subtracts the same
// amount, keeping the aggregate exact).
type entry struct {
	class models.Classification
	size  int64
}

// classSet is one category's in-memory classification set for the current
// scan session. Keyed by asset ID: re-classifying the same asset is an
// update, never a double count. Mutations are serialized per set.
type classSet struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newClassSet() *classSet {
	return &classSet{entries: make(map[string]*entry)}
}

// upsert inserts the classification if absent, returning true on insert.
// An existing entry only has its cluster keys refreshed (keys propagate
// when a cluster grows).
func (s *classSet) upsert(c models.Classification, size int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[c.Ref.ID]; ok {
		e.class.Equality = c.Equality
		e.class.HasEquality = c.HasEquality
		e.class.Similarity = c.Similarity
		e.class.HasSimilarity = c.HasSimilarity
		return false
	}
	s.entries[c.Ref.ID] = &entry{class: c, size: size}
	return true
}

// remove deletes the asset and reports its recorded size.
func (s *classSet) remove(id string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, false
	}
	delete(s.entries, id)
	return e.size, true
}

func (s *classSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *classSet) clear() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
}

// snapshot copies the current classifications.
func (s *classSet) snapshot() []models.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Classification, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.class)
	}
	return out
}

// membersWithEquality returns the ids currently sharing an equality key.
func (s *classSet) membersWithEquality(key float64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, e := range s.entries {
		if e.class.HasEquality && e.class.Equality == key {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *classSet) get(id string) (models.Classification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return models.Classification{}, false
	}
	return e.class, true
}

// Section is one ordered group of a category's media: a cluster (duplicates
// and similar) or a calendar-day bucket (everything else).
type Section struct {
	// Key is the shared cluster key for duplicate/similar sections.
	Key float64 `json:"key,omitempty"`
	// Day is the bucket date for day-grouped sections.
	Day time.Time `json:"day,omitempty"`

	Assets []models.AssetRef `json:"assets"`
}

// clusterSections groups classifications by cluster key, surfaces only
// groups with at least two members, and orders groups by descending key.
func clusterSections(classes []models.Classification, key func(models.Classification) (float64, bool)) []Section {
	groups := make(map[float64][]models.Classification)
	for _, c := range classes {
		k, ok := key(c)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], c)
	}

	sections := make([]Section, 0, len(groups))
	for k, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].Ref.Index < members[j].Ref.Index
		})
		refs := make([]models.AssetRef, len(members))
		for i, m := range members {
			refs[i] = m.Ref
		}
		sections = append(sections, Section{Key: k, Assets: refs})
	}

	sort.Slice(sections, func(i, j int) bool {
		return sections[i].Key > sections[j].Key
	})
	return sections
}

// daySections buckets classifications by creation day: items are walked in
// enumeration order (newest first) and a gap of more than 24h starts a new
// bucket. Items within a bucket keep enumeration order.
func daySections(classes []models.Classification) []Section {
	if len(classes) == 0 {
		return nil
	}

	sorted := make([]models.Classification, len(classes))
	copy(sorted, classes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Ref.Index < sorted[j].Ref.Index
	})

	var sections []Section
	var cur *Section
	var last time.Time
	for _, c := range sorted {
		if cur == nil || last.Sub(c.Ref.CreatedAt) > 24*time.Hour {
			sections = append(sections, Section{
				Day: c.Ref.CreatedAt.Truncate(24 * time.Hour),
			})
			cur = &sections[len(sections)-1]
		}
		cur.Assets = append(cur.Assets, c.Ref)
		last = c.Ref.CreatedAt
	}
	return sections
}
