package scan

import (
	"testing"
	"time"

	"github.com/your-org/mediascan/internal/models"
)

func classified(id string, index int, createdAt time.Time) models.Classification {
	return models.Classification{
		Ref: models.AssetRef{ID: id, Index: index, CreatedAt: createdAt, Kind: models.MediaKindImage},
	}
}

func withEquality(c models.Classification, key float64) models.Classification {
	c.Equality = key
	c.HasEquality = true
	return c
}

func TestUpsertInsertsOnce(t *testing.T) {
	s := newClassSet()
	c := classified("a", 0, time.Unix(1000, 0))

	if !s.upsert(c, 100) {
		t.Fatal("first upsert did not insert")
	}
	if s.upsert(c, 100) {
		t.Fatal("second upsert inserted again")
	}
	if s.len() != 1 {
		t.Fatalf("len = %d, want 1", s.len())
	}
}

func TestUpsertRefreshesClusterKeys(t *testing.T) {
	s := newClassSet()
	c := classified("a", 0, time.Unix(1000, 0))
	s.upsert(withEquality(c, 5), 100)

	// Cluster grew; the key assignment changed.
	s.upsert(withEquality(c, 3), 100)

	got, ok := s.get("a")
	if !ok || got.Equality != 3 {
		t.Fatalf("equality = %f, want refreshed key 3", got.Equality)
	}
}

func TestRemoveReportsRecordedSize(t *testing.T) {
	s := newClassSet()
	s.upsert(classified("a", 0, time.Unix(1000, 0)), 4096)

	size, ok := s.remove("a")
	if !ok || size != 4096 {
		t.Fatalf("remove = %d, %v; want 4096, true", size, ok)
	}
	if _, ok := s.remove("a"); ok {
		t.Fatal("second remove reported presence")
	}
}

func TestMembersWithEquality(t *testing.T) {
	s := newClassSet()
	base := time.Unix(1000, 0)
	s.upsert(withEquality(classified("a", 0, base), 7), 1)
	s.upsert(withEquality(classified("b", 1, base), 7), 1)
	s.upsert(withEquality(classified("c", 2, base), 9), 1)
	s.upsert(classified("d", 3, base), 1)

	got := s.membersWithEquality(7)
	if len(got) != 2 {
		t.Fatalf("members = %v, want exactly a and b", got)
	}
}

func TestClusterSectionsDropSingletons(t *testing.T) {
	base := time.Unix(100000, 0)
	classes := []models.Classification{
		withEquality(classified("a", 0, base), 10),
		withEquality(classified("b", 1, base), 10),
		withEquality(classified("lone", 2, base), 20),
		classified("unkeyed", 3, base),
	}

	sections := clusterSections(classes, func(c models.Classification) (float64, bool) {
		return c.Equality, c.HasEquality
	})

	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1 (singleton and unkeyed dropped)", len(sections))
	}
	if len(sections[0].Assets) != 2 || sections[0].Key != 10 {
		t.Fatalf("section = %+v, want two members under key 10", sections[0])
	}
}

func TestClusterSectionsOrdering(t *testing.T) {
	base := time.Unix(100000, 0)
	classes := []models.Classification{
		withEquality(classified("b", 3, base), 10),
		withEquality(classified("a", 1, base), 10),
		withEquality(classified("d", 2, base), 30),
		withEquality(classified("c", 0, base), 30),
	}

	sections := clusterSections(classes, func(c models.Classification) (float64, bool) {
		return c.Equality, c.HasEquality
	})

	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	// Groups descend by key; members ascend by enumeration index.
	if sections[0].Key != 30 || sections[0].Assets[0].ID != "c" {
		t.Fatalf("first section = %+v, want key 30 led by c", sections[0])
	}
	if sections[1].Assets[0].ID != "a" || sections[1].Assets[1].ID != "b" {
		t.Fatalf("second section members = %+v, want a then b", sections[1].Assets)
	}
}

func TestDaySectionsSplitOnGaps(t *testing.T) {
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	classes := []models.Classification{
		classified("newest", 0, base),
		classified("sameday", 1, base.Add(-2*time.Hour)),
		classified("lastweek", 2, base.Add(-7*24*time.Hour)),
	}

	sections := daySections(classes)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if len(sections[0].Assets) != 2 {
		t.Fatalf("first bucket = %d assets, want 2", len(sections[0].Assets))
	}
	if sections[1].Assets[0].ID != "lastweek" {
		t.Fatalf("second bucket leads with %s, want lastweek", sections[1].Assets[0].ID)
	}
}

func TestDaySectionsEmpty(t *testing.T) {
	if got := daySections(nil); got != nil {
		t.Fatalf("daySections(nil) = %v, want nil", got)
	}
}
