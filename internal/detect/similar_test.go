package detect

import (
	"testing"
	"time"

	"github.com/your-org/mediascan/internal/models"
)

func locatedAsset(id string, createdAt time.Time, lat, lon float64) models.AssetRef {
	return models.AssetRef{
		ID:        id,
		CreatedAt: createdAt,
		Latitude:  &lat,
		Longitude: &lon,
		Kind:      models.MediaKindImage,
	}
}

func TestSimilarityAdjacency(t *testing.T) {
	base := time.Unix(100000, 0)

	tests := []struct {
		name string
		a, b models.AssetRef
		want bool
	}{
		{
			name: "close in time and place",
			a:    locatedAsset("a", base.Add(3*time.Second), 52.5200, 13.4050),
			b:    locatedAsset("b", base, 52.5201, 13.4051),
			want: true,
		},
		{
			name: "too far apart in time",
			a:    locatedAsset("a", base.Add(10*time.Second), 52.5200, 13.4050),
			b:    locatedAsset("b", base, 52.5200, 13.4050),
			want: false,
		},
		{
			name: "too far apart in space",
			a:    locatedAsset("a", base.Add(time.Second), 52.5200, 13.4050),
			b:    locatedAsset("b", base, 52.5400, 13.4050), // ~2.2 km north
			want: false,
		},
		{
			name: "first asset missing location",
			a:    models.AssetRef{ID: "a", CreatedAt: base.Add(time.Second)},
			b:    locatedAsset("b", base, 52.5200, 13.4050),
			want: false,
		},
		{
			name: "second asset missing location",
			a:    locatedAsset("a", base.Add(time.Second), 52.5200, 13.4050),
			b:    models.AssetRef{ID: "b", CreatedAt: base},
			want: false,
		},
		{
			name: "exactly at the time limit",
			a:    locatedAsset("a", base.Add(5*time.Second), 52.5200, 13.4050),
			b:    locatedAsset("b", base, 52.5200, 13.4050),
			want: false, // strict inequality
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewSimilarityDetector(5*time.Second, 1.0)
			d.Classify(tt.a)
			res := d.Classify(tt.b)
			if res.Match != tt.want {
				t.Fatalf("match = %v, want %v", res.Match, tt.want)
			}
		})
	}
}

func TestSimilarityClusterKeyPropagates(t *testing.T) {
	base := time.Unix(100000, 0)
	d := NewSimilarityDetector(5*time.Second, 1.0)

	d.Classify(locatedAsset("c", base.Add(4*time.Second), 52.5200, 13.4050))
	second := d.Classify(locatedAsset("b", base.Add(2*time.Second), 52.5200, 13.4050))
	third := d.Classify(locatedAsset("a", base, 52.5200, 13.4050))

	if !second.Match || !third.Match {
		t.Fatal("burst of three did not chain into one cluster")
	}
	if third.Key != second.Key {
		t.Fatalf("third key = %f, want propagated %f", third.Key, second.Key)
	}
	if second.PrevRef.ID != "c" {
		t.Fatalf("second predecessor = %s, want c", second.PrevRef.ID)
	}
}

func TestDistanceKm(t *testing.T) {
	// Berlin TV tower to Brandenburg Gate is roughly 2.2 km.
	got := distanceKm(52.5208, 13.4094, 52.5163, 13.3777)
	if got < 1.8 || got > 2.6 {
		t.Fatalf("distance = %f km, want roughly 2.2", got)
	}
	if d := distanceKm(52.52, 13.40, 52.52, 13.40); d != 0 {
		t.Fatalf("distance to self = %f, want 0", d)
	}
}

func TestIsScreenshot(t *testing.T) {
	if IsScreenshot(models.AssetRef{ID: "a"}) {
		t.Fatal("plain asset flagged as screenshot")
	}
	if !IsScreenshot(models.AssetRef{ID: "b", IsScreenshot: true}) {
		t.Fatal("flagged asset not detected")
	}
}
