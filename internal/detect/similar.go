package detect

import (
	"math"
	"time"

	"github.com/your-org/mediascan/internal/models"
)

// SimilarityResult mirrors DuplicateResult for the time/location clusterer.
type SimilarityResult struct {
	Match   bool
	Key     float64
	PrevRef models.AssetRef
	PrevKey float64
}

type prevSimilar struct {
	ref       models.AssetRef
	key       float64
	clustered bool
}

// SimilarityDetector clusters enumeration-adjacent assets shot within
// maxDelta of each other and within maxDistance kilometers. Pure metadata,
// no I/O, so it runs inline on the dispatch lane. Sequential by design:
// it remembers the previous asset. Construct one per scan pass.
type SimilarityDetector struct {
	maxDelta    time.Duration
	maxDistance float64
	prev        *prevSimilar
}

func NewSimilarityDetector(maxDelta time.Duration, maxDistance float64) *SimilarityDetector {
	return &SimilarityDetector{maxDelta: maxDelta, maxDistance: maxDistance}
}

// Classify decides whether ref belongs to the same cluster as the
// previous asset. Both assets need location and creation-time metadata.
func (d *SimilarityDetector) Classify(ref models.AssetRef) SimilarityResult {
	prev := d.prev
	cur := &prevSimilar{ref: ref}
	d.prev = cur

	if prev == nil || !adjacent(prev.ref, ref, d.maxDelta, d.maxDistance) {
		cur.key = timestampKey(ref)
		return SimilarityResult{Match: false, Key: cur.key}
	}

	key := timestampKey(ref)
	if prev.clustered {
		key = prev.key
	} else {
		prev.key = key
		prev.clustered = true
	}
	cur.key = key
	cur.clustered = true

	return SimilarityResult{Match: true, Key: key, PrevRef: prev.ref, PrevKey: key}
}

func adjacent(a, b models.AssetRef, maxDelta time.Duration, maxDistance float64) bool {
	if !a.HasLocation() || !b.HasLocation() {
		return false
	}
	delta := a.CreatedAt.Sub(b.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	if delta >= maxDelta {
		return false
	}
	return distanceKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude) < maxDistance
}

// distanceKm is an equirectangular approximation, plenty for the sub-km
// deltas this clusterer cares about.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	x := (lon2 - lon1) * rad * math.Cos((lat1+lat2)/2*rad)
	y := (lat2 - lat1) * rad
	return earthRadiusKm * math.Sqrt(x*x+y*y)
}
