// Package swipe records keep/discard verdicts made during manual review.
// Verdicts live in the decision cache under their own kind, so they share
// its persistence, debounce, and retention behavior.
package swipe

import (
	"github.com/your-org/mediascan/internal/cache"
	"github.com/your-org/mediascan/internal/models"
)

// Verdict is one reviewed asset's outcome.
type Verdict struct {
	AssetID string `json:"asset_id"`
	Keep    bool   `json:"keep"`
}

// Ledger is a thin facade over the swipe decision kind.
type Ledger struct {
	cache *cache.Cache
}

func NewLedger(c *cache.Cache) *Ledger {
	return &Ledger{cache: c}
}

// Mark records a verdict for an asset. Re-marking with the same verdict
// is a no-op; flipping the verdict replaces the durable record.
func (l *Ledger) Mark(assetID string, keep bool) {
	l.cache.Set(models.KindSwipe, assetID, models.Record{Value: keep})
}

// Verdict reports the recorded verdict, if any.
func (l *Ledger) Verdict(assetID string) (Verdict, bool) {
	rec, ok := l.cache.Get(models.KindSwipe, assetID)
	if !ok {
		return Verdict{}, false
	}
	return Verdict{AssetID: assetID, Keep: rec.Value}, true
}

// Clear forgets an asset's verdict, typically after the asset was acted
// on (deleted or explicitly kept outside review).
func (l *Ledger) Clear(assetID string) {
	l.cache.Delete(models.KindSwipe, assetID)
}

// PendingDeletion counts assets currently marked for discard.
func (l *Ledger) PendingDeletion() int {
	return l.cache.Count(models.KindSwipe, false)
}

// Discards lists the asset identifiers currently marked for discard.
func (l *Ledger) Discards() []string {
	var out []string
	for id, rec := range l.cache.Snapshot(models.KindSwipe) {
		if !rec.Value {
			out = append(out, id)
		}
	}
	return out
}
