package detect

import (
	"bytes"
	"image"

	"github.com/corona10/goimagehash"

	"github.com/your-org/mediascan/internal/models"
)

// DuplicateResult is the outcome of comparing one asset against its
// predecessor in enumeration order.
type DuplicateResult struct {
	// Match means the rendered thumbnails are byte-identical.
	Match bool
	// Key is the equality cluster key assigned to the current asset.
	Key float64
	// PrevRef/PrevKey identify the predecessor's (possibly updated)
	// cluster assignment when Match is true.
	PrevRef models.AssetRef
	PrevKey float64
}

type prevThumb struct {
	ref  models.AssetRef
	pix  []byte
	hash *goimagehash.ImageHash
	key  float64
	// clustered marks a key shared by a matched group, as opposed to the
	// provisional singleton key every unmatched asset carries.
	clustered bool
}

// DuplicateDetector decides pixel-duplicates by exact byte equality of
// low-resolution renderings of enumeration-adjacent assets. Only adjacent
// pairs are compared, a linear pass rather than all-pairs. A dHash
// inequality short-circuits the byte comparison.
//
// The detector is bounded-state (it remembers the previous asset) and must
// be driven sequentially in enumeration order. Construct one per scan pass;
// instances are not safe for concurrent use.
type DuplicateDetector struct {
	thumbSize int
	prev      *prevThumb
}

func NewDuplicateDetector(thumbSize int) *DuplicateDetector {
	return &DuplicateDetector{thumbSize: thumbSize}
}

// Skip records a predecessor whose thumbnail was never rendered (cached
// decision or failed fetch). The next asset cannot match it.
func (d *DuplicateDetector) Skip(ref models.AssetRef, key float64, clustered bool) {
	d.prev = &prevThumb{ref: ref, key: key, clustered: clustered}
}

// Classify compares the asset's rendered thumbnail against the previous
// asset. Enumeration runs newest-first, so on a match the cluster key is
// the current (earlier-created) asset's timestamp, unless the predecessor
// already belongs to a cluster, in which case that key propagates.
func (d *DuplicateDetector) Classify(ref models.AssetRef, thumb image.Image) DuplicateResult {
	hash, hashErr := goimagehash.DifferenceHash(thumb)

	prev := d.prev
	cur := &prevThumb{ref: ref, pix: normalizePix(thumb, d.thumbSize), hash: hash}
	d.prev = cur

	if prev == nil || prev.pix == nil || !samePix(prev, cur, hashErr == nil) {
		// Unmatched: provisional singleton key (own creation timestamp).
		cur.key = timestampKey(ref)
		return DuplicateResult{Match: false, Key: cur.key}
	}

	// Enumeration runs newest-first, so the current asset is the earliest
	// member seen so far: its timestamp names a fresh cluster. An already
	// clustered predecessor propagates its key instead.
	key := timestampKey(ref)
	if prev.clustered {
		key = prev.key
	} else {
		prev.key = key
		prev.clustered = true
	}
	cur.key = key
	cur.clustered = true

	return DuplicateResult{Match: true, Key: key, PrevRef: prev.ref, PrevKey: key}
}

func timestampKey(ref models.AssetRef) float64 {
	return float64(ref.CreatedAt.UnixNano()) / 1e9
}

func samePix(a, b *prevThumb, useHash bool) bool {
	if useHash && a.hash != nil && b.hash != nil {
		if dist, err := a.hash.Distance(b.hash); err == nil && dist != 0 {
			return false
		}
	}
	return bytes.Equal(a.pix, b.pix)
}

// normalizePix renders img into a fixed-size RGBA grid so byte comparison
// is independent of the source dimensions and encoding.
func normalizePix(img image.Image, size int) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return dst.Pix
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			srcX := bounds.Min.X + x*srcW/size
			srcY := bounds.Min.Y + y*srcH/size
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst.Pix
}
