package models

import "sync"

// Category is one overlapping classification bucket.
type Category string

const (
	CategoryDuplicates  Category = "duplicates"
	CategorySimilar     Category = "similar"
	CategoryBlurred     Category = "blurred"
	CategoryScreenshots Category = "screenshots"
	CategoryVideos      Category = "videos"
)

// AllCategories lists every classification category.
var AllCategories = []Category{
	CategoryDuplicates,
	CategorySimilar,
	CategoryBlurred,
	CategoryScreenshots,
	CategoryVideos,
}

// CategoryAggregate tracks the running count and byte-size total for one
// category. It must equal the sum over the category's current set after
// every mutation, so all updates go through Add/Remove under the lock.
type CategoryAggregate struct {
	mu        sync.Mutex
	count     int
	totalSize int64
}

func (a *CategoryAggregate) Add(sizeBytes int64) {
	a.mu.Lock()
	a.count++
	a.totalSize += sizeBytes
	a.mu.Unlock()
}

func (a *CategoryAggregate) Remove(sizeBytes int64) {
	a.mu.Lock()
	a.count--
	a.totalSize -= sizeBytes
	a.mu.Unlock()
}

func (a *CategoryAggregate) Reset() {
	a.mu.Lock()
	a.count = 0
	a.totalSize = 0
	a.mu.Unlock()
}

// Snapshot returns the current count and total size atomically.
func (a *CategoryAggregate) Snapshot() (count int, totalSize int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count, a.totalSize
}
