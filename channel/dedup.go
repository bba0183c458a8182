package channel

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupCapacity bounds the recent-id set when no capacity is given.
const DefaultDedupCapacity = 1000

// Deduplicator remembers recently seen message ids so redelivered events can
// be dropped. The set is bounded: at capacity the oldest id is evicted and a
// later redelivery of it reads as new again.
type Deduplicator struct {
	mu   sync.Mutex
	seen *lru.Cache[string, struct{}]
}

// NewDeduplicator creates a Deduplicator remembering up to capacity ids.
// A capacity of zero or less selects DefaultDedupCapacity.
func NewDeduplicator(capacity int) (*Deduplicator, error) {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	cache, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, fmt.Errorf("dedup cache init: %w", err)
	}
	return &Deduplicator{seen: cache}, nil
}

// Seen reports whether id was recorded before, recording it if not, as one
// atomic step. An empty id is never recorded and always reads as new.
func (d *Deduplicator) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// Contains does not refresh recency, so ids leave in the order they
	// arrived regardless of how often duplicates are checked.
	if d.seen.Contains(id) {
		return true
	}
	d.seen.Add(id, struct{}{})
	return false
}

// Len returns the number of ids currently remembered.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen.Len()
}
