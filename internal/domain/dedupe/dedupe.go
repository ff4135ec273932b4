// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen report keys to ensure at-most-once publishing
// per seller and period.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key from the seen list, allowing it to be retried.
	// This should only be used when a report was marked as seen but failed
	// to be published (e.g., the WB API or Sheets call errored).
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper implements Deduper with FIFO eviction.
// For bounded mode (maxSize > 0): keys are kept in insertion order and the
// oldest key is dropped when the bound is reached.
// For unbounded mode (maxSize <= 0): uses a simple map (no eviction).
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, oldest first; bounded mode only
	maxSize int      // maximum number of keys to keep in memory (0 or negative = UNBOUNDED)
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 1024, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks if key was seen and records it if not.
// Returns true if key was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[key] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, key)
	}
	d.size.Add(1)
	return false
}

// Unrecord removes a key from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; !exists {
		return
	}
	delete(d.seen, key)

	if d.maxSize > 0 {
		for i, k := range d.order {
			if k == key {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	d.size.Add(-1)
}

// evictOldest drops the earliest recorded key.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.order) == 0 {
		return
	}
	oldest := d.order[0]
	d.order = d.order[1:]
	delete(d.seen, oldest)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
