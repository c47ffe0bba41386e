package review

import (
	"sync"

	"moderation-console/internal/models"
)

// Tracker mirrors the last successful fetch for one screen. It is only
// mutated after the matching remote write has been confirmed.
type Tracker[T models.Reviewable[T]] struct {
	mu    sync.RWMutex
	items []T
}

// NewTracker creates an empty tracker.
func NewTracker[T models.Reviewable[T]]() *Tracker[T] {
	return &Tracker[T]{}
}

// Replace discards the current contents and stores a copy of items.
func (t *Tracker[T]) Replace(items []T) {
	copied := make([]T, len(items))
	for i, item := range items {
		copied[i] = item.Clone()
	}

	t.mu.Lock()
	t.items = copied
	t.mu.Unlock()
}

func (t *Tracker[T]) indexOf(id string) int {
	for i, item := range t.items {
		if item.ID() == id {
			return i
		}
	}
	return -1
}

// ApplyFlagToggle flips the review flag of item id.
func (t *Tracker[T]) ApplyFlagToggle(id string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	t.items[i] = t.items[i].WithReviewFlag(!t.items[i].ReviewFlag())
	return t.items[i].Clone(), true
}

// ApplyFlag sets the review flag of item id to the value the store accepted.
func (t *Tracker[T]) ApplyFlag(id string, value bool) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	t.items[i] = t.items[i].WithReviewFlag(value)
	return t.items[i].Clone(), true
}

// RemoveByID drops item id, keeping the order of the rest.
func (t *Tracker[T]) RemoveByID(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return false
	}
	t.items = append(t.items[:i:i], t.items[i+1:]...)
	return true
}

// Get returns a copy of item id.
func (t *Tracker[T]) Get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i := t.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return t.items[i].Clone(), true
}

// Snapshot returns a copy of the current ordered contents.
func (t *Tracker[T]) Snapshot() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, len(t.items))
	for i, item := range t.items {
		out[i] = item.Clone()
	}
	return out
}

// Len returns the number of tracked items.
func (t *Tracker[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}
