package insight

import (
	"sync"

	"evs-comms/backend/pkg/models"
)

// DefaultCapacity is the number of insights retained when none is configured.
const DefaultCapacity = 20

// Buffer retains the most recent insights, dropping the oldest when full.
type Buffer struct {
	mu    sync.RWMutex
	ring  []models.PredictiveInsight
	start int
	size  int
}

// NewBuffer creates a buffer holding at most capacity insights.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{ring: make([]models.PredictiveInsight, capacity)}
}

// Add appends an insight.
func (b *Buffer) Add(in models.PredictiveInsight) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == len(b.ring) {
		b.ring[b.start] = in
		b.start = (b.start + 1) % len(b.ring)
		return
	}
	b.ring[(b.start+b.size)%len(b.ring)] = in
	b.size++
}

// Recent returns up to n insights, newest first.
func (b *Buffer) Recent(n int) []models.PredictiveInsight {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n < 0 || n > b.size {
		n = b.size
	}
	out := make([]models.PredictiveInsight, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, b.ring[(b.start+b.size-1-i)%len(b.ring)])
	}
	return out
}

// Len returns the number of retained insights.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
