package repository

import (
	"sort"
	"sync"
	"time"

	"evs-comms/backend/pkg/models"
)

// DefaultMessageCapacity bounds the message history when no capacity is
// configured.
const DefaultMessageCapacity = 1000

type storedMessage struct {
	msg      models.Message
	location string
}

// MessageStore is a bounded, insertion-ordered message log. When full, the
// oldest message is evicted. Each entry caches its extracted location so
// clustering queries do not re-run the patterns.
type MessageStore struct {
	mu      sync.RWMutex
	ring    []storedMessage
	start   int
	size    int
	index   map[string]int // id -> ring slot
	locator func(string) string
}

// NewMessageStore creates a store holding at most capacity messages. locator
// extracts the location of a message's content.
func NewMessageStore(capacity int, locator func(string) string) *MessageStore {
	if capacity <= 0 {
		capacity = DefaultMessageCapacity
	}
	return &MessageStore{
		ring:    make([]storedMessage, capacity),
		index:   make(map[string]int, capacity),
		locator: locator,
	}
}

// Append stores a copy of msg.
func (s *MessageStore) Append(msg models.Message) {
	entry := storedMessage{msg: msg, location: s.locator(msg.Content)}

	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.ring)
	if s.size == capacity {
		evicted := s.ring[s.start]
		delete(s.index, evicted.msg.ID)
		s.ring[s.start] = entry
		s.index[msg.ID] = s.start
		s.start = (s.start + 1) % capacity
		return
	}
	slot := (s.start + s.size) % capacity
	s.ring[slot] = entry
	s.index[msg.ID] = slot
	s.size++
}

// Update replaces a stored message with the same ID, keeping its position.
// It reports false if the message is no longer retained.
func (s *MessageStore) Update(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.index[msg.ID]
	if !ok {
		return false
	}
	s.ring[slot].msg = msg
	return true
}

// Get returns a copy of the message with the given ID.
func (s *MessageStore) Get(id string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.index[id]
	if !ok {
		return models.Message{}, false
	}
	return s.ring[slot].msg, true
}

// Len returns the number of retained messages.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// All returns every retained message, oldest first.
func (s *MessageStore) All() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, 0, s.size)
	for i := 0; i < s.size; i++ {
		out = append(out, s.ring[(s.start+i)%len(s.ring)].msg)
	}
	return out
}

// Recent returns up to n messages sorted newest first by timestamp.
func (s *MessageStore) Recent(n int) []models.Message {
	all := s.All()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// CountSince counts messages with a timestamp at or after since.
func (s *MessageStore) CountSince(since time.Time) int {
	return s.countBackward(since, func(storedMessage) bool { return true })
}

// CountLocationSince counts messages mentioning location with a timestamp at
// or after since.
func (s *MessageStore) CountLocationSince(location string, since time.Time) int {
	return s.countBackward(since, func(e storedMessage) bool { return e.location == location })
}

// countBackward walks from the newest entry and stops at the first one older
// than since. Entries are appended in ingestion order, so older entries
// cannot fall back inside the window.
func (s *MessageStore) countBackward(since time.Time, match func(storedMessage) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := s.size - 1; i >= 0; i-- {
		e := s.ring[(s.start+i)%len(s.ring)]
		if e.msg.Timestamp.Before(since) {
			break
		}
		if match(e) {
			count++
		}
	}
	return count
}
