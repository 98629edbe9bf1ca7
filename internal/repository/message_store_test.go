package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evs-comms/backend/pkg/models"
)

// firstWordLocator treats the first word of the content as its location.
func firstWordLocator(content string) string {
	if f := strings.Fields(content); len(f) > 0 {
		return f[0]
	}
	return models.LocationNotSpecified
}

func msgAt(id, content string, ts time.Time) models.Message {
	return models.Message{ID: id, Content: content, Timestamp: ts, Type: models.MessageTypeUser}
}

func TestMessageStore_AppendGetAndEvict(t *testing.T) {
	s := NewMessageStore(3, firstWordLocator)
	base := time.Now()

	for i := 0; i < 5; i++ {
		s.Append(msgAt(fmt.Sprintf("m%d", i), "lobby", base.Add(time.Duration(i)*time.Second)))
	}

	assert.Equal(t, 3, s.Len())
	_, ok := s.Get("m0")
	assert.False(t, ok, "oldest messages are evicted")
	_, ok = s.Get("m1")
	assert.False(t, ok)

	got, ok := s.Get("m4")
	require.True(t, ok)
	assert.Equal(t, "m4", got.ID)

	var ids []string
	for _, m := range s.All() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m2", "m3", "m4"}, ids)
}

func TestMessageStore_RecentNewestFirst(t *testing.T) {
	s := NewMessageStore(10, firstWordLocator)
	base := time.Now()
	s.Append(msgAt("a", "x", base.Add(-2*time.Minute)))
	s.Append(msgAt("b", "x", base))
	s.Append(msgAt("c", "x", base.Add(-time.Minute)))

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)

	assert.Len(t, s.Recent(50), 3)
}

func TestMessageStore_Update(t *testing.T) {
	s := NewMessageStore(2, firstWordLocator)
	m := msgAt("a", "lobby", time.Now())
	s.Append(m)

	m.Suggestions = []string{"Create work order"}
	assert.True(t, s.Update(m))
	got, _ := s.Get("a")
	assert.Equal(t, []string{"Create work order"}, got.Suggestions)

	assert.False(t, s.Update(msgAt("missing", "", time.Now())))
}

func TestMessageStore_WindowCounts(t *testing.T) {
	s := NewMessageStore(10, firstWordLocator)
	now := time.Now()
	s.Append(msgAt("old", "Room-204 leak", now.Add(-45*time.Minute)))
	s.Append(msgAt("a", "Room-204 leak", now.Add(-20*time.Minute)))
	s.Append(msgAt("b", "lobby spill", now.Add(-10*time.Minute)))
	s.Append(msgAt("c", "Room-204 again", now))

	since := now.Add(-30 * time.Minute)
	assert.Equal(t, 3, s.CountSince(since))
	assert.Equal(t, 2, s.CountLocationSince("Room-204", since))
	assert.Equal(t, 1, s.CountLocationSince("lobby", since))
	assert.Equal(t, 0, s.CountLocationSince("cafeteria", since))
	assert.Equal(t, 4, s.CountSince(now.Add(-time.Hour)))
}

func TestMessageStore_DefaultCapacity(t *testing.T) {
	s := NewMessageStore(0, firstWordLocator)
	assert.Len(t, s.ring, DefaultMessageCapacity)
}
