package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetPut(t *testing.T) {
	s := NewStore(5 * time.Minute)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Put("k", "v")
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	s := NewStore(5 * time.Minute)
	s.SetClock(func() time.Time { return now })

	s.Put("k", 42)

	// Just inside the window
	now = now.Add(5*time.Minute - time.Second)
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	// At the boundary the entry is expired
	now = now.Add(time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok)

	// Expired entries linger until purged
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Purge())
	assert.Equal(t, 0, s.Len())
}

func TestStore_PutResetsLifetime(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	s := NewStore(time.Minute)
	s.SetClock(func() time.Time { return now })

	s.Put("k", 1)
	now = now.Add(50 * time.Second)
	s.Put("k", 2)
	now = now.Add(50 * time.Second)

	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestStartJanitor_BadSchedule(t *testing.T) {
	_, err := StartJanitor("not a cron spec", nil, NewStore(time.Minute))
	assert.Error(t, err)
}

func TestStartJanitor_Sweeps(t *testing.T) {
	s := NewStore(time.Nanosecond)
	s.Put("k", 1)

	c, err := StartJanitor("@every 1s", nil, s)
	assert.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, 3*time.Second, 50*time.Millisecond)
}
