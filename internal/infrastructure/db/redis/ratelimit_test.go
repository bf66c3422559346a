package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitStore_KeyPerWindow(t *testing.T) {
	s := NewRateLimitStore(nil, 100, 15*time.Minute)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	k1 := s.key("10.0.0.1", start.Add(time.Minute))
	k2 := s.key("10.0.0.1", start.Add(14*time.Minute))
	k3 := s.key("10.0.0.1", start.Add(16*time.Minute))

	assert.Equal(t, k1, k2, "same window must share a counter")
	assert.NotEqual(t, k1, k3, "next window starts a fresh counter")
	assert.Equal(t, "ratelimit:10.0.0.1:1777629600", k1)
	assert.NotEqual(t, k1, s.key("10.0.0.2", start.Add(time.Minute)))
}
