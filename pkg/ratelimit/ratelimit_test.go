package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := NewLimiter(time.Minute, 2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.Equal(t, 0, l.Remaining("a"))

	assert.True(t, l.Allow("b"), "keys are independent")

	clock = clock.Add(61 * time.Second)
	assert.Equal(t, 2, l.Remaining("a"))
	assert.True(t, l.Allow("a"))

	_, tracked := l.limits["b"]
	assert.True(t, tracked)
	l.Remaining("b")
	_, tracked = l.limits["b"]
	assert.False(t, tracked, "expired keys are dropped")
}
