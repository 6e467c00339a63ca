package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypingThrottle(t *testing.T) {
	assert.False(t, throttleTyping("throttle-user"), "first signal goes through")
	assert.True(t, throttleTyping("throttle-user"), "immediate repeat is throttled")
	assert.False(t, throttleTyping("throttle-other"), "per-user, not global")
}

func TestTypingThrottleSweep(t *testing.T) {
	lastTypingMu.Lock()
	lastTypingEmit["sweep-stale"] = time.Now().Add(-2 * typingThrottleDuration)
	lastTypingEmit["sweep-fresh"] = time.Now()
	lastTypingMu.Unlock()

	sweepTypingThrottle()

	lastTypingMu.Lock()
	defer lastTypingMu.Unlock()
	_, stale := lastTypingEmit["sweep-stale"]
	_, fresh := lastTypingEmit["sweep-fresh"]
	assert.False(t, stale, "expired entries are pruned")
	assert.True(t, fresh, "live entries survive the sweep")
}
