package transport

import (
	"testing"
	"time"
)

func TestCooldownLimiterSpacesHeavyOps(t *testing.T) {
	c := NewCooldownLimiter(50 * time.Millisecond)
	if !c.Allow(HeavyOpAddPlugin) {
		t.Fatal("first heavy op should be allowed immediately")
	}
	if c.Allow(HeavyOpRemovePlugin) {
		t.Fatal("a second heavy op within the cooldown window must be rejected")
	}
}
