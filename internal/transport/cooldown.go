package transport

import (
	"time"

	"golang.org/x/time/rate"
)

// HeavyOp identifies a command kind subject to the inter-operation cooldown
// (§5: a minimum gap between heavy plugin operations, configurable via
// pw_operation_cooldown_ms). Port connect/disconnect are deliberately not
// HeavyOp values — §5 exempts them so patching stays snappy even while a
// plugin add/remove is cooling down.
type HeavyOp int

const (
	HeavyOpAddPlugin HeavyOp = iota
	HeavyOpRemovePlugin
	HeavyOpInsertOnLink
)

// CooldownLimiter enforces a minimum spacing between heavy plugin
// operations. It wraps a single token-bucket limiter (burst of 1) rather
// than one per operation kind, since §5 describes one shared cooldown gap
// regardless of which heavy operation triggers it.
type CooldownLimiter struct {
	limiter *rate.Limiter
}

// NewCooldownLimiter creates a limiter allowing one heavy operation per
// cooldown interval.
func NewCooldownLimiter(cooldown time.Duration) *CooldownLimiter {
	if cooldown <= 0 {
		cooldown = time.Millisecond
	}
	return &CooldownLimiter{limiter: rate.NewLimiter(rate.Every(cooldown), 1)}
}

// Allow reports whether op may proceed now. Non-heavy commands should
// never be checked against this at all; callers gate only the commands
// listed as HeavyOp.
func (c *CooldownLimiter) Allow(op HeavyOp) bool {
	return c.limiter.Allow()
}

// SetCooldown updates the spacing, e.g. on a live preference change
// (pw_operation_cooldown_ms, §6).
func (c *CooldownLimiter) SetCooldown(cooldown time.Duration) {
	if cooldown <= 0 {
		cooldown = time.Millisecond
	}
	c.limiter.SetLimit(rate.Every(cooldown))
}
