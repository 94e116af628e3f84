package config

import "strings"

// envKeyMap turns an environment variable like PATCHMIND_RULE_SETTLE_MS
// into the koanf key rule_settle_ms, matching the struct tags above.
func envKeyMap(s string) string {
	s = strings.TrimPrefix(s, "PATCHMIND_")
	return strings.ToLower(s)
}
