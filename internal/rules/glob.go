package rules

import "github.com/bmatcuk/doublestar/v4"

// globMatch matches a node name against a rule's source/target pattern.
// Patterns use `*` and `?` (§4.4); doublestar's Match implements both plus
// `**`, which this engine simply never exercises since node names have no
// path-segment structure to span.
func globMatch(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
