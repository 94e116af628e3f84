// Package rules implements the rule engine (C4): learning, unlearning, and
// re-applying auto-connect rules between patched nodes (§4.4).
package rules

import "github.com/patchmind/patchmind/internal/graph"

// PortPairing is an explicit output-port-name to input-port-name mapping
// within a Rule. When a Rule has no explicit mappings, the engine falls
// back to the channel-pairing heuristic in heuristic.go.
type PortPairing struct {
	OutPortName string
	InPortName  string
}

// Rule captures the intent "connect ports on nodes matching Source to ports
// on nodes matching Target" (§4.4).
type Rule struct {
	ID            string
	Name          string
	SourcePattern string
	SourceClass   graph.Classification // ClassAny to match any classification
	TargetPattern string
	TargetClass   graph.Classification
	Mappings      []PortPairing
	Enabled       bool
}

// matchesNode reports whether a node's name and classification satisfy a
// (pattern, class) pair, per §4.4's matching rule.
func matchesNode(n *graph.Node, pattern string, class graph.Classification) bool {
	if class != graph.ClassAny && n.Class != class {
		return false
	}
	return globMatch(pattern, n.Name)
}

// MatchesSource reports whether n satisfies this rule's source criteria.
func (r Rule) MatchesSource(n *graph.Node) bool {
	return matchesNode(n, r.SourcePattern, r.SourceClass)
}

// MatchesTarget reports whether n satisfies this rule's target criteria.
func (r Rule) MatchesTarget(n *graph.Node) bool {
	return matchesNode(n, r.TargetPattern, r.TargetClass)
}
