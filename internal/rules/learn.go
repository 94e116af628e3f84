package rules

import "github.com/patchmind/patchmind/internal/graph"

// wasEmitted reports whether (out, in) is a port pair this engine itself
// created during its most recent apply pass.
func (e *Engine) wasEmitted(out, in graph.PortID) bool {
	_, ok := e.emitted[portPairKey{Out: out, In: in}]
	return ok
}

// OnLinkObserved is called by the server worker after the graph mirror has
// applied a LinkAdded event. A link the engine did not itself just create
// is user-authored and triggers §4.4's learn behavior: if an existing rule
// already matches the link's node pair, the new port pair is folded into
// that rule's explicit mapping list; otherwise a new single-mapping rule is
// created, named after the two nodes.
//
// Returns the rule that was created or updated, or nil if learning is
// disabled or the link was engine-authored.
func (e *Engine) OnLinkObserved(outPort, inPort graph.PortID) (*Rule, error) {
	if !e.enabled || e.wasEmitted(outPort, inPort) {
		return nil, nil
	}

	out, ok := e.mirror.Port(outPort)
	if !ok {
		return nil, nil
	}
	in, ok := e.mirror.Port(inPort)
	if !ok {
		return nil, nil
	}
	srcNode, ok := e.mirror.Node(out.NodeID)
	if !ok {
		return nil, nil
	}
	dstNode, ok := e.mirror.Node(in.NodeID)
	if !ok {
		return nil, nil
	}

	mapping := PortPairing{OutPortName: out.Name, InPortName: in.Name}

	if idx := e.indexMatchingNodePair(srcNode, dstNode); idx >= 0 {
		e.rules[idx].Mappings = append(e.rules[idx].Mappings, mapping)
		if err := e.backups.SaveWithBackup(e.rules); err != nil {
			return nil, err
		}
		return &e.rules[idx], nil
	}

	r, err := e.AddRule(Rule{
		Name:          srcNode.Name + " -> " + dstNode.Name,
		SourcePattern: srcNode.Name,
		SourceClass:   graph.ClassAny,
		TargetPattern: dstNode.Name,
		TargetClass:   graph.ClassAny,
		Mappings:      []PortPairing{mapping},
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// OnLinkRemoved is called by the server worker after the graph mirror has
// applied a LinkRemoved event for a port pair that was in the engine's
// emitted set (i.e. it was a rule-created link, and its removal is
// therefore a user-authored disconnect — §4.4's unlearn behavior). The
// matching mapping is removed from its owning rule; a rule left with no
// mappings is removed entirely.
func (e *Engine) OnLinkRemoved(outPort, inPort graph.PortID) error {
	if !e.enabled || !e.wasEmitted(outPort, inPort) {
		return nil
	}

	out, hasOut := e.mirror.Port(outPort)
	in, hasIn := e.mirror.Port(inPort)
	if !hasOut || !hasIn {
		return nil
	}

	for i := range e.rules {
		r := &e.rules[i]
		for j, m := range r.Mappings {
			if m.OutPortName != out.Name || m.InPortName != in.Name {
				continue
			}
			r.Mappings = append(r.Mappings[:j], r.Mappings[j+1:]...)
			if len(r.Mappings) == 0 {
				e.rules = append(e.rules[:i], e.rules[i+1:]...)
			}
			return e.backups.SaveWithBackup(e.rules)
		}
	}
	return nil
}

// indexMatchingNodePair finds a rule whose (source, target) pattern already
// matches this exact node pair and that has an explicit mapping list to
// extend, per §4.4's learn rule.
func (e *Engine) indexMatchingNodePair(src, dst *graph.Node) int {
	for i, r := range e.rules {
		if len(r.Mappings) == 0 {
			continue
		}
		if r.MatchesSource(src) && r.MatchesTarget(dst) {
			return i
		}
	}
	return -1
}
