package persistence

import "github.com/patchmind/patchmind/internal/graph"

// ResolvedLink is a persisted LinkRecord whose endpoints have been found in
// the live graph, ready to be connected.
type ResolvedLink struct {
	OutPort graph.PortID
	InPort  graph.PortID
}

// LinkResolver re-attempts persisted links against the graph mirror as it
// fills in on restore (§4.6: "plugin<->plugin links are reattempted once
// Nodes and Ports have been observed from the server. Links whose endpoints
// cannot be resolved within a bounded window are deferred until those Nodes
// appear").
type LinkResolver struct {
	pending []LinkRecord
}

// NewLinkResolver seeds a resolver with every persisted link record.
func NewLinkResolver(records []LinkRecord) *LinkResolver {
	return &LinkResolver{pending: append([]LinkRecord(nil), records...)}
}

// Pending reports how many link records are still waiting on their nodes.
func (r *LinkResolver) Pending() int {
	return len(r.pending)
}

// Resolve attempts every still-pending link record against mirror, returning
// the ones that resolved this pass. Records that did not resolve remain
// pending for the next call (the caller re-invokes this on every
// GraphChanged while Pending is non-zero; no attempt limit is applied).
func (r *LinkResolver) Resolve(mirror *graph.Mirror) []ResolvedLink {
	var resolved []ResolvedLink
	var stillPending []LinkRecord

	for _, rec := range r.pending {
		out, in, ok := resolveEndpoints(mirror, rec)
		if !ok {
			stillPending = append(stillPending, rec)
			continue
		}
		resolved = append(resolved, ResolvedLink{OutPort: out, InPort: in})
	}

	r.pending = stillPending
	return resolved
}

func resolveEndpoints(mirror *graph.Mirror, rec LinkRecord) (out, in graph.PortID, ok bool) {
	srcNode, ok := mirror.NodeByLayoutKey(rec.SourceLayoutKey)
	if !ok {
		return "", "", false
	}
	dstNode, ok := mirror.NodeByLayoutKey(rec.TargetLayoutKey)
	if !ok {
		return "", "", false
	}
	outPort := findPort(srcNode, graph.DirOutput, rec.SourcePort)
	if outPort == nil {
		return "", "", false
	}
	inPort := findPort(dstNode, graph.DirInput, rec.TargetPort)
	if inPort == nil {
		return "", "", false
	}
	return outPort.ID, inPort.ID, true
}

func findPort(n *graph.Node, dir graph.Direction, name string) *graph.Port {
	for _, p := range n.Ports() {
		if p.Dir == dir && p.Name == name {
			return p
		}
	}
	return nil
}
