package graph

import (
	"github.com/rs/zerolog"
)

// Mirror is the thread-confined, event-sourced shadow of the audio server's
// graph (§4.1). Apply is its only mutator; it must only ever be called from
// the server-worker goroutine that owns it. Every other subsystem reads
// through the query methods below, which return defensive copies so callers
// never observe a Mirror mutating mid-iteration.
type Mirror struct {
	nodes map[NodeID]*Node
	ports map[PortID]*Port
	links map[LinkID]*Link

	// orphans holds ports whose parent node has not yet been observed,
	// keyed by the node id they are waiting on (invariant (i): resolved on
	// the matching NodeAdded).
	orphans map[NodeID][]*Port

	// layoutKeys tracks the first node to claim a given layout key, so that
	// a second live node with an equal key gets the server-id suffix
	// (§4.1, §9 open question (b)).
	layoutKeys map[string]NodeID

	version uint64
	log     zerolog.Logger
}

// New creates an empty Mirror.
func New(log zerolog.Logger) *Mirror {
	return &Mirror{
		nodes:      make(map[NodeID]*Node),
		ports:      make(map[PortID]*Port),
		links:      make(map[LinkID]*Link),
		orphans:    make(map[NodeID][]*Port),
		layoutKeys: make(map[string]NodeID),
		log:        log.With().Str("component", "graph-mirror").Logger(),
	}
}

// Version returns the current graph version. It increments on every applied
// mutation; the UI diffs by version to decide whether to re-query (§4.1).
func (m *Mirror) Version() uint64 {
	return m.version
}

// Apply is the graph mirror's sole mutator. A malformed event (one that
// would violate an invariant) is logged and ignored rather than applied
// partially. Returns true if the event produced an observable change.
func (m *Mirror) Apply(ev ServerEvent) bool {
	switch e := ev.(type) {
	case NodeAdded:
		return m.applyNodeAdded(e)
	case NodeRemoved:
		return m.applyNodeRemoved(e)
	case NodeInfo:
		return m.applyNodeInfo(e)
	case PortAdded:
		return m.applyPortAdded(e)
	case PortRemoved:
		return m.applyPortRemoved(e)
	case LinkAdded:
		return m.applyLinkAdded(e)
	case LinkRemoved:
		return m.applyLinkRemoved(e)
	case LinkActiveChanged:
		return m.applyLinkActiveChanged(e)
	default:
		m.log.Warn().Msg("ignoring unrecognized server event type")
		return false
	}
}

func (m *Mirror) bump() {
	m.version++
}

func (m *Mirror) applyNodeAdded(e NodeAdded) bool {
	if _, exists := m.nodes[e.ID]; exists {
		m.log.Warn().Str("node_id", string(e.ID)).Msg("duplicate NodeAdded ignored")
		return false
	}

	key := m.claimLayoutKey(LayoutKey(e.Props), e.ID)
	n := &Node{
		ID:        e.ID,
		Name:      e.Name,
		LayoutKey: key,
		Class:     Classify(e.Props),
		Media:     DeriveMediaType(e.Props.MediaClass),
		Virtual:   e.Props.Virtual,
		PluginURI: e.Props.PluginURI,
		ports:     make(map[PortID]*Port),
	}
	m.nodes[e.ID] = n

	if pending := m.orphans[e.ID]; len(pending) > 0 {
		for _, p := range pending {
			n.ports[p.ID] = p
			m.ports[p.ID] = p
		}
		delete(m.orphans, e.ID)
	}

	m.bump()
	return true
}

// claimLayoutKey returns the key to use for id, appending a server-id suffix
// if another live node already claimed the bare key (§4.1, §9(b)).
func (m *Mirror) claimLayoutKey(bare string, id NodeID) string {
	if owner, taken := m.layoutKeys[bare]; !taken || owner == id {
		m.layoutKeys[bare] = id
		return bare
	}
	suffixed := bare + "#" + string(id)
	m.layoutKeys[suffixed] = id
	return suffixed
}

func (m *Mirror) applyNodeRemoved(e NodeRemoved) bool {
	n, ok := m.nodes[e.ID]
	if !ok {
		return false
	}
	for portID := range n.ports {
		m.removePortAndLinks(portID)
	}
	delete(m.orphans, e.ID)
	if owner, ok := m.layoutKeys[n.LayoutKey]; ok && owner == e.ID {
		delete(m.layoutKeys, n.LayoutKey)
	}
	delete(m.nodes, e.ID)
	m.bump()
	return true
}

func (m *Mirror) applyNodeInfo(e NodeInfo) bool {
	n, ok := m.nodes[e.ID]
	if !ok {
		m.log.Debug().Str("node_id", string(e.ID)).Msg("NodeInfo for unknown node ignored")
		return false
	}
	n.Name = e.Name
	n.Class = Classify(e.Props)
	n.Media = DeriveMediaType(e.Props.MediaClass)
	n.Virtual = e.Props.Virtual
	n.PluginURI = e.Props.PluginURI
	m.bump()
	return true
}

func (m *Mirror) applyPortAdded(e PortAdded) bool {
	if _, exists := m.ports[e.ID]; exists {
		m.log.Warn().Str("port_id", string(e.ID)).Msg("duplicate PortAdded ignored")
		return false
	}
	p := &Port{ID: e.ID, Name: e.Name, Dir: e.Dir, Media: e.Media, NodeID: e.NodeID}

	n, ok := m.nodes[e.NodeID]
	if !ok {
		// Invariant (i): buffer until the parent node arrives.
		m.orphans[e.NodeID] = append(m.orphans[e.NodeID], p)
		return false
	}
	n.ports[p.ID] = p
	m.ports[p.ID] = p
	m.bump()
	return true
}

func (m *Mirror) applyPortRemoved(e PortRemoved) bool {
	if _, ok := m.ports[e.ID]; !ok {
		return m.removeOrphanPort(e.ID)
	}
	m.removePortAndLinks(e.ID)
	m.bump()
	return true
}

func (m *Mirror) removeOrphanPort(id PortID) bool {
	for nodeID, pending := range m.orphans {
		for i, p := range pending {
			if p.ID == id {
				m.orphans[nodeID] = append(pending[:i], pending[i+1:]...)
				return true
			}
		}
	}
	return false
}

// removePortAndLinks deletes a port from its parent node and the global
// index, along with any link that referenced it (invariant (ii)).
func (m *Mirror) removePortAndLinks(id PortID) {
	p, ok := m.ports[id]
	if !ok {
		return
	}
	if n, ok := m.nodes[p.NodeID]; ok {
		delete(n.ports, id)
	}
	delete(m.ports, id)

	for linkID, l := range m.links {
		if l.OutPort == id || l.InPort == id {
			delete(m.links, linkID)
		}
	}
}

func (m *Mirror) applyLinkAdded(e LinkAdded) bool {
	if _, exists := m.links[e.ID]; exists {
		return false
	}
	out, ok := m.ports[e.OutPort]
	if !ok {
		m.log.Warn().Str("link_id", string(e.ID)).Msg("LinkAdded references unknown output port; ignored")
		return false
	}
	in, ok := m.ports[e.InPort]
	if !ok {
		m.log.Warn().Str("link_id", string(e.ID)).Msg("LinkAdded references unknown input port; ignored")
		return false
	}
	if out.Dir != DirOutput || in.Dir != DirInput {
		m.log.Warn().Str("link_id", string(e.ID)).Msg("LinkAdded with mismatched port directions; ignored")
		return false
	}
	if out.NodeID == in.NodeID {
		m.log.Warn().Str("link_id", string(e.ID)).Msg("LinkAdded is a self-node loop; ignored")
		return false
	}
	m.links[e.ID] = &Link{ID: e.ID, OutPort: e.OutPort, InPort: e.InPort, Active: e.Active}
	m.bump()
	return true
}

func (m *Mirror) applyLinkRemoved(e LinkRemoved) bool {
	if _, ok := m.links[e.ID]; !ok {
		return false
	}
	delete(m.links, e.ID)
	m.bump()
	return true
}

func (m *Mirror) applyLinkActiveChanged(e LinkActiveChanged) bool {
	l, ok := m.links[e.ID]
	if !ok {
		return false
	}
	if l.Active == e.Active {
		return false
	}
	l.Active = e.Active
	m.bump()
	return true
}

// Reset clears the mirror back to empty, as required on server disconnect
// (§4.1). Callers are responsible for posting the single "graph reset"
// event this produces.
func (m *Mirror) Reset() {
	m.nodes = make(map[NodeID]*Node)
	m.ports = make(map[PortID]*Port)
	m.links = make(map[LinkID]*Link)
	m.orphans = make(map[NodeID][]*Port)
	m.layoutKeys = make(map[string]NodeID)
	m.bump()
}

// Nodes returns a snapshot slice of all live nodes.
func (m *Mirror) Nodes() []*Node {
	out := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out
}

// Node looks up a node by id.
func (m *Mirror) Node(id NodeID) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// NodeByLayoutKey finds the live node currently holding a layout key.
func (m *Mirror) NodeByLayoutKey(key string) (*Node, bool) {
	id, ok := m.layoutKeys[key]
	if !ok {
		return nil, false
	}
	n, ok := m.nodes[id]
	return n, ok
}

// Port looks up a port by id.
func (m *Mirror) Port(id PortID) (*Port, bool) {
	p, ok := m.ports[id]
	return p, ok
}

// Links returns a snapshot slice of all live links.
func (m *Mirror) Links() []*Link {
	out := make([]*Link, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	return out
}

// LinkBetween reports whether a link already connects the given ports,
// identified by (output_port_id, input_port_id) per §4.4's idempotence rule.
func (m *Mirror) LinkBetween(out, in PortID) (*Link, bool) {
	for _, l := range m.links {
		if l.OutPort == out && l.InPort == in {
			return l, true
		}
	}
	return nil, false
}
