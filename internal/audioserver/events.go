package audioserver

import (
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/transport"
)

// handleServerEvent applies one audio-server registry notification to the
// mirror and runs whatever follow-up bookkeeping that event type needs
// (rule learn/unlearn, plugin-node binding) before announcing the result.
func (w *Worker) handleServerEvent(ev graph.ServerEvent) {
	switch e := ev.(type) {
	case graph.NodeAdded:
		changed := w.mirror.Apply(ev)
		if e.Props.IsPluginFilter && e.Props.PluginURI != "" {
			w.bindPluginNode(e.Props.PluginURI, e.ID)
		}
		w.afterMirrorEvent(changed)

	case graph.NodeRemoved:
		changed := w.mirror.Apply(ev)
		for inst, node := range w.pluginNodes {
			if node == e.ID {
				delete(w.pluginNodes, inst)
			}
		}
		w.afterMirrorEvent(changed)

	case graph.LinkAdded:
		changed := w.mirror.Apply(ev)
		if _, err := w.engine.OnLinkObserved(e.OutPort, e.InPort); err != nil {
			w.log.Warn().Err(err).Msg("rule learn failed")
		}
		w.afterMirrorEvent(changed)

	case graph.LinkRemoved:
		outPort, inPort, found := w.linkEndpoints(e.ID)
		changed := w.mirror.Apply(ev)
		if found {
			if err := w.engine.OnLinkRemoved(outPort, inPort); err != nil {
				w.log.Warn().Err(err).Msg("rule unlearn failed")
			}
		}
		w.afterMirrorEvent(changed)

	default:
		w.afterMirrorEvent(w.mirror.Apply(ev))
	}
}

// afterMirrorEvent resets the settle detector on every server event
// (§4.4: "Reset on every server event") and, if the event actually changed
// the mirror, announces the new version. The transaction has nothing to
// post beyond GraphChanged here: §4.3's server-worker -> UI event list
// carries no per-Node/Port/Link events, only the version bump the UI
// re-queries against.
func (w *Worker) afterMirrorEvent(changed bool) {
	w.settle.Touch()
	if !changed {
		return
	}
	w.ResolvePendingLinks()
	transport.NewGraphTransaction(w.mirror.Version()).Commit(w.events)
}

// handleSettle runs the rule engine's apply pass once the settle detector
// fires (§4.4), requesting the audio server create whatever links the
// enabled rules demand. These are best-effort requests: a request that
// fails because an endpoint disappeared in between is a transient error
// (§7) the engine will simply replan on the next settle.
func (w *Worker) handleSettle() {
	if !w.patchbayEnabled {
		return
	}
	w.applyRules()
}

func (w *Worker) applyRules() {
	for _, pl := range w.engine.Apply() {
		if err := w.conn.ConnectPorts(pl.OutPort, pl.InPort); err != nil {
			w.log.Debug().Err(err).Str("out", string(pl.OutPort)).Str("in", string(pl.InPort)).
				Msg("rule apply: connect request failed, will retry on next settle")
		}
	}
}

// linkEndpoints finds the output/input ports of a still-live link by id,
// used by LinkRemoved handling before the mirror discards the link.
func (w *Worker) linkEndpoints(id graph.LinkID) (out, in graph.PortID, found bool) {
	for _, l := range w.mirror.Links() {
		if l.ID == id {
			return l.OutPort, l.InPort, true
		}
	}
	return "", "", false
}

// bindPluginNode completes the oldest pending AddPlugin waiting on uri,
// once the server announces the corresponding plugin-filter Node.
func (w *Worker) bindPluginNode(uri string, node graph.NodeID) {
	for i, p := range w.pendingBind {
		if p.uri == uri {
			w.pluginNodes[p.instance] = node
			w.pendingBind = append(w.pendingBind[:i], w.pendingBind[i+1:]...)
			return
		}
	}
}
