package audioserver

import (
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/persistence"
	"github.com/patchmind/patchmind/internal/rules"
	"github.com/patchmind/patchmind/internal/transport"
)

// handleCommand dispatches one UI-issued command. It returns true only for
// Shutdown, telling Serve's loop to stop.
func (w *Worker) handleCommand(cmd transport.Command) (stop bool) {
	switch c := cmd.(type) {
	case transport.ConnectPorts:
		w.handleConnectPorts(c)
	case transport.DisconnectLink:
		if err := w.conn.DisconnectLink(c.LinkID); err != nil {
			w.log.Debug().Err(err).Msg("disconnect request failed (transient)")
		}
	case transport.AddPlugin:
		w.handleAddPlugin(c)
	case transport.RemovePlugin:
		w.handleRemovePlugin(c)
	case transport.SetParameter:
		if inst, ok := w.arena.Get(c.InstanceID); ok {
			inst.Params.Push(c.PortIndex, c.Value)
		}
	case transport.SetBypass:
		if inst, ok := w.arena.Get(c.InstanceID); ok {
			inst.SetBypass(c.Bypass)
		}
	case transport.RenamePlugin:
		w.handleRenamePlugin(c)
	case transport.OpenPluginUi:
		w.handleOpenPluginUi(c)
	case transport.InsertOnLink:
		w.handleInsertOnLink(c)
	case transport.ToggleRule:
		if err := w.engine.ToggleRule(c.RuleID); err != nil {
			w.emitError(err.Error(), 0)
		}
	case transport.AddRule:
		w.handleAddRule(c)
	case transport.RemoveRule:
		if err := w.engine.RemoveRule(c.RuleID); err != nil {
			w.emitError(err.Error(), 0)
		}
	case transport.SnapshotRules:
		if err := w.engine.Snapshot(); err != nil {
			w.emitError(err.Error(), 0)
		}
	case transport.ApplyRulesNow:
		w.applyRules()
	case transport.SetPatchbayEnabled:
		w.patchbayEnabled = c.Enabled
	case transport.SetDefaultNode:
		// Accepted and ignored: the worker stores no default node and
		// changes no routing for this command.
	case transport.Shutdown:
		return true
	}
	return false
}

func (w *Worker) handleConnectPorts(c transport.ConnectPorts) {
	out, ok := w.mirror.Port(c.OutPort)
	if !ok || out.Dir != graph.DirOutput {
		w.emitError("connect: invalid output port", 0)
		return
	}
	in, ok := w.mirror.Port(c.InPort)
	if !ok || in.Dir != graph.DirInput {
		w.emitError("connect: invalid input port", 0)
		return
	}
	if out.NodeID == in.NodeID {
		w.emitError("connect: cannot link a node to itself", 0)
		return
	}
	if err := w.conn.ConnectPorts(c.OutPort, c.InPort); err != nil {
		w.log.Debug().Err(err).Msg("connect request failed (transient)")
	}
}

func (w *Worker) handleAddPlugin(c transport.AddPlugin) {
	if !w.cooldown.Allow(transport.HeavyOpAddPlugin) {
		w.emitError("plugin operations are rate-limited, try again shortly", 0)
		return
	}
	handle, err := w.loader.Instantiate(c.URI, w.budget)
	if err != nil {
		w.emitError("could not load plugin: "+err.Error(), 0)
		return
	}
	inst := w.arena.Add(handle, w.budget)
	w.pendingBind = append(w.pendingBind, pendingPluginBind{uri: c.URI, instance: inst.ID})

	params := make(map[int]float32, len(handle.Params()))
	for _, p := range handle.Params() {
		params[p.Index] = p.Default
	}
	records := append(w.store.Plugins.Get(), persistence.PluginRecord{
		StableID: inst.ID,
		URI:      c.URI,
		Params:   params,
	})
	w.store.Plugins.Set(records)
}

func (w *Worker) handleRemovePlugin(c transport.RemovePlugin) {
	if !w.cooldown.Allow(transport.HeavyOpRemovePlugin) {
		w.emitError("plugin operations are rate-limited, try again shortly", 0)
		return
	}
	inst, ok := w.arena.Remove(c.InstanceID)
	if !ok {
		return
	}
	if err := inst.Handle.Close(); err != nil {
		w.log.Warn().Err(err).Msg("plugin close failed")
	}
	delete(w.pluginNodes, c.InstanceID)

	records := w.store.Plugins.Get()
	for i, r := range records {
		if r.StableID == c.InstanceID {
			records = append(records[:i], records[i+1:]...)
			break
		}
	}
	w.store.Plugins.Set(records)
}

func (w *Worker) handleRenamePlugin(c transport.RenamePlugin) {
	records := w.store.Plugins.Get()
	for i := range records {
		if records[i].StableID == c.InstanceID {
			records[i].DisplayName = c.Name
			break
		}
	}
	w.store.Plugins.Set(records)
}

func (w *Worker) handleOpenPluginUi(c transport.OpenPluginUi) {
	inst, ok := w.arena.Get(c.InstanceID)
	if !ok {
		w.emitError("no such plugin instance", c.RequestID)
		return
	}
	w.requests.SetCurrent(c.InstanceID, c.RequestID)
	if !w.hostCmds.Send(transport.OpenPluginUiHost{
		InstanceID: c.InstanceID,
		RequestID:  c.RequestID,
		Handle:     inst.Handle,
		Params:     inst.Params,
	}) {
		w.emitError("plugin UI host is busy, try again", c.RequestID)
	}
}

// handleInsertOnLink splices a plugin instance into an existing link,
// connecting the link's source to the plugin's first matching input and
// the plugin's first matching output to the link's original target. Only
// a single-port-pair splice is attempted; multi-channel plugins are left
// to the user to wire the remaining ports by hand.
func (w *Worker) handleInsertOnLink(c transport.InsertOnLink) {
	if !w.cooldown.Allow(transport.HeavyOpInsertOnLink) {
		w.emitError("plugin operations are rate-limited, try again shortly", 0)
		return
	}
	nodeID, ok := w.pluginNodes[c.InstanceID]
	if !ok {
		w.emitError("plugin is not yet ready to be inserted", 0)
		return
	}
	node, ok := w.mirror.Node(nodeID)
	if !ok {
		w.emitError("plugin node no longer exists", 0)
		return
	}
	outPort, inPort, found := w.linkEndpoints(c.LinkID)
	if !found {
		w.emitError("link no longer exists", 0)
		return
	}
	pluginIn := firstPortByDir(node, graph.DirInput)
	pluginOut := firstPortByDir(node, graph.DirOutput)
	if pluginIn == nil || pluginOut == nil {
		w.emitError("plugin has no matching ports to insert", 0)
		return
	}
	if err := w.conn.DisconnectLink(c.LinkID); err != nil {
		w.log.Debug().Err(err).Msg("insert-on-link: disconnect failed (transient)")
		return
	}
	if err := w.conn.ConnectPorts(outPort, pluginIn.ID); err != nil {
		w.log.Debug().Err(err).Msg("insert-on-link: connect to plugin input failed (transient)")
	}
	if err := w.conn.ConnectPorts(pluginOut.ID, inPort); err != nil {
		w.log.Debug().Err(err).Msg("insert-on-link: connect from plugin output failed (transient)")
	}
}

func firstPortByDir(n *graph.Node, dir graph.Direction) *graph.Port {
	for _, p := range n.Ports() {
		if p.Dir == dir {
			return p
		}
	}
	return nil
}

func (w *Worker) handleAddRule(c transport.AddRule) {
	mappings := make([]rules.PortPairing, len(c.Mappings))
	for i, m := range c.Mappings {
		mappings[i] = rules.PortPairing{OutPortName: m.OutPortName, InPortName: m.InPortName}
	}
	if _, err := w.engine.AddRule(rules.Rule{
		Name:          c.Name,
		SourcePattern: c.SourcePattern,
		SourceClass:   c.SourceClass,
		TargetPattern: c.TargetPattern,
		TargetClass:   c.TargetClass,
		Mappings:      mappings,
	}); err != nil {
		w.emitError(err.Error(), 0)
	}
}
