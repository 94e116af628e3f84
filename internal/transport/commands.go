// Package transport implements the command/event transport (C3): the typed
// message channels connecting the UI thread, the server-worker thread, and
// the plugin-UI-host thread (§4.3). Every channel here is bounded and
// non-blocking from the sender's side; a full channel surfaces as a
// dropped optimistic edit rather than a stalled UI.
package transport

import (
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/rtplugin"
)

// Command is a UI -> server-worker message (§4.3's UI -> server worker
// list). The server worker processes commands strictly in arrival order.
type Command interface {
	isCommand()
}

type ConnectPorts struct {
	OutPort graph.PortID
	InPort  graph.PortID
}

type DisconnectLink struct {
	LinkID graph.LinkID
}

type AddPlugin struct {
	URI      string
	Position int
}

type RemovePlugin struct {
	InstanceID rtplugin.InstanceID
}

type SetParameter struct {
	InstanceID rtplugin.InstanceID
	PortIndex  int
	Value      float32
}

type SetBypass struct {
	InstanceID rtplugin.InstanceID
	Bypass     bool
}

type RenamePlugin struct {
	InstanceID rtplugin.InstanceID
	Name       string
}

// OpenPluginUi carries a monotonic RequestID (§4.3's cancellation
// semantics): a later OpenPluginUi for the same instance supersedes an
// earlier, still in-flight one.
type OpenPluginUi struct {
	InstanceID rtplugin.InstanceID
	RequestID  uint64
}

type InsertOnLink struct {
	LinkID     graph.LinkID
	InstanceID rtplugin.InstanceID
}

type ToggleRule struct {
	RuleID string
}

// AddRule specifies a rule to create. Mappings is optional; when empty the
// rule engine falls back to its channel-pairing heuristic (§4.4). Fields
// mirror internal/rules.Rule directly rather than importing that package.
type AddRule struct {
	Name          string
	SourcePattern string
	SourceClass   graph.Classification
	TargetPattern string
	TargetClass   graph.Classification
	Mappings      []PortPairing
}

// PortPairing is an explicit output-port-name to input-port-name mapping.
type PortPairing struct {
	OutPortName string
	InPortName  string
}

type RemoveRule struct {
	RuleID string
}

type SnapshotRules struct{}

type ApplyRulesNow struct{}

type SetPatchbayEnabled struct {
	Enabled bool
}

// SetDefaultNode names (or clears, when LayoutKey is empty) the preferred
// default sink/source by its restart-stable layout key. The server worker
// accepts it but neither stores it nor changes any routing.
type SetDefaultNode struct {
	LayoutKey string
}

type Shutdown struct{}

func (ConnectPorts) isCommand()       {}
func (DisconnectLink) isCommand()     {}
func (AddPlugin) isCommand()          {}
func (RemovePlugin) isCommand()       {}
func (SetParameter) isCommand()       {}
func (SetBypass) isCommand()          {}
func (RenamePlugin) isCommand()       {}
func (OpenPluginUi) isCommand()       {}
func (InsertOnLink) isCommand()       {}
func (ToggleRule) isCommand()         {}
func (AddRule) isCommand()            {}
func (RemoveRule) isCommand()         {}
func (SnapshotRules) isCommand()      {}
func (ApplyRulesNow) isCommand()      {}
func (SetPatchbayEnabled) isCommand() {}
func (SetDefaultNode) isCommand()     {}
func (Shutdown) isCommand()           {}
