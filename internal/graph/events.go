package graph

// ServerEvent is the only input the mirror accepts; Mirror.Apply is the only
// mutator (§4.1). Each concrete type below corresponds to one registry
// notification from the audio server's event pump.
type ServerEvent interface {
	isServerEvent()
}

// NodeAdded announces a new Node. Props carries the raw server properties
// (application name, node purpose, media class) that classification and the
// layout key are derived from.
type NodeAdded struct {
	ID    NodeID
	Name  string
	Props NodeProps
}

// NodeProps are the server-reported properties used to classify a node and
// derive its layout key. Field names mirror the audio server's own property
// keys so NodeInfo updates can be applied without re-deriving from scratch.
type NodeProps struct {
	ApplicationName string
	NodePurpose     string
	MediaClass      string // e.g. "Audio/Sink", "Audio/Source", "Audio/Duplex", "Stream/Output/Audio"
	IsPluginFilter  bool
	PluginURI       string
	Virtual         bool
}

// NodeRemoved announces a Node's destruction. All of its Ports and incident
// Links are removed along with it.
type NodeRemoved struct {
	ID NodeID
}

// NodeInfo announces a name/props update for an already-known node.
type NodeInfo struct {
	ID    NodeID
	Name  string
	Props NodeProps
}

// PortAdded announces a new Port. If NodeID is not yet known, the port is
// buffered as an orphan and resolved when the matching NodeAdded arrives.
type PortAdded struct {
	ID     PortID
	NodeID NodeID
	Name   string
	Dir    Direction
	Media  MediaType
}

// PortRemoved announces a Port's destruction.
type PortRemoved struct {
	ID PortID
}

// LinkAdded announces a new Link between two existing Ports.
type LinkAdded struct {
	ID      LinkID
	OutPort PortID
	InPort  PortID
	Active  bool
}

// LinkRemoved announces a Link's destruction.
type LinkRemoved struct {
	ID LinkID
}

// LinkActiveChanged announces a change in a Link's active flag (the server
// may report a link as provisionally inactive before the graph settles).
type LinkActiveChanged struct {
	ID     LinkID
	Active bool
}

func (NodeAdded) isServerEvent()         {}
func (NodeRemoved) isServerEvent()       {}
func (NodeInfo) isServerEvent()          {}
func (PortAdded) isServerEvent()         {}
func (PortRemoved) isServerEvent()       {}
func (LinkAdded) isServerEvent()         {}
func (LinkRemoved) isServerEvent()       {}
func (LinkActiveChanged) isServerEvent() {}
