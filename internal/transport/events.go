package transport

import "github.com/patchmind/patchmind/internal/rtplugin"

// Event is a server-worker -> UI message (§4.3's server worker -> UI list).
type Event interface {
	isEvent()
}

// GraphChanged announces that the graph mirror advanced to version.
// Ordering guarantee (§4.3): every Node/Port/Link event contributing to
// this transition has already been posted before GraphChanged is.
type GraphChanged struct {
	Version uint64
}

// Error surfaces a failure. RequestID, when non-zero, ties it back to the
// command that caused it (e.g. a superseded or failed OpenPluginUi).
type Error struct {
	Message   string
	RequestID uint64
}

type ShowWindow struct{}

type HideWindow struct{}

type Quit struct{}

// CpuSample reports aggregate and per-instance RT load, sourced from
// internal/rtplugin's TimingWriter accumulators by the metrics sampler.
type CpuSample struct {
	ProcessPct float64
	PerInstance []InstanceLoad
}

type InstanceLoad struct {
	InstanceID rtplugin.InstanceID
	AvgUs      float64
	Pct        float64
}

func (GraphChanged) isEvent() {}
func (Error) isEvent()        {}
func (ShowWindow) isEvent()   {}
func (HideWindow) isEvent()   {}
func (Quit) isEvent()         {}
func (CpuSample) isEvent()    {}

// HostCommand is a server-worker -> plugin-UI-host message (§4.3).
type HostCommand interface {
	isHostCommand()
}

type OpenPluginUiHost struct {
	InstanceID rtplugin.InstanceID
	RequestID  uint64
	Handle     rtplugin.PluginHandle
	Params     *rtplugin.ParamRing
}

type ClosePluginUiHost struct {
	InstanceID rtplugin.InstanceID
}

type ShutdownHost struct{}

func (OpenPluginUiHost) isHostCommand()  {}
func (ClosePluginUiHost) isHostCommand() {}
func (ShutdownHost) isHostCommand()      {}
