package persistence

import "github.com/patchmind/patchmind/internal/rtplugin"

// PluginRecord is one persisted Plugin Instance (§4.6's "plugins" document):
// stable id, uri, display name, bypass, and parameter table.
type PluginRecord struct {
	StableID    rtplugin.InstanceID `json:"stable_id"`
	URI         string              `json:"uri"`
	DisplayName string              `json:"display_name"`
	Bypass      bool                `json:"bypass"`
	Params      map[int]float32     `json:"params"`
}

// LinkRecord is one persisted link, keyed by layout keys and port names
// rather than the server's transient node/port ids (§4.6: "restart-stable"
// keys, re-resolved against the new graph on restore).
type LinkRecord struct {
	SourceLayoutKey string `json:"source_layout_key"`
	SourcePort      string `json:"source_port"`
	TargetLayoutKey string `json:"target_layout_key"`
	TargetPort      string `json:"target_port"`
}

// LayoutEntry is one node's canvas position.
type LayoutEntry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the canvas pan/zoom state.
type Viewport struct {
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
	Zoom float64 `json:"zoom"`
}

// WindowGeometry is the main window's saved position and size.
type WindowGeometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}
