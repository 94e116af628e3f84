// Package pluginui implements the plugin UI host (C5): the single
// dedicated goroutine that owns every hosted plugin's native UI window
// (§4.5). The widget toolkits plugins bring are not thread-safe with
// respect to the server-worker thread, so every UI call is serialized
// through this one goroutine.
package pluginui

import (
	"context"
	"time"

	"github.com/patchmind/patchmind/internal/rtplugin"
	"github.com/patchmind/patchmind/internal/transport"
	"github.com/rs/zerolog"
)

// WindowHost is the boundary to a concrete widget toolkit binding (external
// to this module — §1's scope excludes vendoring a UI toolkit). An
// implementation creates and destroys top-level windows and pumps its own
// toolkit's event loop on demand.
type WindowHost interface {
	// OpenWindow creates (or returns, if already open) the top-level window
	// for instance, wiring writeback so parameter edits in the window feed
	// values into params.
	OpenWindow(instance rtplugin.InstanceID, handle rtplugin.PluginHandle, params *rtplugin.ParamRing) (Window, error)

	// PumpEvents runs one iteration of the toolkit's event loop so already
	// open windows stay responsive between requests.
	PumpEvents()
}

// Window is a single open plugin UI window.
type Window interface {
	// Raise brings an already-open window to the front.
	Raise()
	// Close destroys the window's per-window resources. The toolkit
	// binding itself stays alive (§4.5's robustness requirement).
	Close()
}

// Host is the long-lived worker goroutine described in §4.5.
type Host struct {
	toolkit WindowHost
	log     zerolog.Logger

	windows map[rtplugin.InstanceID]Window
}

// NewHost creates a Host bound to a concrete toolkit.
func NewHost(toolkit WindowHost, log zerolog.Logger) *Host {
	return &Host{
		toolkit: toolkit,
		log:     log.With().Str("component", "pluginui-host").Logger(),
		windows: make(map[rtplugin.InstanceID]Window),
	}
}

// Run processes commands from cmds until ctx is canceled, closing every open
// window before it returns. A ShutdownHost command closes every window but
// does not end Run. The toolkit's event loop runs between requests so
// already-open windows stay responsive (§4.5: "processes one request at a
// time but runs the shared UI event loop between requests").
// pumpInterval bounds how often the toolkit's event loop runs while idle,
// so already-open windows keep repainting without spinning this goroutine.
const pumpInterval = 16 * time.Millisecond

func (h *Host) Run(ctx context.Context, cmds <-chan transport.HostCommand) error {
	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case cmd := <-cmds:
			h.handle(cmd)
		case <-ticker.C:
			h.toolkit.PumpEvents()
		}
	}
}

func (h *Host) handle(cmd transport.HostCommand) {
	switch c := cmd.(type) {
	case transport.OpenPluginUiHost:
		h.open(c.InstanceID, c.Handle, c.Params)
	case transport.ClosePluginUiHost:
		h.close(c.InstanceID)
	case transport.ShutdownHost:
		h.closeAll()
	default:
		h.log.Warn().Msg("ignoring unrecognized host command")
	}
}

// open implements §4.5's robustness contract: raise an existing window
// rather than duplicating it; after a close, a fresh window is created
// rather than reusing torn-down per-window state.
func (h *Host) open(instance rtplugin.InstanceID, handle rtplugin.PluginHandle, params *rtplugin.ParamRing) {
	if w, ok := h.windows[instance]; ok {
		w.Raise()
		return
	}
	w, err := h.toolkit.OpenWindow(instance, handle, params)
	if err != nil {
		h.log.Error().Err(err).Str("instance", instance.String()).Msg("failed to open plugin UI window")
		return
	}
	h.windows[instance] = w
}

func (h *Host) close(instance rtplugin.InstanceID) {
	w, ok := h.windows[instance]
	if !ok {
		return
	}
	w.Close()
	delete(h.windows, instance)
}

func (h *Host) closeAll() {
	for id, w := range h.windows {
		w.Close()
		delete(h.windows, id)
	}
}
