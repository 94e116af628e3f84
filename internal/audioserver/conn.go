// Package audioserver implements the server-worker thread (§5): the thread
// that owns the audio server connection, the graph mirror, and the plugin
// instance arena, interleaving server-event draining with command-channel
// draining on a bounded tick.
package audioserver

import (
	"context"

	"github.com/patchmind/patchmind/internal/graph"
)

// ServerConn is the boundary to the actual audio-server connection (a
// PipeWire-style registry and port/link API). The concrete binding is
// external to this module, the same way the plugin-UI host's WindowHost
// is — §1 scopes out vendoring a specific audio server client.
type ServerConn interface {
	// Connect establishes the connection and begins delivering registry
	// events on the channel returned by Events. Connect itself may block
	// until the connection is ready or ctx is canceled.
	Connect(ctx context.Context) error

	// Events delivers server-reported registry changes, translated to this
	// module's graph.ServerEvent types by the binding.
	Events() <-chan graph.ServerEvent

	// ConnectPorts and DisconnectLink request a link mutation on the real
	// server; success is only confirmed once the corresponding LinkAdded /
	// LinkRemoved event arrives back on Events (§7: a failure here because
	// an endpoint disappeared in between is a transient error, not
	// propagated as a hard failure).
	ConnectPorts(out, in graph.PortID) error
	DisconnectLink(id graph.LinkID) error

	// Close tears down the connection.
	Close() error
}
