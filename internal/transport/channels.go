package transport

import "sync/atomic"

// commandChannelCapacity is the UI -> server-worker command channel's bound
// (§4.3: "bounded ≈ 256").
const commandChannelCapacity = 256

// eventChannelCapacity bounds the server-worker -> UI event channel. Events
// are lower-rate than commands (one GraphChanged per settled transition, one
// CpuSample per sampling tick) but still must never block the worker.
const eventChannelCapacity = 64

// hostChannelCapacity bounds the server-worker -> plugin-UI-host channel.
const hostChannelCapacity = 32

// CommandChannel is the UI -> server-worker command transport. Send never
// blocks; a full channel is reported back to the caller so the UI can
// surface a busy indication and drop the optimistic edit (§4.3), the same
// full-channel-drops-with-signal contract the teacher's broadcast hub uses
// for its per-client send queues.
type CommandChannel struct {
	ch chan Command
}

// NewCommandChannel allocates a command channel at its fixed capacity.
func NewCommandChannel() *CommandChannel {
	return &CommandChannel{ch: make(chan Command, commandChannelCapacity)}
}

// Send enqueues cmd. It returns false, without blocking, if the channel was
// full — the command is dropped and the caller is responsible for
// signalling busy to the user.
func (c *CommandChannel) Send(cmd Command) (accepted bool) {
	select {
	case c.ch <- cmd:
		return true
	default:
		return false
	}
}

// Receive is called by the server worker's event-pump loop.
func (c *CommandChannel) Receive() <-chan Command {
	return c.ch
}

// EventChannel is the server-worker -> UI event transport.
type EventChannel struct {
	ch chan Event
}

func NewEventChannel() *EventChannel {
	return &EventChannel{ch: make(chan Event, eventChannelCapacity)}
}

// Send enqueues ev, dropping it if the UI has fallen behind rather than
// blocking the server worker. A dropped GraphChanged is harmless: the next
// one carries a higher version and the UI treats any version jump the same
// way it treats a single increment.
func (c *EventChannel) Send(ev Event) (accepted bool) {
	select {
	case c.ch <- ev:
		return true
	default:
		return false
	}
}

func (c *EventChannel) Receive() <-chan Event {
	return c.ch
}

// HostChannel is the server-worker -> plugin-UI-host command transport.
type HostChannel struct {
	ch chan HostCommand
}

func NewHostChannel() *HostChannel {
	return &HostChannel{ch: make(chan HostCommand, hostChannelCapacity)}
}

func (c *HostChannel) Send(cmd HostCommand) (accepted bool) {
	select {
	case c.ch <- cmd:
		return true
	default:
		return false
	}
}

func (c *HostChannel) Receive() <-chan HostCommand {
	return c.ch
}

// requestCounter is the shared source of monotonic OpenPluginUi request ids;
// see request_tracker.go.
type requestCounter struct {
	n atomic.Uint64
}

func (r *requestCounter) next() uint64 {
	return r.n.Add(1)
}
