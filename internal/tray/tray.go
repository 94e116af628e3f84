// Package tray is the boundary to the desktop notification-service tray
// item (§1's "tray/notification transport" collaborator, §6's tray/IPC
// surface). The concrete status-notifier-item binding is out of scope;
// this package only wires its two actions onto the event channel the UI
// thread already polls.
package tray

import "github.com/patchmind/patchmind/internal/transport"

// Icon is the external tray-item binding. SetOnShow/SetOnQuit register the
// callbacks Bridge wires to {Show, Quit}; a left-click on the icon is
// expected to invoke the Show callback directly (§6: "left-click toggles").
type Icon interface {
	SetOnShow(func())
	SetOnQuit(func())
	Show() error
	Close()
}

// Bridge wires an Icon's actions onto events, translating {Show, Quit}
// activations into the same ShowWindow/Quit events the UI thread already
// polls from the server worker (§6: "Activation is surfaced to the server
// worker as a {ShowWindow} event").
type Bridge struct {
	icon   Icon
	events *transport.EventChannel
}

// NewBridge creates a Bridge and registers its callbacks on icon.
func NewBridge(icon Icon, events *transport.EventChannel) *Bridge {
	b := &Bridge{icon: icon, events: events}
	icon.SetOnShow(func() { events.Send(transport.ShowWindow{}) })
	icon.SetOnQuit(func() { events.Send(transport.Quit{}) })
	return b
}

// Show displays the tray icon itself (not the main window — that's the
// ShowWindow event the bridge sends on activation).
func (b *Bridge) Show() error {
	return b.icon.Show()
}

// Close removes the tray icon, e.g. on process shutdown.
func (b *Bridge) Close() {
	b.icon.Close()
}
