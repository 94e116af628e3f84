package main

import (
	"context"
	"errors"

	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/pluginstd"
	"github.com/patchmind/patchmind/internal/pluginui"
	"github.com/patchmind/patchmind/internal/rtplugin"
	"github.com/patchmind/patchmind/internal/tray"
)

// The four collaborators below are explicitly out of scope: a real audio
// server connection, a real plugin discovery/instantiation binding, a real
// widget toolkit, and a real tray item are all external to this module.
// These stand-ins let the binary link and run in a "no native binding
// available" configuration instead of failing to compile; they are not
// attempts at real implementations. Grounded on the teacher's
// cmd/server/nats_init_stub.go no-op-stub idiom, minus its build tag —
// there is no alternate "real" implementation anywhere in this exercise to
// gate against.

// errNoServerConn is returned by stubServerConn.Connect so Worker.Connect
// wraps it as ErrConnectFailed, which main maps to exit code 2.
var errNoServerConn = errors.New("no audio server binding compiled into this build")

type stubServerConn struct {
	events chan graph.ServerEvent
}

func newStubServerConn() *stubServerConn {
	return &stubServerConn{events: make(chan graph.ServerEvent)}
}

func (s *stubServerConn) Connect(_ context.Context) error {
	return errNoServerConn
}

func (s *stubServerConn) Events() <-chan graph.ServerEvent {
	return s.events
}

func (s *stubServerConn) ConnectPorts(_, _ graph.PortID) error {
	return errNoServerConn
}

func (s *stubServerConn) DisconnectLink(_ graph.LinkID) error {
	return errNoServerConn
}

func (s *stubServerConn) Close() error {
	return nil
}

// stubLoader reports no plugins installed, since no concrete CLAP/LV2/VST3
// binding is compiled into this build.
type stubLoader struct{}

func (stubLoader) Discover() ([]pluginstd.Descriptor, error) {
	return nil, nil
}

func (stubLoader) Instantiate(uri string, _ rtplugin.CPUBudget) (rtplugin.PluginHandle, error) {
	return nil, errors.New("no plugin binding compiled into this build: " + uri)
}

// stubWindow is the Window returned by stubWindowHost, which never actually
// opens a native window.
type stubWindow struct{}

func (stubWindow) Raise() {}
func (stubWindow) Close() {}

// stubWindowHost reports every OpenWindow as succeeding with an inert
// window, and PumpEvents as a no-op, since no concrete widget toolkit
// binding is compiled into this build.
type stubWindowHost struct{}

func (stubWindowHost) OpenWindow(_ rtplugin.InstanceID, _ rtplugin.PluginHandle, _ *rtplugin.ParamRing) (pluginui.Window, error) {
	return stubWindow{}, nil
}

func (stubWindowHost) PumpEvents() {}

// stubTrayIcon is a tray.Icon that never actually registers a status
// notifier item; Show is a no-op and the callbacks are simply stored.
type stubTrayIcon struct {
	onShow func()
	onQuit func()
}

func (s *stubTrayIcon) SetOnShow(f func()) { s.onShow = f }
func (s *stubTrayIcon) SetOnQuit(f func()) { s.onQuit = f }
func (s *stubTrayIcon) Show() error        { return nil }
func (s *stubTrayIcon) Close()             {}

var _ tray.Icon = (*stubTrayIcon)(nil)
