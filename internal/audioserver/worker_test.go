package audioserver

import (
	"context"
	"testing"
	"time"

	"github.com/patchmind/patchmind/internal/config"
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/patchmind/patchmind/internal/persistence"
	"github.com/patchmind/patchmind/internal/pluginstd"
	"github.com/patchmind/patchmind/internal/rtplugin"
	"github.com/patchmind/patchmind/internal/rules"
	"github.com/patchmind/patchmind/internal/transport"
	"github.com/rs/zerolog"
)

type fakeConn struct {
	events        chan graph.ServerEvent
	connectCalls  int
	connectErr    error
	connectedLink []graph.PortID
	disconnected  []graph.LinkID
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan graph.ServerEvent, 16)}
}

func (c *fakeConn) Connect(ctx context.Context) error {
	c.connectCalls++
	return c.connectErr
}
func (c *fakeConn) Events() <-chan graph.ServerEvent { return c.events }
func (c *fakeConn) ConnectPorts(out, in graph.PortID) error {
	c.connectedLink = append(c.connectedLink, out, in)
	return nil
}
func (c *fakeConn) DisconnectLink(id graph.LinkID) error {
	c.disconnected = append(c.disconnected, id)
	return nil
}
func (c *fakeConn) Close() error { return nil }

type fakePluginHandle struct {
	params []rtplugin.ParamInfo
}

func (h *fakePluginHandle) Params() []rtplugin.ParamInfo      { return h.params }
func (h *fakePluginHandle) SetParam(index int, value float32) {}
func (h *fakePluginHandle) Run(frames int)                    {}
func (h *fakePluginHandle) HasWorker() bool                   { return false }
func (h *fakePluginHandle) ScheduleWork(p []byte)              {}
func (h *fakePluginHandle) DeliverWorkResponse(p []byte)       {}
func (h *fakePluginHandle) Close() error                       { return nil }

type fakeLoader struct {
	failURI string
}

func (l *fakeLoader) Discover() ([]pluginstd.Descriptor, error) { return nil, nil }
func (l *fakeLoader) Instantiate(uri string, budget rtplugin.CPUBudget) (rtplugin.PluginHandle, error) {
	if uri == l.failURI {
		return nil, errTestLoad
	}
	return &fakePluginHandle{params: []rtplugin.ParamInfo{{Index: 0, Min: 0, Max: 1, Default: 0.5}}}, nil
}

var errTestLoad = &testLoadError{}

type testLoadError struct{}

func (*testLoadError) Error() string { return "fake load failure" }

func newTestWorker(t *testing.T) (*Worker, *fakeConn) {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()
	mirror := graph.New(log)
	backups := rules.NewBackupStore(dir)
	engine := rules.NewEngine(mirror, backups, log)
	settle := rules.NewSettleDetector(5 * time.Millisecond)
	prefs := config.DefaultPreferences()
	store := persistence.NewStore(dir, prefs)
	conn := newFakeConn()

	w := NewWorker(Config{
		Mirror:   mirror,
		Arena:    rtplugin.NewArena(),
		Engine:   engine,
		Settle:   settle,
		Store:    store,
		Backups:  backups,
		Conn:     conn,
		Loader:   &fakeLoader{},
		Budget:   rtplugin.CPUBudget{Frames: 256, SampleRate: 48000},
		Commands: transport.NewCommandChannel(),
		Events:   transport.NewEventChannel(),
		HostCmds: transport.NewHostChannel(),
		Cooldown: transport.NewCooldownLimiter(time.Millisecond),
		Requests: transport.NewRequestTracker(),
		Prefs:    prefs,
	}, log)
	if err := w.Restore(); err != nil {
		t.Fatal(err)
	}
	return w, conn
}

func TestAddPluginPersistsRecordOnSuccess(t *testing.T) {
	w, _ := newTestWorker(t)
	stop := w.handleCommand(transport.AddPlugin{URI: "urn:test:plugin"})
	if stop {
		t.Fatal("AddPlugin must not stop the worker loop")
	}
	records := w.store.Plugins.Get()
	if len(records) != 1 || records[0].URI != "urn:test:plugin" {
		t.Fatalf("expected one persisted plugin record, got %v", records)
	}
}

func TestAddPluginFailureEmitsErrorAndDoesNotPersist(t *testing.T) {
	w, _ := newTestWorker(t)
	w.loader = &fakeLoader{failURI: "urn:test:bad"}

	w.handleCommand(transport.AddPlugin{URI: "urn:test:bad"})

	select {
	case ev := <-w.events.Receive():
		if _, ok := ev.(transport.Error); !ok {
			t.Fatalf("expected an Error event, got %T", ev)
		}
	default:
		t.Fatal("expected an Error event to have been sent")
	}
	if len(w.store.Plugins.Get()) != 0 {
		t.Fatal("a failed plugin load must not be persisted")
	}
}

func TestSetParameterPushesOntoInstanceRing(t *testing.T) {
	w, _ := newTestWorker(t)
	w.handleCommand(transport.AddPlugin{URI: "urn:test:plugin"})
	var id rtplugin.InstanceID
	for _, inst := range w.arena.All() {
		id = inst.ID
	}

	w.handleCommand(transport.SetParameter{InstanceID: id, PortIndex: 0, Value: 0.9})

	inst, _ := w.arena.Get(id)
	var got float32
	inst.Params.Drain(func(_ int, v float32) { got = v })
	if got != 0.9 {
		t.Fatalf("expected 0.9 drained from the param ring, got %v", got)
	}
}

func TestConnectPortsRejectsSelfNodeLoop(t *testing.T) {
	w, conn := newTestWorker(t)
	w.mirror.Apply(graph.NodeAdded{ID: "n1", Props: graph.NodeProps{ApplicationName: "App", MediaClass: "Stream/Output/Audio"}})
	w.mirror.Apply(graph.PortAdded{ID: "p1", NodeID: "n1", Name: "out", Dir: graph.DirOutput, Media: graph.MediaAudio})
	w.mirror.Apply(graph.PortAdded{ID: "p2", NodeID: "n1", Name: "in", Dir: graph.DirInput, Media: graph.MediaAudio})

	w.handleCommand(transport.ConnectPorts{OutPort: "p1", InPort: "p2"})

	if len(conn.connectedLink) != 0 {
		t.Fatal("a self-node connection must be rejected before reaching the server")
	}
}

func TestShutdownFlushesPersistenceAndSendsQuit(t *testing.T) {
	w, _ := newTestWorker(t)
	w.handleCommand(transport.AddPlugin{URI: "urn:test:plugin"})

	if stop := w.handleCommand(transport.Shutdown{}); !stop {
		t.Fatal("Shutdown must stop the worker loop")
	}
	_ = w.shutdown()

	select {
	case ev := <-w.events.Receive():
		if _, ok := ev.(transport.Quit); !ok {
			t.Fatalf("expected Quit event, got %T", ev)
		}
	default:
		t.Fatal("expected a Quit event on shutdown")
	}
}

func TestServerSettledLinkTriggersRuleLearn(t *testing.T) {
	w, _ := newTestWorker(t)
	w.mirror.Apply(graph.NodeAdded{ID: "src", Name: "Firefox", Props: graph.NodeProps{ApplicationName: "Firefox", MediaClass: "Stream/Output/Audio"}})
	w.mirror.Apply(graph.PortAdded{ID: "out1", NodeID: "src", Name: "output_FL", Dir: graph.DirOutput, Media: graph.MediaAudio})
	w.mirror.Apply(graph.NodeAdded{ID: "dst", Name: "Built-in Audio", Props: graph.NodeProps{ApplicationName: "Built-in Audio", MediaClass: "Audio/Sink"}})
	w.mirror.Apply(graph.PortAdded{ID: "in1", NodeID: "dst", Name: "playback_FL", Dir: graph.DirInput, Media: graph.MediaAudio})

	w.handleServerEvent(graph.LinkAdded{ID: "l1", OutPort: "out1", InPort: "in1"})

	rs := w.engine.Rules()
	if len(rs) != 1 || rs[0].SourcePattern != "Firefox" {
		t.Fatalf("expected a learned rule, got %v", rs)
	}
}

func TestHeavyOpCooldownRejectsRapidAddPlugin(t *testing.T) {
	w, _ := newTestWorker(t)
	w.cooldown = transport.NewCooldownLimiter(time.Hour)

	w.handleCommand(transport.AddPlugin{URI: "urn:test:plugin"})
	w.handleCommand(transport.AddPlugin{URI: "urn:test:plugin"})

	if len(w.store.Plugins.Get()) != 1 {
		t.Fatalf("expected the second rapid AddPlugin to be rate-limited, got %d records", len(w.store.Plugins.Get()))
	}
}

func TestServeStopsOnContextCancellation(t *testing.T) {
	w, _ := newTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected a clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
