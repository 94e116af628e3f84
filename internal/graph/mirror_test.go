package graph

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestMirror() *Mirror {
	return New(zerolog.Nop())
}

func TestApplyNodeAddedClassifiesAndKeys(t *testing.T) {
	m := newTestMirror()
	changed := m.Apply(NodeAdded{
		ID:   "n1",
		Name: "Firefox",
		Props: NodeProps{
			ApplicationName: "Firefox",
			NodePurpose:     "playback",
			MediaClass:      "Stream/Output/Audio",
		},
	})
	if !changed {
		t.Fatal("expected NodeAdded to change the mirror")
	}
	n, ok := m.Node("n1")
	if !ok {
		t.Fatal("node not found")
	}
	if n.Class != ClassApplicationOut {
		t.Errorf("got class %q, want %q", n.Class, ClassApplicationOut)
	}
	if n.LayoutKey != "firefox::playback::stream/output/audio" {
		t.Errorf("unexpected layout key %q", n.LayoutKey)
	}
	if m.Version() != 1 {
		t.Errorf("version = %d, want 1", m.Version())
	}
}

func TestOrphanPortResolvedOnNodeAdded(t *testing.T) {
	m := newTestMirror()
	m.Apply(PortAdded{ID: "p1", NodeID: "n1", Name: "output_FL", Dir: DirOutput, Media: MediaAudio})
	if _, ok := m.Port("p1"); ok {
		t.Fatal("orphan port should not be visible before its node exists")
	}
	m.Apply(NodeAdded{ID: "n1", Name: "App", Props: NodeProps{ApplicationName: "App", MediaClass: "Stream/Output/Audio"}})
	p, ok := m.Port("p1")
	if !ok {
		t.Fatal("port should resolve once its node is added")
	}
	n, _ := m.Node("n1")
	if len(n.Ports()) != 1 || n.Ports()[0].ID != p.ID {
		t.Fatal("resolved port not attached to node")
	}
}

func TestLayoutKeyCollisionSuffixesSecondNode(t *testing.T) {
	m := newTestMirror()
	props := NodeProps{ApplicationName: "App", MediaClass: "Stream/Output/Audio"}
	m.Apply(NodeAdded{ID: "n1", Name: "App", Props: props})
	m.Apply(NodeAdded{ID: "n2", Name: "App", Props: props})

	n1, _ := m.Node("n1")
	n2, _ := m.Node("n2")
	if n1.LayoutKey == n2.LayoutKey {
		t.Fatal("colliding nodes must not share a layout key")
	}
	if n1.LayoutKey != "app::::stream/output/audio" {
		t.Errorf("first node should keep the bare key, got %q", n1.LayoutKey)
	}
}

func TestLinkAddedRejectsSameDirection(t *testing.T) {
	m := newTestMirror()
	m.Apply(NodeAdded{ID: "n1", Props: NodeProps{MediaClass: "Stream/Output/Audio"}})
	m.Apply(NodeAdded{ID: "n2", Props: NodeProps{MediaClass: "Audio/Sink"}})
	m.Apply(PortAdded{ID: "p1", NodeID: "n1", Dir: DirOutput, Media: MediaAudio})
	m.Apply(PortAdded{ID: "p2", NodeID: "n2", Dir: DirOutput, Media: MediaAudio})

	changed := m.Apply(LinkAdded{ID: "l1", OutPort: "p1", InPort: "p2"})
	if changed {
		t.Fatal("link between two outputs must be rejected")
	}
	if len(m.Links()) != 0 {
		t.Fatal("invalid link must not be recorded")
	}
}

func TestLinkAddedRejectsSelfNode(t *testing.T) {
	m := newTestMirror()
	m.Apply(NodeAdded{ID: "n1", Props: NodeProps{MediaClass: "Audio/Duplex"}})
	m.Apply(PortAdded{ID: "p1", NodeID: "n1", Dir: DirOutput, Media: MediaAudio})
	m.Apply(PortAdded{ID: "p2", NodeID: "n1", Dir: DirInput, Media: MediaAudio})

	changed := m.Apply(LinkAdded{ID: "l1", OutPort: "p1", InPort: "p2"})
	if changed {
		t.Fatal("self-node link must be rejected")
	}
}

func TestNodeRemovedCascadesPortsAndLinks(t *testing.T) {
	m := newTestMirror()
	m.Apply(NodeAdded{ID: "src", Props: NodeProps{MediaClass: "Stream/Output/Audio"}})
	m.Apply(NodeAdded{ID: "dst", Props: NodeProps{MediaClass: "Audio/Sink"}})
	m.Apply(PortAdded{ID: "op", NodeID: "src", Dir: DirOutput, Media: MediaAudio})
	m.Apply(PortAdded{ID: "ip", NodeID: "dst", Dir: DirInput, Media: MediaAudio})
	m.Apply(LinkAdded{ID: "l1", OutPort: "op", InPort: "ip"})

	m.Apply(NodeRemoved{ID: "src"})

	if _, ok := m.Port("op"); ok {
		t.Fatal("port of removed node must be gone")
	}
	if len(m.Links()) != 0 {
		t.Fatal("link referencing removed port must be gone")
	}
}

func TestResetClearsEverything(t *testing.T) {
	m := newTestMirror()
	m.Apply(NodeAdded{ID: "n1", Props: NodeProps{MediaClass: "Audio/Sink"}})
	before := m.Version()
	m.Reset()
	if len(m.Nodes()) != 0 {
		t.Fatal("reset must clear nodes")
	}
	if m.Version() <= before {
		t.Fatal("reset must still bump the version so the UI re-queries")
	}
}

func TestLinkBetweenIdempotenceKey(t *testing.T) {
	m := newTestMirror()
	m.Apply(NodeAdded{ID: "src", Props: NodeProps{MediaClass: "Stream/Output/Audio"}})
	m.Apply(NodeAdded{ID: "dst", Props: NodeProps{MediaClass: "Audio/Sink"}})
	m.Apply(PortAdded{ID: "op", NodeID: "src", Dir: DirOutput, Media: MediaAudio})
	m.Apply(PortAdded{ID: "ip", NodeID: "dst", Dir: DirInput, Media: MediaAudio})
	m.Apply(LinkAdded{ID: "l1", OutPort: "op", InPort: "ip"})

	if _, ok := m.LinkBetween("op", "ip"); !ok {
		t.Fatal("expected existing link to be found by port pair")
	}
	if _, ok := m.LinkBetween("ip", "op"); ok {
		t.Fatal("reversed port pair must not match")
	}
}
