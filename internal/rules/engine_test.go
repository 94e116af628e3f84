package rules

import (
	"testing"

	"github.com/patchmind/patchmind/internal/graph"
	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T) (*Engine, *graph.Mirror) {
	t.Helper()
	m := graph.New(zerolog.Nop())
	store := NewBackupStore(t.TempDir())
	return NewEngine(m, store, zerolog.Nop()), m
}

func buildStereoPair(m *graph.Mirror) {
	m.Apply(graph.NodeAdded{ID: "src", Name: "Firefox", Props: graph.NodeProps{MediaClass: "Stream/Output/Audio"}})
	m.Apply(graph.NodeAdded{ID: "dst", Name: "Speakers", Props: graph.NodeProps{MediaClass: "Audio/Sink"}})
	m.Apply(graph.PortAdded{ID: "src-fl", NodeID: "src", Name: "playback_FL", Dir: graph.DirOutput, Media: graph.MediaAudio})
	m.Apply(graph.PortAdded{ID: "src-fr", NodeID: "src", Name: "playback_FR", Dir: graph.DirOutput, Media: graph.MediaAudio})
	m.Apply(graph.PortAdded{ID: "dst-fl", NodeID: "dst", Name: "input_FL", Dir: graph.DirInput, Media: graph.MediaAudio})
	m.Apply(graph.PortAdded{ID: "dst-fr", NodeID: "dst", Name: "input_FR", Dir: graph.DirInput, Media: graph.MediaAudio})
}

func TestPairByHeuristicMatchesChannels(t *testing.T) {
	m := graph.New(zerolog.Nop())
	buildStereoPair(m)
	src, _ := m.Node("src")
	dst, _ := m.Node("dst")

	ports := PairByHeuristic(src, dst)
	if len(ports) != 4 {
		t.Fatalf("expected 2 pairs (4 ports), got %d entries", len(ports))
	}
	if ports[0].ID != "src-fl" || ports[1].ID != "dst-fl" {
		t.Errorf("expected FL paired with FL first, got %v -> %v", ports[0].ID, ports[1].ID)
	}
	if ports[2].ID != "src-fr" || ports[3].ID != "dst-fr" {
		t.Errorf("expected FR paired with FR second, got %v -> %v", ports[2].ID, ports[3].ID)
	}
}

func TestEngineApplyPlansMissingLinksOnly(t *testing.T) {
	e, m := newTestEngine(t)
	buildStereoPair(m)
	if _, err := e.AddRule(Rule{
		Name:          "firefox-to-speakers",
		SourcePattern: "Firefox",
		TargetPattern: "Speakers",
	}); err != nil {
		t.Fatal(err)
	}

	planned := e.Apply()
	if len(planned) != 2 {
		t.Fatalf("expected 2 planned links, got %d", len(planned))
	}

	// Materialize one of the planned links in the mirror, then re-apply:
	// idempotence means it must not be planned again.
	m.Apply(graph.LinkAdded{ID: "l1", OutPort: planned[0].OutPort, InPort: planned[0].InPort})
	planned2 := e.Apply()
	if len(planned2) != 1 {
		t.Fatalf("expected 1 remaining planned link after materializing one, got %d", len(planned2))
	}
}

func TestEngineLearnsUserAuthoredLink(t *testing.T) {
	e, m := newTestEngine(t)
	buildStereoPair(m)
	m.Apply(graph.LinkAdded{ID: "l1", OutPort: "src-fl", InPort: "dst-fl"})

	rule, err := e.OnLinkObserved("src-fl", "dst-fl")
	if err != nil {
		t.Fatal(err)
	}
	if rule == nil {
		t.Fatal("expected a rule to be learned from a user-authored link")
	}
	if len(rule.Mappings) != 1 || rule.Mappings[0].OutPortName != "playback_FL" {
		t.Fatalf("unexpected learned mapping: %+v", rule.Mappings)
	}
}

func TestEngineIgnoresEngineEmittedLink(t *testing.T) {
	e, m := newTestEngine(t)
	buildStereoPair(m)
	if _, err := e.AddRule(Rule{SourcePattern: "Firefox", TargetPattern: "Speakers"}); err != nil {
		t.Fatal(err)
	}
	e.Apply() // populates e.emitted with the FL/FR pairs

	m.Apply(graph.LinkAdded{ID: "l1", OutPort: "src-fl", InPort: "dst-fl"})
	rule, err := e.OnLinkObserved("src-fl", "dst-fl")
	if err != nil {
		t.Fatal(err)
	}
	if rule != nil {
		t.Fatal("an engine-emitted link must not be learned as user-authored")
	}
}

func TestEngineUnlearnsRemovedEngineLink(t *testing.T) {
	e, m := newTestEngine(t)
	buildStereoPair(m)
	r, err := e.AddRule(Rule{SourcePattern: "Firefox", TargetPattern: "Speakers", Mappings: []PortPairing{
		{OutPortName: "playback_FL", InPortName: "input_FL"},
		{OutPortName: "playback_FR", InPortName: "input_FR"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()

	m.Apply(graph.LinkRemoved{ID: "l1"})
	if err := e.OnLinkRemoved("src-fl", "dst-fl"); err != nil {
		t.Fatal(err)
	}

	rules := e.Rules()
	for _, got := range rules {
		if got.ID == r.ID {
			if len(got.Mappings) != 1 {
				t.Fatalf("expected one mapping left after unlearn, got %d", len(got.Mappings))
			}
			return
		}
	}
	t.Fatal("rule should still exist with its remaining mapping")
}

func TestEngineToggleAndRemoveRule(t *testing.T) {
	e, _ := newTestEngine(t)
	r, err := e.AddRule(Rule{SourcePattern: "*", TargetPattern: "*"})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.ToggleRule(r.ID); err != nil {
		t.Fatal(err)
	}
	if e.Rules()[0].Enabled {
		t.Fatal("toggle should have disabled the rule")
	}
	if err := e.RemoveRule(r.ID); err != nil {
		t.Fatal(err)
	}
	if len(e.Rules()) != 0 {
		t.Fatal("rule should have been removed")
	}
}
