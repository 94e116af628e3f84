package persistence

import (
	"testing"

	"github.com/patchmind/patchmind/internal/graph"
	"github.com/rs/zerolog"
)

func TestLinkResolverResolvesWhenNodesAppear(t *testing.T) {
	m := graph.New(zerolog.Nop())
	resolver := NewLinkResolver([]LinkRecord{
		{SourceLayoutKey: "firefox::playback::stream/output/audio", SourcePort: "out_FL", TargetLayoutKey: "speakers::::audio/sink", TargetPort: "in_FL"},
	})

	if got := resolver.Resolve(m); got != nil {
		t.Fatalf("expected no resolution before nodes exist, got %v", got)
	}
	if resolver.Pending() != 1 {
		t.Fatalf("expected 1 still pending, got %d", resolver.Pending())
	}

	m.Apply(graph.NodeAdded{ID: "src", Props: graph.NodeProps{ApplicationName: "Firefox", NodePurpose: "playback", MediaClass: "Stream/Output/Audio"}})
	m.Apply(graph.PortAdded{ID: "p1", NodeID: "src", Name: "out_FL", Dir: graph.DirOutput, Media: graph.MediaAudio})

	if got := resolver.Resolve(m); got != nil {
		t.Fatalf("expected no resolution until the target node also exists, got %v", got)
	}

	m.Apply(graph.NodeAdded{ID: "dst", Name: "Speakers", Props: graph.NodeProps{ApplicationName: "Speakers", MediaClass: "Audio/Sink"}})
	m.Apply(graph.PortAdded{ID: "p2", NodeID: "dst", Name: "in_FL", Dir: graph.DirInput, Media: graph.MediaAudio})

	got := resolver.Resolve(m)
	if len(got) != 1 || got[0].OutPort != "p1" || got[0].InPort != "p2" {
		t.Fatalf("expected link to resolve to (p1, p2), got %v", got)
	}
	if resolver.Pending() != 0 {
		t.Fatalf("expected 0 pending after resolution, got %d", resolver.Pending())
	}
}
