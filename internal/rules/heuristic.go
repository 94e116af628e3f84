package rules

import (
	"regexp"
	"sort"
	"strings"

	"github.com/patchmind/patchmind/internal/graph"
)

// channelDesignators lists the recognized channel tokens, in priority order
// for matching (longer/more specific tokens first so e.g. "FL" isn't
// shadowed by a looser pattern).
var channelDesignators = []string{"FL", "FR", "FC", "LFE", "RL", "RR", "SL", "SR", "Mono", "C"}

var trailingNumberRe = regexp.MustCompile(`(\d+)$`)

// channelDesignator extracts the channel token from a port name (§4.4
// step 2): a recognized designator if the name contains one, else the
// trailing number, else the full name (so ports with no recognizable
// designator still sort deterministically and pair in encounter order).
func channelDesignator(portName string) string {
	upper := strings.ToUpper(portName)
	for _, d := range channelDesignators {
		if strings.Contains(upper, strings.ToUpper(d)) {
			return d
		}
	}
	if m := trailingNumberRe.FindStringSubmatch(portName); m != nil {
		return m[1]
	}
	return portName
}

// PairByHeuristic implements §4.4's fallback channel-pairing heuristic for
// a Rule with no explicit Mappings:
//
//  1. group output ports of the source and input ports of the target by
//     media type
//  2. within a media type, sort both lists by channel designator
//  3. pair by position after a stable sort; unmatched extras on either side
//     are left unconnected
//
// The returned pairs are (output port, input port) and are safe to pass
// directly to the apply pass; ports already linked are filtered by the
// caller via the graph mirror's idempotence check, not here.
func PairByHeuristic(source, target *graph.Node) []graph.Port {
	return pairPorts(outputPortsByMedia(source), inputPortsByMedia(target))
}

func outputPortsByMedia(n *graph.Node) map[graph.MediaType][]*graph.Port {
	grouped := make(map[graph.MediaType][]*graph.Port)
	for _, p := range n.Ports() {
		if p.Dir == graph.DirOutput {
			grouped[p.Media] = append(grouped[p.Media], p)
		}
	}
	return grouped
}

func inputPortsByMedia(n *graph.Node) map[graph.MediaType][]*graph.Port {
	grouped := make(map[graph.MediaType][]*graph.Port)
	for _, p := range n.Ports() {
		if p.Dir == graph.DirInput {
			grouped[p.Media] = append(grouped[p.Media], p)
		}
	}
	return grouped
}

// pairPorts pairs same-media-type port groups by position after sorting
// each by its channel designator, and returns a flat slice alternating
// (output, input) entries — callers read it two at a time.
func pairPorts(outByMedia, inByMedia map[graph.MediaType][]*graph.Port) []graph.Port {
	var pairs []graph.Port
	for media, outs := range outByMedia {
		ins, ok := inByMedia[media]
		if !ok {
			continue
		}
		sortByDesignator(outs)
		sortByDesignator(ins)

		n := len(outs)
		if len(ins) < n {
			n = len(ins)
		}
		for i := 0; i < n; i++ {
			pairs = append(pairs, *outs[i], *ins[i])
		}
	}
	return pairs
}

func sortByDesignator(ports []*graph.Port) {
	sort.SliceStable(ports, func(i, j int) bool {
		return channelDesignator(ports[i].Name) < channelDesignator(ports[j].Name)
	})
}
