package rules

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/patchmind/patchmind/internal/graph"
	"github.com/rs/zerolog"
)

// PlannedLink is one link the apply pass decided must exist.
type PlannedLink struct {
	OutPort graph.PortID
	InPort  graph.PortID
}

// portPairKey identifies a port pair for the emitted-set membership check
// in learn.go.
type portPairKey struct {
	Out graph.PortID
	In  graph.PortID
}

// Engine holds the live rule set and the bookkeeping needed for §4.4's
// learn/unlearn/apply responsibilities. It is owned by the server-worker
// goroutine, like graph.Mirror; it is not safe for concurrent mutation from
// multiple goroutines.
type Engine struct {
	mirror  *graph.Mirror
	backups *BackupStore
	log     zerolog.Logger

	rules   []Rule
	enabled bool

	// emitted is the set of port pairs this engine created during its most
	// recent apply pass (§4.4: "tags every Link it creates with a
	// per-session marker").
	emitted map[portPairKey]struct{}
}

// NewEngine creates a rule engine over mirror, persisting rule-set mutations
// through backups.
func NewEngine(mirror *graph.Mirror, backups *BackupStore, log zerolog.Logger) *Engine {
	return &Engine{
		mirror:  mirror,
		backups: backups,
		log:     log.With().Str("component", "rule-engine").Logger(),
		enabled: true,
		emitted: make(map[portPairKey]struct{}),
	}
}

// SetEnabled toggles learn/unlearn wholesale (§4.4: "may be disabled
// wholesale via preference"). Apply is unaffected; it is gated by its own
// caller checking the patchbay-enabled preference.
func (e *Engine) SetEnabled(v bool) {
	e.enabled = v
}

// Rules returns a snapshot of the current rule set.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// AddRule appends r (assigning an id if absent) and writes a backup of the
// resulting rule set.
func (e *Engine) AddRule(r Rule) (Rule, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SourceClass == "" {
		r.SourceClass = graph.ClassAny
	}
	if r.TargetClass == "" {
		r.TargetClass = graph.ClassAny
	}
	r.Enabled = true
	e.rules = append(e.rules, r)
	if err := e.backups.SaveWithBackup(e.rules); err != nil {
		return Rule{}, fmt.Errorf("rules: add rule: %w", err)
	}
	return r, nil
}

// RemoveRule deletes the rule with id, if present.
func (e *Engine) RemoveRule(id string) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("rules: no rule with id %q", id)
	}
	e.rules = append(e.rules[:idx], e.rules[idx+1:]...)
	return e.backups.SaveWithBackup(e.rules)
}

// ToggleRule flips a rule's enabled flag.
func (e *Engine) ToggleRule(id string) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("rules: no rule with id %q", id)
	}
	e.rules[idx].Enabled = !e.rules[idx].Enabled
	return e.backups.SaveWithBackup(e.rules)
}

// Snapshot writes the current rule set as a new backup without modifying it
// (§4.3's SnapshotRules command).
func (e *Engine) Snapshot() error {
	return e.backups.SaveWithBackup(e.rules)
}

// LoadRules replaces the live rule set, e.g. from persistence or a restore
// (does not itself write a backup: restoring from a backup must not
// immediately overwrite the very history it was restored from).
func (e *Engine) LoadRules(rules []Rule) {
	e.rules = rules
}

func (e *Engine) indexOf(id string) int {
	for i, r := range e.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Apply runs the §4.4 apply pass: for every enabled rule, find matching
// source/target node pairs and materialize any port-pair link they demand
// that does not already exist. It replaces the engine's emitted-set with
// exactly the pairs planned by this pass, per the per-apply marker
// semantics §4.4 describes.
func (e *Engine) Apply() []PlannedLink {
	nodes := e.mirror.Nodes()
	var planned []PlannedLink
	fresh := make(map[portPairKey]struct{})

	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		for _, src := range nodes {
			if !r.MatchesSource(src) {
				continue
			}
			for _, dst := range nodes {
				if src.ID == dst.ID || !r.MatchesTarget(dst) {
					continue
				}
				for _, pl := range e.planPairs(r, src, dst) {
					key := portPairKey{Out: pl.OutPort, In: pl.InPort}
					fresh[key] = struct{}{}
					if _, exists := e.mirror.LinkBetween(pl.OutPort, pl.InPort); exists {
						continue
					}
					planned = append(planned, pl)
				}
			}
		}
	}

	e.emitted = fresh
	return planned
}

// planPairs resolves a rule's port pairs for one (source, target) match,
// using its explicit Mappings if present, else the channel-pairing
// heuristic.
func (e *Engine) planPairs(r Rule, src, dst *graph.Node) []PlannedLink {
	if len(r.Mappings) > 0 {
		return e.planExplicitPairs(r, src, dst)
	}
	ports := PairByHeuristic(src, dst)
	out := make([]PlannedLink, 0, len(ports)/2)
	for i := 0; i+1 < len(ports); i += 2 {
		out = append(out, PlannedLink{OutPort: ports[i].ID, InPort: ports[i+1].ID})
	}
	return out
}

func (e *Engine) planExplicitPairs(r Rule, src, dst *graph.Node) []PlannedLink {
	var out []PlannedLink
	for _, m := range r.Mappings {
		outPort := findPortByName(src, graph.DirOutput, m.OutPortName)
		inPort := findPortByName(dst, graph.DirInput, m.InPortName)
		if outPort == nil || inPort == nil {
			continue
		}
		out = append(out, PlannedLink{OutPort: outPort.ID, InPort: inPort.ID})
	}
	return out
}

func findPortByName(n *graph.Node, dir graph.Direction, name string) *graph.Port {
	for _, p := range n.Ports() {
		if p.Dir == dir && p.Name == name {
			return p
		}
	}
	return nil
}
