package rtplugin

import (
	"fmt"
	"sync/atomic"
)

// InstanceID is a stable identifier for a plugin instance, independent of
// its current arena slot. The graph mirror's plugin-filter nodes and the
// persistence layer's plugin document both key on this id, never on a slot
// index, so that a compaction of the arena never invalidates a reference
// held elsewhere (§9's design note on stable-id-to-slot indirection).
type InstanceID uint64

// Instance holds everything the RT thread touches for one loaded plugin:
// the binding, its parameter ring, the bypass flag, its timing accumulator,
// and its input/output audio buffers. All of its exported fields are either
// RT-safe atomics or immutable after construction; In/Out are bound once at
// port setup via BindBuffers, before the RT thread ever calls Process, and
// never reassigned afterward (§4.2's "Input/output audio buffer pointers
// bound once at port setup").
type Instance struct {
	ID     InstanceID
	Handle PluginHandle
	Budget CPUBudget

	Params *ParamRing
	Timing TimingWriter
	Worker *WorkRing // nil if the plugin does not use the worker extension
	bypass atomic.Bool

	// In and Out are one slice per channel, each of block-size length,
	// bound once by BindBuffers. Process's bypass path reads and writes
	// through these directly; the plugin binding itself owns filling In
	// and draining Out around a Run call.
	In  [][]float32
	Out [][]float32
}

// NewInstance wires a loaded PluginHandle into an RT-ready Instance.
func NewInstance(id InstanceID, h PluginHandle, budget CPUBudget) *Instance {
	inst := &Instance{
		ID:     id,
		Handle: h,
		Budget: budget,
		Params: NewParamRing(len(h.Params())),
	}
	if h.HasWorker() {
		inst.Worker = NewWorkRing(workRingCapacity)
	}
	return inst
}

// BindBuffers binds in's and out's channel buffer pointers to this
// instance, once, at port setup time (non-RT). Callers must not mutate the
// slice headers afterward; the RT thread assumes In/Out never change shape
// for the lifetime of the instance.
func (i *Instance) BindBuffers(in, out [][]float32) {
	i.In = in
	i.Out = out
}

// SetBypass is called from any non-RT goroutine (command handling) to
// toggle bypass. The RT thread only ever reads it.
func (i *Instance) SetBypass(v bool) {
	i.bypass.Store(v)
}

// Bypassed reports the current bypass state.
func (i *Instance) Bypassed() bool {
	return i.bypass.Load()
}

// Arena is the stable-id-to-slot registry of live plugin instances (§9's
// design note). It is owned by the server-worker goroutine; like the graph
// Mirror, it is not safe for concurrent mutation from multiple goroutines,
// but its Instances are RT-safe to touch (via their own atomics and rings)
// from the audio thread concurrently with arena mutation, because adding or
// removing an Instance never touches fields a live RT call is reading.
type Arena struct {
	slots   map[InstanceID]*Instance
	nextID  atomic.Uint64
}

// NewArena creates an empty instance arena.
func NewArena() *Arena {
	return &Arena{slots: make(map[InstanceID]*Instance)}
}

// Add registers a loaded instance, assigning it a fresh stable id.
func (a *Arena) Add(h PluginHandle, budget CPUBudget) *Instance {
	id := InstanceID(a.nextID.Add(1))
	inst := NewInstance(id, h, budget)
	a.slots[id] = inst
	return inst
}

// Remove detaches an instance from the arena. The caller is responsible for
// ensuring the RT thread will no longer call Process on it (e.g. by
// removing it from the active process list first) before calling Close.
func (a *Arena) Remove(id InstanceID) (*Instance, bool) {
	inst, ok := a.slots[id]
	if !ok {
		return nil, false
	}
	delete(a.slots, id)
	return inst, true
}

// Get looks up a live instance by its stable id.
func (a *Arena) Get(id InstanceID) (*Instance, bool) {
	inst, ok := a.slots[id]
	return inst, ok
}

// All returns every live instance, in no particular order. Used by the
// metrics sampler; never called from the RT thread.
func (a *Arena) All() []*Instance {
	out := make([]*Instance, 0, len(a.slots))
	for _, inst := range a.slots {
		out = append(out, inst)
	}
	return out
}

func (id InstanceID) String() string {
	return fmt.Sprintf("inst-%d", uint64(id))
}
