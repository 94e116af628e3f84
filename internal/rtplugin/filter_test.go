package rtplugin

import (
	"testing"
	"time"
)

// fakeHandle is a minimal PluginHandle for testing Process's ordering and
// bypass behavior, without any real plugin format binding.
type fakeHandle struct {
	params       []ParamInfo
	setCalls     []float32
	runCalls     int
	hasWorker    bool
	lastWork     []byte
	lastDelivery []byte
}

func (h *fakeHandle) Params() []ParamInfo { return h.params }
func (h *fakeHandle) SetParam(index int, value float32) {
	h.setCalls = append(h.setCalls, value)
}
func (h *fakeHandle) Run(frames int)      { h.runCalls++ }
func (h *fakeHandle) HasWorker() bool     { return h.hasWorker }
func (h *fakeHandle) ScheduleWork(p []byte) { h.lastWork = append([]byte(nil), p...) }
func (h *fakeHandle) DeliverWorkResponse(p []byte) {
	h.lastDelivery = append([]byte(nil), p...)
}
func (h *fakeHandle) Close() error { return nil }

func TestProcessAppliesParamsThenRuns(t *testing.T) {
	h := &fakeHandle{params: []ParamInfo{{Index: 0}}}
	inst := NewInstance(1, h, CPUBudget{Frames: 256, SampleRate: 48000})
	inst.Params.Push(0, 0.5)

	now := time.Unix(0, 0)
	Process(inst, 256, func() time.Time { return now })

	if len(h.setCalls) != 1 || h.setCalls[0] != 0.5 {
		t.Fatalf("expected one SetParam(0, 0.5), got %v", h.setCalls)
	}
	if h.runCalls != 1 {
		t.Fatalf("expected Run to be called once, got %d", h.runCalls)
	}
	if inst.Timing.SampleAndReset().Count != 1 {
		t.Fatal("expected a timing sample to be recorded")
	}
}

func TestProcessBypassSkipsRunButStillAppliesParams(t *testing.T) {
	h := &fakeHandle{params: []ParamInfo{{Index: 0}}}
	inst := NewInstance(1, h, CPUBudget{Frames: 256, SampleRate: 48000})
	inst.SetBypass(true)
	inst.Params.Push(0, 0.75)

	in := [][]float32{{1, 2, 3}, {4, 5, 6}}
	out := [][]float32{{0, 0, 0}, {0, 0, 0}}
	inst.BindBuffers(in, out)

	now := time.Unix(0, 0)
	Process(inst, 256, func() time.Time { return now })

	if len(h.setCalls) != 1 || h.setCalls[0] != 0.75 {
		t.Fatal("bypassed instance should still absorb pending parameter edits")
	}
	if h.runCalls != 0 {
		t.Fatal("bypassed instance must not call Run")
	}
	if inst.Timing.SampleAndReset().Count != 0 {
		t.Fatal("bypassed instance must not record a timing sample")
	}
	for ch := range in {
		for i := range in[ch] {
			if out[ch][i] != in[ch][i] {
				t.Fatalf("bypass passthrough mismatch at channel %d frame %d: got %v want %v", ch, i, out[ch][i], in[ch][i])
			}
		}
	}
}

func TestProcessBypassClampsAndZeroesExtraChannels(t *testing.T) {
	h := &fakeHandle{params: []ParamInfo{}}
	inst := NewInstance(1, h, CPUBudget{Frames: 256, SampleRate: 48000})
	inst.SetBypass(true)

	in := [][]float32{{1, 2}}
	out := [][]float32{{9, 9}, {9, 9}}
	inst.BindBuffers(in, out)

	now := time.Unix(0, 0)
	Process(inst, 256, func() time.Time { return now })

	if out[0][0] != 1 || out[0][1] != 2 {
		t.Fatalf("matched channel should carry input through, got %v", out[0])
	}
	if out[1][0] != 0 || out[1][1] != 0 {
		t.Fatalf("extra output channel should be zeroed, got %v", out[1])
	}
}

func TestProcessDeliversWorkerResponseBeforeRun(t *testing.T) {
	h := &fakeHandle{params: []ParamInfo{}, hasWorker: true}
	inst := NewInstance(1, h, CPUBudget{Frames: 256, SampleRate: 48000})
	inst.Worker.DeliverResponse([]byte("patch-loaded"))

	now := time.Unix(0, 0)
	Process(inst, 256, func() time.Time { return now })

	if string(h.lastDelivery) != "patch-loaded" {
		t.Fatalf("expected worker response delivered to handle, got %q", h.lastDelivery)
	}
}

func TestArenaAddRemove(t *testing.T) {
	a := NewArena()
	h := &fakeHandle{params: []ParamInfo{}}
	inst := a.Add(h, CPUBudget{Frames: 256, SampleRate: 48000})

	if _, ok := a.Get(inst.ID); !ok {
		t.Fatal("added instance should be retrievable")
	}
	a.Remove(inst.ID)
	if _, ok := a.Get(inst.ID); ok {
		t.Fatal("removed instance should no longer be retrievable")
	}
}
