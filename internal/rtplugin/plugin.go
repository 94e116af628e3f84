package rtplugin

import "time"

// ParamInfo describes one control port exposed by a loaded plugin.
type ParamInfo struct {
	Index   int
	Name    string
	Symbol  string
	Min     float32
	Max     float32
	Default float32
}

// PluginHandle is the boundary between the RT filter and a concrete plugin
// format binding (CLAP, LV2, VST3 — see internal/pluginstd). The filter
// never knows which format it is driving; it only calls this interface from
// the audio thread on every Process, so every implementation must uphold
// the same real-time constraints the filter itself does: no allocation, no
// locking, no syscalls, no blocking.
type PluginHandle interface {
	// Params reports the plugin's control ports. Called once at load time,
	// off the RT thread.
	Params() []ParamInfo

	// SetParam applies a single control-port value. Called from the RT
	// thread with values drained from the instance's ParamRing.
	SetParam(index int, value float32)

	// Run processes frames of audio in place (or in to out, depending on
	// the binding's buffer convention — the binding owns buffer wiring).
	// Called from the RT thread once per block when the instance is not
	// bypassed.
	Run(frames int)

	// HasWorker reports whether the plugin uses the optional async worker
	// extension (LV2-style: a non-RT thread that performs the heavy part
	// of a request scheduled from the RT thread).
	HasWorker() bool

	// ScheduleWork is called from the RT thread when HasWorker is true and
	// the plugin requests deferred work. It must not block; payload is
	// copied into the work ring for the worker goroutine to pick up.
	ScheduleWork(payload []byte)

	// DeliverWorkResponse is called from the RT thread with a completed
	// work result, once the worker ring has one ready to drain.
	DeliverWorkResponse(payload []byte)

	// Close releases any resources held by the binding. Called off the RT
	// thread, after the instance has been removed from the arena and the
	// RT thread is guaranteed to no longer call Run.
	Close() error
}

// CPUBudget describes the block size and sample rate an instance's timing
// is measured against, so DSP% can be computed (§5's CpuSample).
type CPUBudget struct {
	Frames     int
	SampleRate int
}

// BlockBudget returns the wall-clock duration one block is allowed to take
// before the audio thread would underrun at this budget's rate.
func (b CPUBudget) BlockBudget() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames) / float64(b.SampleRate) * float64(time.Second))
}
