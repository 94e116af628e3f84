package rtplugin

import "time"

// Process runs one audio block through inst, following §4.2's fixed order:
//
//  1. Drain any pending worker response and deliver it to the plugin, so a
//     completed async request is visible before this block's parameters are
//     applied.
//  2. Drain the parameter ring and apply every pending value, regardless of
//     bypass state, so a plugin that is un-bypassed mid-edit starts from the
//     latest values rather than stale ones.
//  3. If bypassed, copy input channels to matching output channels
//     (channel-count-clamped), zero any extra outputs, and return; no
//     timing sample is recorded, since a bypassed instance contributes
//     nothing to DSP load.
//  4. Otherwise run the plugin and record how long it took.
//
// now is supplied by the caller (the audio thread's own clock read) so this
// function performs no time-source I/O of its own beyond the subtraction.
func Process(inst *Instance, frames int, now func() time.Time) {
	if inst.Worker != nil {
		if resp, ok := inst.Worker.TakeResponse(); ok {
			inst.Handle.DeliverWorkResponse(resp)
		}
	}

	inst.Params.Drain(func(portIndex int, value float32) {
		inst.Handle.SetParam(portIndex, value)
	})

	if inst.Bypassed() {
		passthrough(inst.In, inst.Out)
		return
	}

	start := now()
	inst.Handle.Run(frames)
	inst.Timing.Record(now().Sub(start))
}

// passthrough implements §4.2 step 2's bypass copy: matching channels are
// copied input to output, channel-count-clamped, and any output channels
// beyond the input's count are zeroed. Allocation-free, so it is safe to
// call from the RT thread.
func passthrough(in, out [][]float32) {
	matched := len(in)
	if len(out) < matched {
		matched = len(out)
	}
	for ch := 0; ch < matched; ch++ {
		copy(out[ch], in[ch])
	}
	for ch := matched; ch < len(out); ch++ {
		for i := range out[ch] {
			out[ch][i] = 0
		}
	}
}
