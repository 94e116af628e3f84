package rtplugin

import (
	"sync/atomic"
	"time"
)

// TimingWriter is the lock-free accumulator the RT thread records per-call
// timing into, and the metrics sampler periodically drains (§4.2, §5's
// CpuSample event). It holds only the running sum and count needed to
// compute an average since the last sample, plus the most recent single
// call's duration.
type TimingWriter struct {
	lastNs atomic.Int64
	sumNs  atomic.Int64
	count  atomic.Int64
}

// Record is called once per Process invocation, from the RT thread only.
func (w *TimingWriter) Record(d time.Duration) {
	w.lastNs.Store(int64(d))
	w.sumNs.Add(int64(d))
	w.count.Add(1)
}

// TimingSample is a point-in-time read of a TimingWriter.
type TimingSample struct {
	LastUs float64
	AvgUs  float64
	Count  int64
}

// SampleAndReset atomically takes a snapshot and resets the running sum and
// count, so each sample reports the average since the previous sample
// rather than since process start. Called from the non-RT metrics sampler
// only; safe to race with concurrent Record calls (the swap is atomic per
// field, and a Record landing mid-sample is attributed to whichever side of
// the swap it lands on — acceptable for a periodic gauge).
func (w *TimingWriter) SampleAndReset() TimingSample {
	last := w.lastNs.Load()
	sum := w.sumNs.Swap(0)
	count := w.count.Swap(0)
	sample := TimingSample{LastUs: float64(last) / 1e3}
	if count > 0 {
		sample.AvgUs = float64(sum) / float64(count) / 1e3
		sample.Count = count
	}
	return sample
}
