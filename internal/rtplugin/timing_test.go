package rtplugin

import (
	"testing"
	"time"
)

func TestTimingWriterSampleAndReset(t *testing.T) {
	var w TimingWriter
	w.Record(100 * time.Microsecond)
	w.Record(300 * time.Microsecond)

	s := w.SampleAndReset()
	if s.Count != 2 {
		t.Errorf("count = %d, want 2", s.Count)
	}
	if s.AvgUs != 200 {
		t.Errorf("avg = %v, want 200", s.AvgUs)
	}
	if s.LastUs != 300 {
		t.Errorf("last = %v, want 300", s.LastUs)
	}

	// A sample with no intervening Record reports zero count and avg.
	s2 := w.SampleAndReset()
	if s2.Count != 0 || s2.AvgUs != 0 {
		t.Errorf("expected empty sample after reset, got %+v", s2)
	}
	if s2.LastUs != 300 {
		t.Errorf("last should persist across an empty sample, got %v", s2.LastUs)
	}
}
