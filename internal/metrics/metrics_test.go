package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/patchmind/patchmind/internal/rtplugin"
)

func TestRecordSetsProcessAndInstanceGauges(t *testing.T) {
	record(Sample{
		ProcessPct: 12.5,
		PerInstance: []InstanceSample{
			{InstanceID: rtplugin.InstanceID(1), AvgUs: 200, Pct: 12.5},
		},
	})

	if got := testutil.ToFloat64(processCPUPercent); got != 12.5 {
		t.Errorf("process cpu percent = %v, want 12.5", got)
	}
	if got := testutil.ToFloat64(instanceDSPPercent.WithLabelValues(rtplugin.InstanceID(1).String())); got != 12.5 {
		t.Errorf("instance dsp percent = %v, want 12.5", got)
	}
	if got := testutil.ToFloat64(instanceAvgMicros.WithLabelValues(rtplugin.InstanceID(1).String())); got != 200 {
		t.Errorf("instance avg us = %v, want 200", got)
	}
	if got := testutil.ToFloat64(instancesLoaded); got != 1 {
		t.Errorf("instances loaded = %v, want 1", got)
	}
}
