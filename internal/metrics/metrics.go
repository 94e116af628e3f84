// Package metrics exports RT-thread load as Prometheus gauges and as the
// periodic CpuSample event the UI polls (§4.2, §5). It is the process's
// only consumer of rtplugin's TimingWriter accumulators outside the audio
// thread itself.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processCPUPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "patchmind_process_cpu_percent",
		Help: "Aggregate RT-thread DSP load as a percentage of the audio block budget.",
	})

	instanceAvgMicros = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "patchmind_instance_avg_microseconds",
		Help: "Average Process() duration for one plugin instance since the last sample.",
	}, []string{"instance"})

	instanceDSPPercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "patchmind_instance_dsp_percent",
		Help: "Plugin instance Process() duration as a percentage of the audio block budget.",
	}, []string{"instance"})

	instancesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "patchmind_instances_loaded",
		Help: "Number of plugin instances currently loaded in the arena.",
	})
)

// record updates the Prometheus gauges from one Sample. Called by the
// sampler just before it builds, from the same Sample, the
// transport.CpuSample it sends to the UI, so the two views never disagree.
func record(s Sample) {
	processCPUPercent.Set(s.ProcessPct)
	instancesLoaded.Set(float64(len(s.PerInstance)))
	for _, inst := range s.PerInstance {
		label := inst.InstanceID.String()
		instanceAvgMicros.WithLabelValues(label).Set(inst.AvgUs)
		instanceDSPPercent.WithLabelValues(label).Set(inst.Pct)
	}
}
