package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/patchmind/patchmind/internal/rtplugin"
	"github.com/patchmind/patchmind/internal/transport"
)

// Sample is one point-in-time read of RT load, computed from every live
// instance's TimingWriter. It is the shared shape behind both outputs: the
// transport.CpuSample event the UI polls, and the Prometheus gauges the
// debug HTTP server exposes.
type Sample struct {
	ProcessPct  float64
	PerInstance []InstanceSample
}

// InstanceSample is one instance's contribution to a Sample.
type InstanceSample struct {
	InstanceID rtplugin.InstanceID
	AvgUs      float64
	Pct        float64
}

// Sampler periodically drains every arena instance's TimingWriter, turning
// it into a Sample it both records as Prometheus gauges and posts as a
// transport.CpuSample for the UI (§4.2). It runs as its own suture.Service
// so a slow or full event channel never backs up into the server-worker's
// loop.
type Sampler struct {
	log      zerolog.Logger
	arena    *rtplugin.Arena
	events   *transport.EventChannel
	interval time.Duration
}

// NewSampler builds a Sampler. interval is typically §6's poll_interval_ms,
// the same cadence the UI already polls the graph at.
func NewSampler(arena *rtplugin.Arena, events *transport.EventChannel, interval time.Duration, log zerolog.Logger) *Sampler {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Sampler{
		log:      log.With().Str("component", "metrics").Logger(),
		arena:    arena,
		events:   events,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (s *Sampler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sampleOnce()
		}
	}
}

func (s *Sampler) sampleOnce() {
	sample := s.take()
	record(sample)

	perInstance := make([]transport.InstanceLoad, len(sample.PerInstance))
	for i, inst := range sample.PerInstance {
		perInstance[i] = transport.InstanceLoad{
			InstanceID: inst.InstanceID,
			AvgUs:      inst.AvgUs,
			Pct:        inst.Pct,
		}
	}
	if !s.events.Send(transport.CpuSample{ProcessPct: sample.ProcessPct, PerInstance: perInstance}) {
		s.log.Debug().Msg("event channel full, dropped CpuSample")
	}
}

// take drains every live instance's timing accumulator exactly once. Each
// instance's percentage is its average Process duration against its own
// block budget; the aggregate is their sum, the share of one audio period
// the RT thread as a whole spent doing plugin work.
func (s *Sampler) take() Sample {
	instances := s.arena.All()
	out := Sample{PerInstance: make([]InstanceSample, 0, len(instances))}

	for _, inst := range instances {
		timing := inst.Timing.SampleAndReset()
		var pct float64
		if budgetUs := inst.Budget.BlockBudget().Seconds() * 1e6; budgetUs > 0 {
			pct = timing.AvgUs / budgetUs * 100
		}
		out.PerInstance = append(out.PerInstance, InstanceSample{
			InstanceID: inst.ID,
			AvgUs:      timing.AvgUs,
			Pct:        pct,
		})
		out.ProcessPct += pct
	}
	return out
}
