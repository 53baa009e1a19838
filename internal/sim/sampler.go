package sim

import "math"

// sampler decides at which steps a snapshot is recorded. Output times are
// start + k*interval and elapsed time is step*dt, so neither accumulates
// rounding drift.
type sampler struct {
	policy   SamplePolicy
	start    float64
	interval float64
	eps      float64
	k        int
	stride   int
	samples  int
}

func newSampler(cfg Config, dt float64) *sampler {
	interval := cfg.FinalTime / float64(cfg.NumSamples)
	s := &sampler{
		policy:   cfg.Sampling,
		start:    interval,
		interval: interval,
		eps:      1e-9 * dt,
		stride:   max(1, int(math.Round(interval/dt))),
		samples:  cfg.NumSamples,
	}
	if cfg.SampleStart == StartAtDt {
		s.start = dt
	}
	return s
}

func (s *sampler) next() float64 {
	return s.start + float64(s.k)*s.interval
}

// due reports whether step (ending at time t) records a sample. At most one
// sample is taken per step; output times already passed are skipped.
func (s *sampler) due(step int, t float64) bool {
	if s.policy == SampleStride {
		return step%s.stride == 0
	}
	if t < s.next()-s.eps {
		return false
	}
	for s.next() <= t+s.eps {
		s.k++
	}
	return true
}

// capacity estimates the number of samples for preallocation.
func (s *sampler) capacity(steps int) int {
	if s.policy == SampleStride {
		return steps/s.stride + 1
	}
	return min(steps, s.samples+1)
}
