package scheduler

// Metrics is a read-only view of the last completed step. It is published
// from the stepping goroutine and safe to read from anywhere.
type Metrics struct {
	Step        uint64  `json:"step"`
	Agents      int     `json:"agents"`
	Spawned     int     `json:"spawned"`
	Invocations uint64  `json:"invocations"`
	StepMS      float64 `json:"step_ms"`
	Digest      string  `json:"digest,omitempty"`
}

func (s *Scheduler) Metrics() Metrics {
	if s == nil {
		return Metrics{}
	}
	m, ok := s.metrics.Load().(Metrics)
	if !ok {
		// No step has completed yet.
		return Metrics{Agents: s.pop.Size()}
	}
	return m
}
