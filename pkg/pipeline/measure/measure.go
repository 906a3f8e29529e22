package measure

import (
	"sort"
	"sync"
	"time"
)

// DefaultMeasure keeps metrics in memory.
type DefaultMeasure struct {
	mu    sync.RWMutex
	Steps map[string]Metric
}

// NewDefaultMeasure creates an empty measure.
func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

// AddMetric registers the metric of a step. Registering a step twice keeps the first metric.
func (m *DefaultMeasure) AddMetric(name string, concurrent int) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.Steps[name]; ok {
		return mt
	}
	if concurrent <= 0 {
		concurrent = 1
	}
	mt := &DefaultMetric{
		allTransports: make(map[string]*TransportInfo),
		concurrent:    concurrent,
	}
	m.Steps[name] = mt

	return mt
}

// GetMetric returns the metric of a step, or nil if the step is unknown.
func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Steps[name]
}

// AllMetrics returns a copy of the metrics indexed by step name.
func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make(map[string]Metric, len(m.Steps))
	for name, mt := range m.Steps {
		res[name] = mt
	}

	return res
}

// StepSummary is a flat view of a step metric.
type StepSummary struct {
	Name    string
	Count   int64
	Average time.Duration
	Total   time.Duration
}

// Summaries returns one summary per step that processed at least one element, sorted by name.
func Summaries(msr Measure) []StepSummary {
	res := []StepSummary{}
	for name, mt := range msr.AllMetrics() {
		if mt.Count() == 0 {
			continue
		}
		res = append(res, StepSummary{
			Name:    name,
			Count:   mt.Count(),
			Average: mt.AVGDuration(),
			Total:   mt.GetTotalDuration(),
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })

	return res
}

var _ Measure = (*DefaultMeasure)(nil)
