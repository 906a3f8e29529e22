package grammarbot

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder observes the requests sent by a Client.
type Recorder interface {
	// ObserveRequest records one HTTP attempt. code is the status code, or "error" when
	// no response was received.
	ObserveRequest(code string, d time.Duration)
	// IncRetry records a retried attempt.
	IncRetry()
	// ObserveMatches records the number of matches of a successful check.
	ObserveMatches(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, time.Duration) {}
func (NoopRecorder) IncRetry()                            {}
func (NoopRecorder) ObserveMatches(int)                   {}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requests        *prom.CounterVec
	requestDuration *prom.HistogramVec
	retries         prom.Counter
	matches         prom.Histogram
}

// NewPrometheusRecorder constructs the client metrics and registers them on reg.
// A nil reg registers them on a private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grammarbot",
			Name:      "requests_total",
			Help:      "HTTP attempts sent to the GrammarBot API by status code",
		}, []string{"code"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "grammarbot",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP attempts sent to the GrammarBot API",
			Buckets:   prom.DefBuckets,
		}, []string{"code"}),
		retries: prom.NewCounter(prom.CounterOpts{
			Namespace: "grammarbot",
			Name:      "retries_total",
			Help:      "Attempts retried after a transient failure",
		}),
		matches: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "grammarbot",
			Name:      "matches",
			Help:      "Number of matches returned per successful check",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
	reg.MustRegister(pr.requests, pr.requestDuration, pr.retries, pr.matches)

	return pr
}

func (p *PrometheusRecorder) ObserveRequest(code string, d time.Duration) {
	p.requests.WithLabelValues(code).Inc()
	p.requestDuration.WithLabelValues(code).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRetry() {
	p.retries.Inc()
}

func (p *PrometheusRecorder) ObserveMatches(n int) {
	p.matches.Observe(float64(n))
}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
