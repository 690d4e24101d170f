package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "correlation"

const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

type Metrics struct {
	fetches       *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	analyses      *prometheus.CounterVec
	duration      prometheus.Histogram
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Valet CSV downloads by series and outcome.",
		}, []string{"series", "outcome"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "CSV bodies that could not be parsed, by series.",
		}, []string{"series"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent on a full analysis.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.fetches, m.parseFailures, m.analyses, m.duration)
	}

	return m
}

func (m *Metrics) Fetch(series string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.fetches.WithLabelValues(series, outcome).Inc()
}

func (m *Metrics) ParseFailure(series string) {
	m.parseFailures.WithLabelValues(series).Inc()
}

func (m *Metrics) Analysis(outcome string, elapsed time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
