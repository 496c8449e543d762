package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockberries/dasguard/types"
)

// Metrics are the server's Prometheus collectors.
type Metrics struct {
	verdicts *prometheus.CounterVec
	duration prometheus.Histogram
	halted   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dasguard_verdicts_total",
				Help: "Total number of validation verdicts by category.",
			},
			[]string{"category"}, // none for accepted transactions
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dasguard_validation_seconds",
			Help:    "Duration of one validation run.",
			Buckets: prometheus.DefBuckets,
		}),
		halted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dasguard_halted",
			Help: "1 once an integrity violation has halted the server.",
		}),
	}
	reg.MustRegister(m.verdicts, m.duration, m.halted)
	return m
}

func (m *Metrics) observe(v types.Verdict, start time.Time) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(v.Category.String()).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) halt() {
	if m == nil {
		return
	}
	m.halted.Set(1)
}
