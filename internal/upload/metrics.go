package upload

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	pendingRecords prometheus.Gauge
	uploadAttempts *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pendingRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "upload_pending_records",
			Help: "Number of local records not yet committed remotely.",
		}),
		uploadAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upload_attempts_total",
				Help: "Total upload attempts by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.pendingRecords, m.uploadAttempts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) SetPending(n int) {
	m.pendingRecords.Set(float64(n))
}

func (m *Metrics) ObserveAttempt(err error) {
	result := "completed"
	if err != nil {
		result = "error"
	}
	m.uploadAttempts.WithLabelValues(result).Inc()
}
