package publish

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports the last published value of each metric as a gauge.
type Prometheus struct {
	values    *prometheus.GaugeVec
	published *prometheus.CounterVec
}

func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensors",
			Subsystem: "node",
			Name:      "value",
			Help:      "Last measured value (pressure hPa, temperature °C, humidity %RH).",
		}, []string{"metric"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensors",
			Subsystem: "node",
			Name:      "published_total",
			Help:      "Number of measurements published.",
		}, []string{"metric"}),
	}

	for _, c := range []prometheus.Collector{p.values, p.published} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("can't register collector: %w", err)
		}
	}

	return p, nil
}

func (p *Prometheus) Publish(metric string, value float64) {
	p.values.WithLabelValues(metric).Set(value)
	p.published.WithLabelValues(metric).Inc()
}
