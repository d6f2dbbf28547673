package exporter

import (
	"hadoop_monitor/types"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hadoop_monitor"

// PromRecorder publishes the outcome of collections and health checks so
// the monitor itself can be scraped.
type PromRecorder struct {
	collections   *prometheus.CounterVec
	lastCollected *prometheus.GaugeVec
	serviceUp     *prometheus.GaugeVec
}

func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	p := &PromRecorder{
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_total",
			Help:      "Metric collections by kind and outcome.",
		}, []string{"kind", "outcome"}),
		lastCollected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_collection_timestamp_seconds",
			Help:      "Unix time of the last collection per kind.",
		}, []string{"kind"}),
		serviceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_up",
			Help:      "1 when the service's status endpoint answered 2xx at the last health check.",
		}, []string{"service"}),
	}
	reg.MustRegister(p.collections, p.lastCollected, p.serviceUp)
	return p
}

func (p *PromRecorder) ObserveReport(r *ExporterReport) {
	outcome := "ok"
	if !r.Success() {
		outcome = "degraded"
	}
	p.collections.WithLabelValues(string(r.Kind), outcome).Inc()
	p.lastCollected.WithLabelValues(string(r.Kind)).Set(float64(r.CapturedAt.Unix()))
}

func (p *PromRecorder) ObserveHealth(snapshot types.HealthSnapshot) {
	for name, s := range snapshot {
		up := 0.0
		if s.Status == types.Healthy {
			up = 1
		}
		p.serviceUp.WithLabelValues(name).Set(up)
	}
}
