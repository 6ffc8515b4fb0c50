package webhook

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeDropped = "dropped"
)

type deliveryMetrics struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	metricsInstance *deliveryMetrics
	metricsOnce     sync.Once
	metricsRegistry = prometheus.DefaultRegisterer
)

func newDeliveryMetrics() *deliveryMetrics {
	metricsOnce.Do(func() {
		metricsInstance = &deliveryMetrics{
			deliveries: promauto.With(metricsRegistry).NewCounterVec(prometheus.CounterOpts{
				Name: "feedlane_webhook_deliveries_total",
				Help: "Webhook deliveries by provider and outcome",
			}, []string{"provider", "outcome"}),
			duration: promauto.With(metricsRegistry).NewHistogramVec(prometheus.HistogramOpts{
				Name:    "feedlane_webhook_delivery_duration_seconds",
				Help:    "Time taken to deliver a webhook, including host pacing",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			}, []string{"provider"}),
		}
	})
	return metricsInstance
}

// resetMetricsForTesting swaps in a fresh registry. Tests only.
func resetMetricsForTesting() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	metricsRegistry = reg
	metricsInstance = nil
	metricsOnce = sync.Once{}
	return reg
}
