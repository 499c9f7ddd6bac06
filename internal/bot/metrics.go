package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	UpdatesProcessed     prometheus.Counter
	CalculationsTotal    *prometheus.CounterVec
	SubscriptionChecks   *prometheus.CounterVec
	BroadcastMessages    *prometheus.CounterVec
	ErrorsTotal          prometheus.Counter
	UsersTotal           prometheus.Gauge
	UpdateProcessingTime prometheus.Histogram
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		UpdatesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calcbot_updates_processed_total",
			Help: "Total number of Telegram updates processed",
		}),

		CalculationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_calculations_total",
			Help: "Total number of calculator evaluations",
		}, []string{"outcome"}),

		SubscriptionChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_subscription_checks_total",
			Help: "Total number of subscription access decisions",
		}, []string{"result"}),

		BroadcastMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_broadcast_messages_total",
			Help: "Total number of broadcast deliveries",
		}, []string{"status"}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calcbot_errors_total",
			Help: "Total number of handler errors and panics",
		}),

		UsersTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "calcbot_users_total",
			Help: "Number of known users",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "calcbot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
