package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codequiz"

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	Registry *prometheus.Registry

	ExamsGenerated    prometheus.Counter
	ExamShortfalls    prometheus.Counter
	TrainingOrders    prometheus.Counter
	AttemptsRecorded  *prometheus.CounterVec
	OrphanAttempts    prometheus.Counter
	SelectionDuration *prometheus.HistogramVec
	RemindersSent     prometheus.Counter
	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
}

// New creates a metrics set on its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ExamsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "exams_generated_total",
			Help:      "Total number of exams assembled",
		}),
		ExamShortfalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "exam_shortfalls_total",
			Help:      "Exams that returned fewer questions than requested",
		}),
		TrainingOrders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "training_orders_total",
			Help:      "Total number of training orders computed",
		}),
		AttemptsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "attempts_recorded_total",
				Help:      "Recorded attempts by correctness",
			},
			[]string{"result"},
		),
		OrphanAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "orphan_attempts_total",
			Help:      "Attempts skipped because their question is missing",
		}),
		SelectionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "duration_seconds",
				Help:      "Time spent selecting questions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "reminders_sent_total",
			Help:      "Review reminders delivered",
		}),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Question cache lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveAttempt counts one recorded attempt
func (m *Metrics) ObserveAttempt(correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.AttemptsRecorded.WithLabelValues(result).Inc()
}
