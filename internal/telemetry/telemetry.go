package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devopsmon"

var histogramBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the monitor's own Prometheus instruments. A nil *Metrics is
// valid and records nothing, so components can be built without telemetry.
type Metrics struct {
	samples     *prometheus.CounterVec
	logEntries  *prometheus.CounterVec
	alerts      *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	gatherer    prometheus.Gatherer
}

// New creates the instruments and registers them with reg. When reg is nil
// the default registry is used. Instruments that are already registered are
// reused.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "samples_total",
			Help:      "Sampling group runs by outcome",
		}, []string{"group", "outcome"}),
		logEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_saved_total",
			Help:      "Log entries written to the store by outcome",
		}, []string{"log_type", "outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dispatched_total",
			Help:      "Alert notifications by alert type and outcome",
		}, []string{"type", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled jobs",
			Buckets:   histogramBuckets,
		}, []string{"job"}),
		gatherer: prometheus.DefaultGatherer,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	m.samples = register(reg, m.samples)
	m.logEntries = register(reg, m.logEntries)
	m.alerts = register(reg, m.alerts)
	m.jobDuration = register(reg, m.jobDuration)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// Handler serves the registry the instruments were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveSample counts one sampling group run.
func (m *Metrics) ObserveSample(group string, err error) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(group, outcome(err)).Inc()
}

// AddLogEntries counts saved and failed log entries for a log type.
func (m *Metrics) AddLogEntries(logType string, saved, failed int) {
	if m == nil {
		return
	}
	m.logEntries.WithLabelValues(logType, OutcomeOK).Add(float64(saved))
	m.logEntries.WithLabelValues(logType, OutcomeError).Add(float64(failed))
}

// ObserveAlert counts one dispatched notification.
func (m *Metrics) ObserveAlert(alertType string, err error) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(alertType, outcome(err)).Inc()
}

// ObserveJob records how long a scheduled job took.
func (m *Metrics) ObserveJob(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
