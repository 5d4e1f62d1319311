package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Block metrics
	BlocksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kestrel_blocks_total",
			Help: "Total number of blocks by service and status",
		},
		[]string{"service", "status"},
	)

	ServicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kestrel_services_total",
			Help: "Total number of services in the active profile",
		},
	)

	ActiveProfile = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kestrel_active_profile",
			Help: "Always 1, labeled with the currently active profile id",
		},
		[]string{"profile"},
	)

	// Task metrics
	TasksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kestrel_tasks_total",
			Help: "Total number of tasks by status",
		},
		[]string{"status"},
	)

	TasksFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_tasks_finished_total",
			Help: "Total number of tasks that finished, by outcome",
		},
		[]string{"outcome"},
	)

	// Output store metrics
	OutputLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_output_lines_total",
			Help: "Total output lines appended, by kind",
		},
		[]string{"kind"},
	)

	OutputBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kestrel_output_buckets_total",
			Help: "Total number of distinct output store buckets",
		},
	)

	// Requirement checker metrics
	RequirementChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_requirement_checks_total",
			Help: "Total requirement checks performed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RequirementCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kestrel_requirement_check_duration_seconds",
			Help:    "Requirement check duration in seconds, by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Process wrapper metrics
	ProcessesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kestrel_processes_running",
			Help: "Number of currently supervised child processes",
		},
	)

	ProcessTerminationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_process_terminations_total",
			Help: "Total process terminations, by final signal stage",
		},
		[]string{"stage"},
	)

	// Sequence / work metrics
	WorkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kestrel_work_duration_seconds",
			Help:    "Time a block spent in PerformWork, by service and block",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "block"},
	)

	// Automation metrics
	AutomationsTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_automations_triggered_total",
			Help: "Total automation dispatches, by service and automation name",
		},
		[]string{"service", "automation"},
	)

	// Worker loop metrics
	WorkerTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kestrel_worker_tick_duration_seconds",
			Help:    "Duration of one worker loop tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(BlocksTotal)
	prometheus.MustRegister(ServicesTotal)
	prometheus.MustRegister(ActiveProfile)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TasksFinishedTotal)
	prometheus.MustRegister(OutputLinesTotal)
	prometheus.MustRegister(OutputBucketsTotal)
	prometheus.MustRegister(RequirementChecksTotal)
	prometheus.MustRegister(RequirementCheckDuration)
	prometheus.MustRegister(ProcessesRunning)
	prometheus.MustRegister(ProcessTerminationsTotal)
	prometheus.MustRegister(WorkDuration)
	prometheus.MustRegister(AutomationsTriggeredTotal)
	prometheus.MustRegister(WorkerTickDuration)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
