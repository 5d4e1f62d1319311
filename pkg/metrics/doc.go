/*
Package metrics provides Prometheus metrics collection, health probes and
readiness reporting for kestrel.

Metrics are package-level prometheus.Collector values registered at init
time, grouped by the component that updates them: blocks, tasks, the output
store, the requirement checker, process wrapper and the worker loop. A
Collector polls a StatsSource (satisfied by pkg/system's state accessor)
every 15s to refresh the gauge-shaped metrics. The counters, histograms and
the ProcessesRunning gauge are registered and exported, but no component
updates them, so they stay at their zero values.

health.go tracks liveness of kestrel's own goroutines — not of anything it
supervises — and backs the /health, /ready and /live HTTP endpoints wired
up in cmd/kestrel. Readiness is derived from whichever components were
registered critical, so it can never name a component cmd/kestrel doesn't
actually register.

	metrics.RegisterComponent("engine", true, "", true)
	http.Handle("/metrics", metrics.Handler())
	http.Handle("/health", metrics.HealthHandler())
*/
package metrics
