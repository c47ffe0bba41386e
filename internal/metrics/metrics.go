package metrics

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Manager owns the console's Prometheus registry and collectors.
type Manager struct {
	registry *prometheus.Registry

	storeOpsTotal     *prometheus.CounterVec
	storeOpDuration   *prometheus.HistogramVec
	updatesTotal      *prometheus.CounterVec
	mutationsTotal    *prometheus.CounterVec
	httpRequestsTotal *prometheus.CounterVec

	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec
	goGoroutines      prometheus.Gauge
	goHeapAlloc       prometheus.Gauge
}

// NewManager creates and registers all collectors on a fresh registry.
func NewManager() *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
		storeOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_operations_total",
				Help: "Total number of remote store operations",
			},
			[]string{"collection", "op", "result"},
		),
		storeOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_operation_duration_seconds",
				Help:    "Duration of remote store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),
		updatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_updates_total",
				Help: "Total number of Telegram updates processed",
			},
			[]string{"kind", "result"},
		),
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_mutations_total",
				Help: "Total number of moderator mutations",
			},
			[]string{"screen", "action", "result"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		systemCPUUsage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_cpu_usage_percent",
				Help: "Current CPU usage percentage",
			},
			[]string{"core"},
		),
		systemMemoryUsage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
			[]string{"type"},
		),
		goGoroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_goroutines",
				Help: "Number of goroutines that currently exist",
			},
		),
		goHeapAlloc: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_heap_alloc_bytes",
				Help: "Heap memory usage in bytes",
			},
		),
	}

	m.registry.MustRegister(
		m.storeOpsTotal,
		m.storeOpDuration,
		m.updatesTotal,
		m.mutationsTotal,
		m.httpRequestsTotal,
		m.systemCPUUsage,
		m.systemMemoryUsage,
		m.goGoroutines,
		m.goHeapAlloc,
	)
	return m
}

// Registry returns the registry served on /metrics.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveStoreOp records one remote store call.
func (m *Manager) ObserveStoreOp(collection, op string, duration time.Duration, err error) {
	m.storeOpsTotal.WithLabelValues(collection, op, resultLabel(err)).Inc()
	m.storeOpDuration.WithLabelValues(collection, op).Observe(duration.Seconds())
}

// RecordUpdate records one processed Telegram update.
func (m *Manager) RecordUpdate(kind string, err error) {
	m.updatesTotal.WithLabelValues(kind, resultLabel(err)).Inc()
}

// RecordMutation records the outcome of a moderator action on a screen.
func (m *Manager) RecordMutation(screen, action string, err error) {
	m.mutationsTotal.WithLabelValues(screen, action, resultLabel(err)).Inc()
}

// StartHostMetrics samples host and runtime gauges every interval until ctx is done.
func (m *Manager) StartHostMetrics(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("Host metrics collection stopped")
				return
			case <-ticker.C:
				m.collectHostMetrics()
			}
		}
	}()
}

func (m *Manager) collectHostMetrics() {
	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			m.systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	if vmstat, err := mem.VirtualMemory(); err == nil {
		m.systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		m.systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		m.systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.goGoroutines.Set(float64(runtime.NumGoroutine()))
	m.goHeapAlloc.Set(float64(ms.HeapAlloc))
}
