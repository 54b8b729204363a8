package wavpack

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusSoft    = "soft_failure"
	statusError   = "error"
)

// ResourceMonitor tracks live wavpack/wvunpack processes and invocation outcomes
type ResourceMonitor struct {
	mu                sync.RWMutex
	activeProcesses   map[int]time.Time // PID -> start time
	totalInvocations  int64
	failedInvocations int64
	softFailures      int64

	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	activeGauge        prometheus.Gauge
}

var (
	monitorInstance *ResourceMonitor
	monitorOnce     sync.Once
)

// GetMonitor returns the global resource monitor instance
func GetMonitor() *ResourceMonitor {
	monitorOnce.Do(func() {
		monitorInstance = newResourceMonitor()
	})
	return monitorInstance
}

func newResourceMonitor() *ResourceMonitor {
	return &ResourceMonitor{
		activeProcesses: make(map[int]time.Time),

		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wavpack_invocations_total",
				Help: "Total number of wavpack/wvunpack invocations",
			},
			[]string{"program", "status"},
		),

		invocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wavpack_invocation_duration_seconds",
				Help:    "Wall time of wavpack/wvunpack invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"program"},
		),

		activeGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wavpack_active_processes",
			Help: "Number of wavpack/wvunpack processes currently running",
		}),
	}
}

// Register adds the monitor's collectors to reg. Collectors that are
// already registered are not an error.
func (m *ResourceMonitor) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.invocationsTotal, m.invocationDuration, m.activeGauge} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// TrackProcess registers a started process
func (m *ResourceMonitor) TrackProcess(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeProcesses[pid] = time.Now()
	m.totalInvocations++
	m.activeGauge.Inc()
}

// UntrackProcess removes a reaped process
func (m *ResourceMonitor) UntrackProcess(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activeProcesses[pid]; ok {
		delete(m.activeProcesses, pid)
		m.activeGauge.Dec()
	}
}

// RecordResult counts one finished invocation of program.
func (m *ResourceMonitor) RecordResult(program, status string, elapsed time.Duration) {
	m.mu.Lock()
	switch status {
	case statusError:
		m.failedInvocations++
	case statusSoft:
		m.softFailures++
	}
	m.mu.Unlock()

	m.invocationsTotal.WithLabelValues(program, status).Inc()
	m.invocationDuration.WithLabelValues(program).Observe(elapsed.Seconds())
}

// ActiveProcesses returns the number of live processes
func (m *ResourceMonitor) ActiveProcesses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.activeProcesses)
}

// TotalInvocations returns the number of processes started
func (m *ResourceMonitor) TotalInvocations() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalInvocations
}

// FailedInvocations returns the number of hard failures
func (m *ResourceMonitor) FailedInvocations() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failedInvocations
}

// SoftFailures returns the number of non-zero exits that still produced output
func (m *ResourceMonitor) SoftFailures() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.softFailures
}

// MonitorStats is a snapshot of the monitor counters
type MonitorStats struct {
	ActiveProcesses   int
	TotalInvocations  int64
	FailedInvocations int64
	SoftFailures      int64
	SuccessRate       float64
	OldestProcessAge  time.Duration
}

// GetStats returns current resource monitoring statistics
func (m *ResourceMonitor) GetStats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MonitorStats{
		ActiveProcesses:   len(m.activeProcesses),
		TotalInvocations:  m.totalInvocations,
		FailedInvocations: m.failedInvocations,
		SoftFailures:      m.softFailures,
		SuccessRate:       100.0,
	}

	if m.totalInvocations > 0 {
		successful := m.totalInvocations - m.failedInvocations
		stats.SuccessRate = float64(successful) / float64(m.totalInvocations) * 100.0
	}

	if len(m.activeProcesses) > 0 {
		oldest := time.Now()
		for _, startTime := range m.activeProcesses {
			if startTime.Before(oldest) {
				oldest = startTime
			}
		}
		stats.OldestProcessAge = time.Since(oldest)
	}

	return stats
}

// Reset clears the in-memory counters. Prometheus counters are monotonic
// and are left untouched.
func (m *ResourceMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeProcesses = make(map[int]time.Time)
	m.totalInvocations = 0
	m.failedInvocations = 0
	m.softFailures = 0
	m.activeGauge.Set(0)
}
