package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// Source is an endpoint whose health can be sampled.
type Source interface {
	Name() string
	Health() provider.HealthStatus
}

// QueueCounter reports how many ids wait in a backend's failure queue.
type QueueCounter interface {
	Pending(ctx context.Context, backend string) (int64, error)
}

// Monitor aggregates health status from the endpoints and the failure queue.
type Monitor struct {
	sources  []Source
	queue    QueueCounter
	backends []string
	interval time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor.
func NewMonitor(sources []Source) *Monitor {
	return &Monitor{
		sources:  sources,
		interval: 10 * time.Second,
	}
}

// WithQueue adds the failure queue depth of each backend to the report.
func (m *Monitor) WithQueue(queue QueueCounter, backends ...string) *Monitor {
	m.queue = queue
	m.backends = backends
	return m
}

// CheckHealth samples every source. Results are cached for a short interval.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.interval {
		return *m.lastReport
	}

	report := HealthReport{Endpoints: make(map[string]EndpointHealth, len(m.sources))}
	for _, src := range m.sources {
		eh := evaluate(src.Name(), src.Health())
		report.Endpoints[eh.Endpoint] = eh
	}

	if m.queue != nil {
		report.QueuedIDs = make(map[string]int64, len(m.backends))
		for _, b := range m.backends {
			if n, err := m.queue.Pending(ctx, b); err == nil {
				report.QueuedIDs[b] = n
			}
		}
	}
	report.SystemStatus = Aggregate(report.Endpoints)

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}

func evaluate(name string, h provider.HealthStatus) EndpointHealth {
	eh := EndpointHealth{
		Endpoint:  name,
		Status:    StatusHealthy,
		Available: h.Available,
		ErrorRate: h.ErrorRate,
		Throttle:  provider.StatusHealthy.String(),
	}

	throttle := provider.StatusHealthy
	if stats := h.MonitorStats; stats != nil {
		throttle = stats.Status
		eh.Throttle = stats.Status.String()
		eh.AverageLatency = stats.AverageLatency
		eh.Requests1h = stats.RequestsLast1Hour
	}

	switch {
	case !h.Available || throttle == provider.StatusBlocked:
		eh.Status = StatusCritical
	case throttle == provider.StatusThrottled, throttle == provider.StatusDegraded, h.ErrorRate > 0.1:
		eh.Status = StatusDegraded
	}
	return eh
}
