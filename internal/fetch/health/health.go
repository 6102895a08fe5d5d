// Package health reports endpoint health and serves Prometheus metrics.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// EndpointHealth contains health metrics for one remote endpoint.
type EndpointHealth struct {
	Endpoint       string        `json:"endpoint"`
	Status         SystemStatus  `json:"status"`
	Available      bool          `json:"available"`
	ErrorRate      float64       `json:"error_rate"`
	Throttle       string        `json:"throttle"`
	AverageLatency time.Duration `json:"average_latency"`
	Requests1h     int           `json:"requests_1h"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus              `json:"system_status"`
	Endpoints    map[string]EndpointHealth `json:"endpoints"`
	QueuedIDs    map[string]int64          `json:"queued_ids,omitempty"`
}

// Aggregate returns the worst status in report.
func Aggregate(report map[string]EndpointHealth) SystemStatus {
	status := StatusHealthy
	for _, ep := range report {
		if ep.Status == StatusCritical {
			return StatusCritical
		}
		if ep.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
