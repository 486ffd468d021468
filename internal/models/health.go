package models

import "time"

// HealthStatus represents the health status of a system component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDisabled  HealthStatus = "disabled"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Component string                 `json:"component"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Duration  int64                  `json:"duration"` // in milliseconds
	Timestamp time.Time              `json:"timestamp"`
}

// IsHealthy returns false only for unhealthy components; disabled
// components do not count against readiness.
func (h *HealthCheck) IsHealthy() bool {
	return h.Status != HealthStatusUnhealthy
}
