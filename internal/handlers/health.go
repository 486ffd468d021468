package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"bloom-portal/internal/config"
	"bloom-portal/internal/database"
	"bloom-portal/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check endpoints
type HealthHandler struct {
	recordSystem *config.RecordSystemConfig
	db           *database.Connection
	redis        *redis.Client
	clock        clock.Clock
}

// NewHealthHandler creates a new health handler. db and redisClient may be
// nil when those backends are disabled.
func NewHealthHandler(recordSystem *config.RecordSystemConfig, db *database.Connection, redisClient *redis.Client, clk clock.Clock) *HealthHandler {
	return &HealthHandler{
		recordSystem: recordSystem,
		db:           db,
		redis:        redisClient,
		clock:        clk,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                         `json:"status"`
	Timestamp  time.Time                      `json:"timestamp"`
	DataSource string                         `json:"data_source"`
	Components map[string]*models.HealthCheck `json:"components"`
}

// RegisterRoutes registers health endpoints on router
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealthCheck).Methods("GET")
	router.HandleFunc("/health/live", h.HandleLivenessProbe).Methods("GET")
	router.HandleFunc("/health/ready", h.HandleReadinessProbe).Methods("GET")
}

// HandleHealthCheck handles the main health check endpoint
func (h *HealthHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := h.checkComponents(r.Context())

	overallStatus := "healthy"
	for _, component := range components {
		if !component.IsHealthy() {
			overallStatus = "unhealthy"
			break
		}
	}

	dataSource := "live"
	if h.recordSystem.UseMockData {
		dataSource = "mock"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  h.clock.Now(),
		DataSource: dataSource,
		Components: components,
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

// HandleLivenessProbe handles Kubernetes liveness probe
func (h *HealthHandler) HandleLivenessProbe(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleReadinessProbe handles Kubernetes readiness probe
func (h *HealthHandler) HandleReadinessProbe(w http.ResponseWriter, r *http.Request) {
	for _, component := range h.checkComponents(r.Context()) {
		if !component.IsHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Service Unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (h *HealthHandler) checkComponents(ctx context.Context) map[string]*models.HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	components := map[string]*models.HealthCheck{}

	if h.db == nil {
		components["database"] = h.disabled("database", "Activity is kept in memory")
	} else {
		components["database"] = h.probe("database", func() error { return h.db.Ping() })
	}

	if h.redis == nil {
		components["redis"] = h.disabled("redis", "Drafts and credentials are kept in memory")
	} else {
		components["redis"] = h.probe("redis", func() error { return h.redis.Ping(ctx).Err() })
	}

	return components
}

func (h *HealthHandler) probe(component string, ping func() error) *models.HealthCheck {
	start := h.clock.Now()
	check := &models.HealthCheck{
		Component: component,
		Status:    models.HealthStatusHealthy,
	}
	if err := ping(); err != nil {
		check.Status = models.HealthStatusUnhealthy
		check.Message = err.Error()
	}
	check.Timestamp = h.clock.Now()
	check.Duration = h.clock.Since(start).Milliseconds()
	return check
}

func (h *HealthHandler) disabled(component, message string) *models.HealthCheck {
	return &models.HealthCheck{
		Component: component,
		Status:    models.HealthStatusDisabled,
		Message:   message,
		Timestamp: h.clock.Now(),
	}
}
