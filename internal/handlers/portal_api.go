package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"bloom-portal/internal/builder"
	"bloom-portal/internal/config"
	"bloom-portal/internal/logger"
	"bloom-portal/internal/models"
	"bloom-portal/internal/recordsystem"
	"bloom-portal/internal/repositories"
)

// PortalAPI is the tenant, service and catalog surface served under /api/v1
type PortalAPI interface {
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	ListDomains(ctx context.Context) ([]models.Domain, error)
	GrantService(ctx context.Context, tenantID, serviceID string) error
	RevokeService(ctx context.Context, tenantID, serviceID string) error
	CreateTenant(ctx context.Context, input models.TenantCreate) (*models.Tenant, error)
	UpdateTenantSettings(ctx context.Context, tenantID string, settings models.TenantSettings) error
	ListServices(ctx context.Context) ([]models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, input models.ServiceCreate) (*models.Service, error)
	UpdateService(ctx context.Context, id string, update models.ServiceUpdate) (*models.Service, error)
	DeleteService(ctx context.Context, id string) error
	GetServiceTables(ctx context.Context, serviceID string) ([]models.ServiceTable, error)
	SaveServiceConfiguration(ctx context.Context, serviceID string, tables []models.ServiceTable, cfg models.ComponentConfig) error
	ListTableCatalog(ctx context.Context) ([]models.TableCatalogEntry, error)
	ListFilterFields(ctx context.Context, tableName string) ([]models.FilterFieldOption, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
	ServicesByCategory(ctx context.Context) ([]models.CategorySummary, error)
	TenantServiceAccess(ctx context.Context, tenantID string) (*models.TenantServiceAccess, error)
	RecentActivity(ctx context.Context, limit int) ([]*models.Activity, error)
}

// BuilderAPI edits and publishes service configuration drafts
type BuilderAPI interface {
	Open(ctx context.Context, serviceID string) (*builder.Draft, error)
	AddTable(ctx context.Context, serviceID, catalogID string) (*builder.Draft, error)
	RemoveTable(ctx context.Context, serviceID, tableID string) (*builder.Draft, error)
	ToggleField(ctx context.Context, serviceID, tableID, fieldID string) (*builder.Draft, error)
	AddFilter(ctx context.Context, serviceID string, filter models.TableFilter) (*builder.Draft, error)
	UpdateFilter(ctx context.Context, serviceID, filterID string, update builder.FilterUpdate) (*builder.Draft, error)
	RemoveFilter(ctx context.Context, serviceID, filterID string) (*builder.Draft, error)
	UpdateConfig(ctx context.Context, serviceID string, update builder.ConfigUpdate) (*builder.Draft, error)
	Reset(ctx context.Context, serviceID string) (*builder.Draft, error)
	SaveDraft(ctx context.Context, serviceID string) (*builder.Draft, error)
	Preview(ctx context.Context, serviceID string) (*builder.Preview, error)
	Publish(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error)
}

// TokenSetter receives the bearer token used for record-system calls
type TokenSetter interface {
	SetAuthToken(token string)
}

// PortalAPIHandler serves the portal REST API
type PortalAPIHandler struct {
	logger    *logger.Logger
	portal    PortalAPI
	builder   BuilderAPI
	tokens    TokenSetter
	limiter   *rate.Limiter
	validator *models.ValidationService

	rateLimitCounter prometheus.Counter
	apiUsageCounter  *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
}

// NewPortalAPIHandler creates a new portal API handler
func NewPortalAPIHandler(
	log *logger.Logger,
	cfg *config.Config,
	portal PortalAPI,
	drafts BuilderAPI,
	tokens TokenSetter,
	registerer prometheus.Registerer,
) *PortalAPIHandler {
	rps := rate.Limit(cfg.API.RateLimitRPS)
	if cfg.API.RateLimitRPS <= 0 {
		rps = rate.Inf
	}
	factory := promauto.With(registerer)

	return &PortalAPIHandler{
		logger:    log,
		portal:    portal,
		builder:   drafts,
		tokens:    tokens,
		limiter:   rate.NewLimiter(rps, cfg.API.RateLimitBurst),
		validator: models.NewValidationService(),
		rateLimitCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_api_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		}),
		apiUsageCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Total number of portal API requests",
		}, []string{"method", "route", "status"}),
		apiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "Portal API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RegisterRoutes registers the portal API under /api/v1
func (h *PortalAPIHandler) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Use(h.rateLimitMiddleware)
	v1.Use(h.usageAnalyticsMiddleware)

	// Tenants
	v1.HandleFunc("/tenants", h.ListTenants).Methods("GET")
	v1.HandleFunc("/tenants", h.CreateTenant).Methods("POST")
	v1.HandleFunc("/tenants/{id}", h.GetTenant).Methods("GET")
	v1.HandleFunc("/tenants/{id}/settings", h.UpdateTenantSettings).Methods("PUT")
	v1.HandleFunc("/tenants/{id}/services/{serviceId}", h.GrantService).Methods("PUT")
	v1.HandleFunc("/tenants/{id}/services/{serviceId}", h.RevokeService).Methods("DELETE")
	v1.HandleFunc("/tenants/{id}/service-access", h.GetTenantServiceAccess).Methods("GET")

	// Domains
	v1.HandleFunc("/domains", h.ListDomains).Methods("GET")

	// Services; categories before {id}
	v1.HandleFunc("/services", h.ListServices).Methods("GET")
	v1.HandleFunc("/services", h.CreateService).Methods("POST")
	v1.HandleFunc("/services/categories", h.ListServiceCategories).Methods("GET")
	v1.HandleFunc("/services/{id}", h.GetService).Methods("GET")
	v1.HandleFunc("/services/{id}", h.UpdateService).Methods("PATCH")
	v1.HandleFunc("/services/{id}", h.DeleteService).Methods("DELETE")
	v1.HandleFunc("/services/{id}/tables", h.GetServiceTables).Methods("GET")
	v1.HandleFunc("/services/{id}/configuration", h.SaveServiceConfiguration).Methods("POST")

	// Configuration builder
	b := v1.PathPrefix("/services/{id}/builder").Subrouter()
	b.HandleFunc("", h.GetDraft).Methods("GET")
	b.HandleFunc("/tables", h.AddDraftTable).Methods("POST")
	b.HandleFunc("/tables/{tableId}", h.RemoveDraftTable).Methods("DELETE")
	b.HandleFunc("/tables/{tableId}/fields/{fieldId}/toggle", h.ToggleDraftField).Methods("POST")
	b.HandleFunc("/filters", h.AddDraftFilter).Methods("POST")
	b.HandleFunc("/filters/{filterId}", h.UpdateDraftFilter).Methods("PATCH")
	b.HandleFunc("/filters/{filterId}", h.RemoveDraftFilter).Methods("DELETE")
	b.HandleFunc("/config", h.UpdateDraftConfig).Methods("PATCH")
	b.HandleFunc("/reset", h.ResetDraft).Methods("POST")
	b.HandleFunc("/draft", h.SaveDraft).Methods("POST")
	b.HandleFunc("/preview", h.PreviewDraft).Methods("GET")
	b.HandleFunc("/publish", h.PublishDraft).Methods("POST")

	// Catalog
	v1.HandleFunc("/catalog/tables", h.ListCatalogTables).Methods("GET")
	v1.HandleFunc("/catalog/tables/{tableName}/fields", h.ListCatalogFields).Methods("GET")

	// Platform
	v1.HandleFunc("/platform/stats", h.GetPlatformStats).Methods("GET")
	v1.HandleFunc("/activity", h.ListActivity).Methods("GET")
	v1.HandleFunc("/record-system/token", h.SetRecordSystemToken).Methods("PUT")
}

// Tenant handlers

func (h *PortalAPIHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.portal.ListTenants(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list tenants", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tenants)
}

func (h *PortalAPIHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tenant, err := h.portal.GetTenant(r.Context(), id)
	if err != nil {
		h.writeError(w, "Failed to get tenant", err)
		return
	}
	if tenant == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tenant)
}

func (h *PortalAPIHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var input models.TenantCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tenant, err := h.portal.CreateTenant(r.Context(), input)
	if err != nil {
		h.writeError(w, "Failed to create tenant", err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, tenant)
}

func (h *PortalAPIHandler) UpdateTenantSettings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var settings models.TenantSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.portal.UpdateTenantSettings(r.Context(), id, settings); err != nil {
		h.writeError(w, "Failed to update tenant settings", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortalAPIHandler) GrantService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.portal.GrantService(r.Context(), vars["id"], vars["serviceId"]); err != nil {
		h.writeError(w, "Failed to grant service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortalAPIHandler) RevokeService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.portal.RevokeService(r.Context(), vars["id"], vars["serviceId"]); err != nil {
		h.writeError(w, "Failed to revoke service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortalAPIHandler) GetTenantServiceAccess(w http.ResponseWriter, r *http.Request) {
	access, err := h.portal.TenantServiceAccess(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Failed to get service access", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, access)
}

func (h *PortalAPIHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.portal.ListDomains(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list domains", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, domains)
}

// Service handlers

func (h *PortalAPIHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.portal.ListServices(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list services", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, services)
}

func (h *PortalAPIHandler) ListServiceCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.portal.ServicesByCategory(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list service categories", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, categories)
}

func (h *PortalAPIHandler) GetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.portal.GetService(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Failed to get service", err)
		return
	}
	if service == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "Service not found", nil)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, service)
}

func (h *PortalAPIHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var input models.ServiceCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	service, err := h.portal.CreateService(r.Context(), input)
	if err != nil {
		h.writeError(w, "Failed to create service", err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, service)
}

func (h *PortalAPIHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var update models.ServiceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	service, err := h.portal.UpdateService(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		h.writeError(w, "Failed to update service", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, service)
}

func (h *PortalAPIHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.portal.DeleteService(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, "Failed to delete service", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortalAPIHandler) GetServiceTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.portal.GetServiceTables(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Failed to get service tables", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tables)
}

func (h *PortalAPIHandler) SaveServiceConfiguration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload models.ServiceConfiguration
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if payload.Tables == nil {
		payload.Tables = []models.ServiceTable{}
	}
	if err := h.validateConfiguration(payload); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid configuration", err)
		return
	}

	if err := h.portal.SaveServiceConfiguration(r.Context(), id, payload.Tables, payload.Config); err != nil {
		h.writeError(w, "Failed to save configuration", err)
		return
	}
	payload.ServiceID = id
	h.writeJSONResponse(w, http.StatusOK, payload)
}

// validateConfiguration checks a submitted component config and every
// table filter.
func (h *PortalAPIHandler) validateConfiguration(payload models.ServiceConfiguration) error {
	if err := h.validator.ValidateStruct(payload.Config); err != nil {
		return err
	}
	for _, table := range payload.Tables {
		for _, filter := range table.Filters {
			if err := h.validator.ValidateStruct(filter); err != nil {
				return err
			}
		}
	}
	return nil
}

// Builder handlers

type addTableRequest struct {
	TableID string `json:"tableId"`
}

func (h *PortalAPIHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.builder.Open(r.Context(), mux.Vars(r)["id"])
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) AddDraftTable(w http.ResponseWriter, r *http.Request) {
	var req addTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TableID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Request body must name a tableId", err)
		return
	}
	draft, err := h.builder.AddTable(r.Context(), mux.Vars(r)["id"], req.TableID)
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) RemoveDraftTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	draft, err := h.builder.RemoveTable(r.Context(), vars["id"], vars["tableId"])
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) ToggleDraftField(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	draft, err := h.builder.ToggleField(r.Context(), vars["id"], vars["tableId"], vars["fieldId"])
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) AddDraftFilter(w http.ResponseWriter, r *http.Request) {
	var filter models.TableFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	draft, err := h.builder.AddFilter(r.Context(), mux.Vars(r)["id"], filter)
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) UpdateDraftFilter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var update builder.FilterUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	draft, err := h.builder.UpdateFilter(r.Context(), vars["id"], vars["filterId"], update)
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) RemoveDraftFilter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	draft, err := h.builder.RemoveFilter(r.Context(), vars["id"], vars["filterId"])
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) UpdateDraftConfig(w http.ResponseWriter, r *http.Request) {
	var update builder.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	draft, err := h.builder.UpdateConfig(r.Context(), mux.Vars(r)["id"], update)
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) ResetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.builder.Reset(r.Context(), mux.Vars(r)["id"])
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.builder.SaveDraft(r.Context(), mux.Vars(r)["id"])
	h.writeDraft(w, draft, err)
}

func (h *PortalAPIHandler) PreviewDraft(w http.ResponseWriter, r *http.Request) {
	preview, err := h.builder.Preview(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Failed to render preview", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, preview)
}

func (h *PortalAPIHandler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	payload, err := h.builder.Publish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Failed to publish configuration", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, payload)
}

func (h *PortalAPIHandler) writeDraft(w http.ResponseWriter, draft *builder.Draft, err error) {
	if err != nil {
		h.writeError(w, "Draft operation failed", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, draft)
}

// Catalog and platform handlers

func (h *PortalAPIHandler) ListCatalogTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.portal.ListTableCatalog(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list tables", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tables)
}

func (h *PortalAPIHandler) ListCatalogFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.portal.ListFilterFields(r.Context(), mux.Vars(r)["tableName"])
	if err != nil {
		h.writeError(w, "Failed to list fields", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, fields)
}

func (h *PortalAPIHandler) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.portal.PlatformStats(r.Context())
	if err != nil {
		h.writeError(w, "Failed to compute platform stats", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, stats)
}

func (h *PortalAPIHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			h.writeErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 200", err)
			return
		}
		limit = parsed
	}

	activity, err := h.portal.RecentActivity(r.Context(), limit)
	if err != nil {
		h.writeError(w, "Failed to list activity", err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, activity)
}

type tokenRequest struct {
	Token string `json:"token"`
}

// SetRecordSystemToken replaces the bearer token used for record-system
// calls; an empty token falls back to the stored basic credential
func (h *PortalAPIHandler) SetRecordSystemToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.tokens.SetAuthToken(req.Token)
	w.WriteHeader(http.StatusNoContent)
}

// Middleware

func (h *PortalAPIHandler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.rateLimitCounter.Inc()
			h.writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *PortalAPIHandler) usageAnalyticsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		h.apiUsageCounter.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		h.apiDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Helper methods

// statusFor maps domain and upstream errors to HTTP status codes
func statusFor(err error) int {
	var apiErr *recordsystem.APIError
	switch {
	case errors.Is(err, recordsystem.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, builder.ErrTableAlreadySelected):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrTenantNotFound),
		errors.Is(err, repositories.ErrServiceNotFound),
		errors.Is(err, repositories.ErrDraftNotFound),
		errors.Is(err, builder.ErrTableNotFound),
		errors.Is(err, builder.ErrFieldNotFound),
		errors.Is(err, builder.ErrFilterNotFound),
		recordsystem.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *PortalAPIHandler) writeError(w http.ResponseWriter, message string, err error) {
	h.writeErrorResponse(w, statusFor(err), message, err)
}

func (h *PortalAPIHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *PortalAPIHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error":     message,
		"status":    statusCode,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err != nil {
		entry := h.logger.WithError(err).WithField("status", statusCode)
		if statusCode >= http.StatusInternalServerError {
			entry.Error(message)
		} else {
			entry.Warn(message)
		}
		response["details"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// responseWriter records the status code written by a handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
