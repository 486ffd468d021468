package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"bloom-portal/internal/config"
	"bloom-portal/internal/fixtures"
	"bloom-portal/internal/logger"
	"bloom-portal/internal/models"
	"bloom-portal/internal/recordsystem"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

const (
	operationalStatusActive   = "1"
	operationalStatusInactive = "2"

	defaultServiceCategory = "General"
	defaultServiceIcon     = "shield"
)

// serviceRepository serves the service catalog from fixtures or the record
// system, depending on cfg.UseMockData at call time
type serviceRepository struct {
	cfg    *config.RecordSystemConfig
	client recordsystem.Client
	clock  clock.Clock
	logger *logger.Logger

	mu             sync.RWMutex
	services       map[string]models.Service
	configurations map[string]models.ServiceConfiguration
}

// NewServiceRepository creates a service repository seeded with the mock catalog
func NewServiceRepository(cfg *config.RecordSystemConfig, client recordsystem.Client, clk clock.Clock, log *logger.Logger) ServiceRepository {
	services := make(map[string]models.Service)
	for _, s := range fixtures.Services() {
		services[s.ID] = s
	}
	return &serviceRepository{
		cfg:            cfg,
		client:         client,
		clock:          clk,
		logger:         log,
		services:       services,
		configurations: make(map[string]models.ServiceConfiguration),
	}
}

func (r *serviceRepository) ListServices(ctx context.Context) ([]models.Service, error) {
	if r.cfg.UseMockData {
		r.mu.RLock()
		defer r.mu.RUnlock()
		all := make([]models.Service, 0, len(r.services))
		for _, s := range r.services {
			s.Tables = cloneTables(s.Tables)
			all = append(all, s)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		return all, nil
	}

	var resp recordsystem.Response[[]recordsystem.ServiceRecord]
	if err := r.client.Get(ctx, recordsystem.EndpointServices, &resp, recordsystem.WithQuery("sysparm_query", "ORDERBYname")); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	services := make([]models.Service, 0, len(resp.Result))
	for _, rec := range resp.Result {
		services = append(services, ServiceFromRecord(rec))
	}
	return services, nil
}

func (r *serviceRepository) GetService(ctx context.Context, id string) (*models.Service, error) {
	if r.cfg.UseMockData {
		r.mu.RLock()
		defer r.mu.RUnlock()
		s, ok := r.services[id]
		if !ok {
			return nil, nil
		}
		s.Tables = cloneTables(s.Tables)
		return &s, nil
	}

	var resp recordsystem.Response[recordsystem.ServiceRecord]
	if err := r.client.Get(ctx, recordsystem.Record(recordsystem.EndpointServices, id), &resp); err != nil {
		r.logger.WithService(id).WithError(err).Warn("Failed to fetch service")
		return nil, nil
	}
	s := ServiceFromRecord(resp.Result)
	return &s, nil
}

func (r *serviceRepository) CreateService(ctx context.Context, input models.ServiceCreate) (*models.Service, error) {
	category := input.Category
	if category == "" {
		category = defaultServiceCategory
	}

	if r.cfg.UseMockData {
		s := models.Service{
			ID:           "svc-" + uuid.NewString(),
			Name:         input.Name,
			Description:  input.Description,
			Category:     category,
			Status:       models.ServiceStatusInactive,
			LastModified: r.clock.Now().UTC(),
			TenantID:     input.TenantID,
			Icon:         defaultServiceIcon,
		}
		r.mu.Lock()
		r.services[s.ID] = s
		r.mu.Unlock()
		return &s, nil
	}

	body := map[string]string{
		"name":              input.Name,
		"short_description": input.Description,
		"category":          category,
		"company":           input.TenantID,
	}
	var resp recordsystem.Response[recordsystem.ServiceRecord]
	if err := r.client.Post(ctx, recordsystem.EndpointServices, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s := ServiceFromRecord(resp.Result)
	return &s, nil
}

func (r *serviceRepository) UpdateService(ctx context.Context, id string, update models.ServiceUpdate) (*models.Service, error) {
	if r.cfg.UseMockData {
		r.mu.Lock()
		defer r.mu.Unlock()
		s, ok := r.services[id]
		if !ok {
			return nil, ErrServiceNotFound
		}
		s = update.Apply(s)
		s.LastModified = r.clock.Now().UTC()
		r.services[id] = s
		return &s, nil
	}

	var resp recordsystem.Response[recordsystem.ServiceRecord]
	if err := r.client.Patch(ctx, recordsystem.Record(recordsystem.EndpointServices, id), serviceUpdateBody(update), &resp); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	s := ServiceFromRecord(resp.Result)
	return &s, nil
}

func (r *serviceRepository) DeleteService(ctx context.Context, id string) error {
	if r.cfg.UseMockData {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.services, id)
		delete(r.configurations, id)
		return nil
	}

	if err := r.client.Delete(ctx, recordsystem.Record(recordsystem.EndpointServices, id), nil); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

// GetServiceTables returns the tables of the latest published configuration,
// falling back to the catalog's own tables in mock mode.
func (r *serviceRepository) GetServiceTables(ctx context.Context, serviceID string) ([]models.ServiceTable, error) {
	if r.cfg.UseMockData {
		r.mu.RLock()
		defer r.mu.RUnlock()
		if cfg, ok := r.configurations[serviceID]; ok {
			return cloneTables(cfg.Tables), nil
		}
		if s, ok := r.services[serviceID]; ok && s.Tables != nil {
			return cloneTables(s.Tables), nil
		}
		return []models.ServiceTable{}, nil
	}

	rec, err := r.latestConfiguration(ctx, serviceID)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return nil, err
		}
		r.logger.WithService(serviceID).WithError(err).Warn("Failed to fetch service configuration")
		return []models.ServiceTable{}, nil
	}
	if rec == nil || rec.Tables == "" {
		return []models.ServiceTable{}, nil
	}

	var tables []models.ServiceTable
	if err := json.Unmarshal([]byte(rec.Tables), &tables); err != nil {
		r.logger.WithService(serviceID).WithError(err).Warn("Stored configuration has invalid tables")
		return []models.ServiceTable{}, nil
	}
	return tables, nil
}

// GetServiceConfiguration returns the latest published configuration, or
// nil when the service was never published or its stored config is
// unreadable.
func (r *serviceRepository) GetServiceConfiguration(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	if r.cfg.UseMockData {
		r.mu.RLock()
		defer r.mu.RUnlock()
		cfg, ok := r.configurations[serviceID]
		if !ok {
			return nil, nil
		}
		cfg.Tables = cloneTables(cfg.Tables)
		return &cfg, nil
	}

	rec, err := r.latestConfiguration(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service configuration: %w", err)
	}
	if rec == nil || rec.Config == "" {
		return nil, nil
	}

	published := models.ServiceConfiguration{ServiceID: serviceID, Tables: []models.ServiceTable{}}
	if err := json.Unmarshal([]byte(rec.Config), &published.Config); err != nil {
		r.logger.WithService(serviceID).WithError(err).Warn("Stored configuration has invalid config")
		return nil, nil
	}
	if rec.Tables != "" {
		if err := json.Unmarshal([]byte(rec.Tables), &published.Tables); err != nil {
			r.logger.WithService(serviceID).WithError(err).Warn("Stored configuration has invalid tables")
			published.Tables = []models.ServiceTable{}
		}
	}
	return &published, nil
}

func (r *serviceRepository) latestConfiguration(ctx context.Context, serviceID string) (*recordsystem.ConfigurationRecord, error) {
	if err := checkRecordID(serviceID); err != nil {
		return nil, err
	}
	var resp recordsystem.Response[[]recordsystem.ConfigurationRecord]
	err := r.client.Get(ctx, recordsystem.EndpointConfigurations, &resp, recordsystem.WithQueryParams(map[string]string{
		"sysparm_query": fmt.Sprintf("service=%s^ORDERBYDESCsys_created_on", serviceID),
		"sysparm_limit": "1",
	}))
	if err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	return &resp.Result[0], nil
}

// SaveServiceConfiguration publishes tables and config as one record. The
// payload is stored as given.
func (r *serviceRepository) SaveServiceConfiguration(ctx context.Context, serviceID string, tables []models.ServiceTable, config models.ComponentConfig) error {
	if r.cfg.UseMockData {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.configurations[serviceID] = models.ServiceConfiguration{
			ServiceID: serviceID,
			Tables:    cloneTables(tables),
			Config:    config,
		}
		return nil
	}

	encodedTables, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}
	encodedConfig, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	body := map[string]string{
		"service": serviceID,
		"tables":  string(encodedTables),
		"config":  string(encodedConfig),
	}
	if err := r.client.Post(ctx, recordsystem.EndpointConfigurations, body, nil); err != nil {
		return fmt.Errorf("failed to save service configuration: %w", err)
	}
	return nil
}

// ServiceFromRecord maps a record-system service row to the portal model.
func ServiceFromRecord(rec recordsystem.ServiceRecord) models.Service {
	description := rec.ShortDescription
	if description == "" {
		description = rec.Description
	}
	category := rec.Category
	if category == "" {
		category = defaultServiceCategory
	}
	icon := rec.Icon
	if icon == "" {
		icon = defaultServiceIcon
	}
	return models.Service{
		ID:           rec.SysID,
		Name:         rec.Name,
		Description:  description,
		Category:     category,
		Status:       StatusFromRecord(rec.OperationalStatus),
		LastModified: recordsystem.ParseTime(rec.SysUpdatedOn),
		TenantID:     rec.Company.Value,
		Icon:         icon,
	}
}

// StatusFromRecord maps operational_status: "1" is active, anything else inactive.
func StatusFromRecord(operationalStatus string) models.ServiceStatus {
	if operationalStatus == operationalStatusActive {
		return models.ServiceStatusActive
	}
	return models.ServiceStatusInactive
}

// StatusToRecord maps active to "1" and every other status, maintenance
// included, to "2". Maintenance does not survive a round trip.
func StatusToRecord(status models.ServiceStatus) string {
	if status == models.ServiceStatusActive {
		return operationalStatusActive
	}
	return operationalStatusInactive
}

func serviceUpdateBody(update models.ServiceUpdate) map[string]string {
	body := make(map[string]string)
	if update.Name != nil {
		body["name"] = *update.Name
	}
	if update.Description != nil {
		body["short_description"] = *update.Description
	}
	if update.Category != nil {
		body["category"] = *update.Category
	}
	if update.Status != nil {
		body["operational_status"] = StatusToRecord(*update.Status)
	}
	return body
}

func cloneTables(tables []models.ServiceTable) []models.ServiceTable {
	if tables == nil {
		return nil
	}
	out := make([]models.ServiceTable, len(tables))
	for i, t := range tables {
		t.Fields = append([]models.TableField{}, t.Fields...)
		if t.Filters != nil {
			t.Filters = append([]models.TableFilter{}, t.Filters...)
		}
		out[i] = t
	}
	return out
}
