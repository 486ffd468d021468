package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bloom-portal/internal/config"
	"bloom-portal/internal/logger"
	"bloom-portal/internal/models"
	"bloom-portal/internal/repositories"
)

// PortalService exposes tenant, domain, service and catalog data to the API
// through the query cache and records an activity entry for every
// successful mutation.
type PortalService struct {
	tenants    repositories.TenantRepository
	services   repositories.ServiceRepository
	catalog    repositories.CatalogRepository
	activities repositories.ActivityRepository
	queries    *QueryClient
	validator  *models.ValidationService
	config     *config.Config
	logger     *logger.Logger
}

// NewPortalService creates a new portal service
func NewPortalService(
	tenants repositories.TenantRepository,
	services repositories.ServiceRepository,
	catalog repositories.CatalogRepository,
	activities repositories.ActivityRepository,
	queries *QueryClient,
	validator *models.ValidationService,
	cfg *config.Config,
	log *logger.Logger,
) *PortalService {
	return &PortalService{
		tenants:    tenants,
		services:   services,
		catalog:    catalog,
		activities: activities,
		queries:    queries,
		validator:  validator,
		config:     cfg,
		logger:     log,
	}
}

func (s *PortalService) tenantsStale() time.Duration {
	return time.Duration(s.config.Cache.TenantsStaleTime) * time.Second
}

func (s *PortalService) servicesStale() time.Duration {
	return time.Duration(s.config.Cache.ServicesStaleTime) * time.Second
}

func (s *PortalService) domainsStale() time.Duration {
	return time.Duration(s.config.Cache.DomainsStaleTime) * time.Second
}

// ListTenants returns all tenants
func (s *PortalService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return Query(ctx, s.queries, TenantsKey, s.tenantsStale(), s.tenants.ListTenants)
}

// GetTenant returns a tenant or nil when it does not exist
func (s *PortalService) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	return Query(ctx, s.queries, TenantKey(id), s.tenantsStale(), func(ctx context.Context) (*models.Tenant, error) {
		return s.tenants.GetTenant(ctx, id)
	})
}

// ListDomains returns all domains with their tenants
func (s *PortalService) ListDomains(ctx context.Context) ([]models.Domain, error) {
	return Query(ctx, s.queries, DomainsKey, s.domainsStale(), s.tenants.ListDomains)
}

// GrantService adds a service to a tenant's list
func (s *PortalService) GrantService(ctx context.Context, tenantID, serviceID string) error {
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.tenants.GrantService(ctx, tenantID, serviceID)
	}, TenantsKey, DomainsKey)
	if err != nil {
		return err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeTenant,
		Title:        "Service access granted",
		Description:  fmt.Sprintf("Granted %s to %s", serviceID, tenantID),
		ResourceType: "tenant",
		ResourceID:   tenantID,
		TenantID:     tenantID,
		Details:      models.JSONMap{"serviceId": serviceID},
	})
	return nil
}

// RevokeService removes a service from a tenant's list
func (s *PortalService) RevokeService(ctx context.Context, tenantID, serviceID string) error {
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.tenants.RevokeService(ctx, tenantID, serviceID)
	}, TenantsKey, DomainsKey)
	if err != nil {
		return err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeTenant,
		Title:        "Service access revoked",
		Description:  fmt.Sprintf("Revoked %s from %s", serviceID, tenantID),
		ResourceType: "tenant",
		ResourceID:   tenantID,
		TenantID:     tenantID,
		Details:      models.JSONMap{"serviceId": serviceID},
	})
	return nil
}

// CreateTenant validates input and creates a tenant with no services
func (s *PortalService) CreateTenant(ctx context.Context, input models.TenantCreate) (*models.Tenant, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	var created *models.Tenant
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		t, err := s.tenants.CreateTenant(ctx, input)
		created = t
		return err
	}, TenantsKey, DomainsKey)
	if err != nil {
		return nil, err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeTenant,
		Title:        "Tenant created",
		Description:  created.Name,
		ResourceType: "tenant",
		ResourceID:   created.ID,
		TenantID:     created.ID,
	})
	return created, nil
}

// UpdateTenantSettings replaces a tenant's settings
func (s *PortalService) UpdateTenantSettings(ctx context.Context, tenantID string, settings models.TenantSettings) error {
	if err := s.validator.ValidateStruct(settings); err != nil {
		return err
	}

	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.tenants.UpdateTenantSettings(ctx, tenantID, settings)
	}, TenantsKey, DomainsKey)
	if err != nil {
		return err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeTenant,
		Title:        "Tenant settings updated",
		ResourceType: "tenant",
		ResourceID:   tenantID,
		TenantID:     tenantID,
		Details:      models.JSONMap{"features": len(settings.Features)},
	})
	return nil
}

// ListServices returns the service catalog
func (s *PortalService) ListServices(ctx context.Context) ([]models.Service, error) {
	return Query(ctx, s.queries, ServicesKey, s.servicesStale(), s.services.ListServices)
}

// GetService returns a service or nil when it does not exist
func (s *PortalService) GetService(ctx context.Context, id string) (*models.Service, error) {
	return Query(ctx, s.queries, ServiceKey(id), s.servicesStale(), func(ctx context.Context) (*models.Service, error) {
		return s.services.GetService(ctx, id)
	})
}

// CreateService validates input and creates an inactive service
func (s *PortalService) CreateService(ctx context.Context, input models.ServiceCreate) (*models.Service, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	var created *models.Service
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		svc, err := s.services.CreateService(ctx, input)
		created = svc
		return err
	}, ServicesKey)
	if err != nil {
		return nil, err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeService,
		Title:        "Service created",
		Description:  created.Name,
		ResourceType: "service",
		ResourceID:   created.ID,
		TenantID:     created.TenantID,
	})
	return created, nil
}

// UpdateService applies a partial update
func (s *PortalService) UpdateService(ctx context.Context, id string, update models.ServiceUpdate) (*models.Service, error) {
	if err := s.validator.ValidateStruct(update); err != nil {
		return nil, err
	}

	var updated *models.Service
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		svc, err := s.services.UpdateService(ctx, id, update)
		updated = svc
		return err
	}, ServicesKey)
	if err != nil {
		return nil, err
	}

	activity := &models.Activity{
		Type:         models.ActivityTypeService,
		Title:        "Service updated",
		Description:  updated.Name,
		ResourceType: "service",
		ResourceID:   id,
	}
	if update.Status != nil {
		activity.Details = models.JSONMap{"status": string(*update.Status)}
	}
	s.record(ctx, activity)
	return updated, nil
}

// DeleteService removes a service
func (s *PortalService) DeleteService(ctx context.Context, id string) error {
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.services.DeleteService(ctx, id)
	}, ServicesKey)
	if err != nil {
		return err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeService,
		Title:        "Service deleted",
		ResourceType: "service",
		ResourceID:   id,
	})
	return nil
}

// GetServiceTables returns the tables of a service's published configuration
func (s *PortalService) GetServiceTables(ctx context.Context, serviceID string) ([]models.ServiceTable, error) {
	return Query(ctx, s.queries, ServiceTablesKey(serviceID), s.servicesStale(), func(ctx context.Context) ([]models.ServiceTable, error) {
		return s.services.GetServiceTables(ctx, serviceID)
	})
}

// GetServiceConfiguration returns the latest published configuration of a
// service, or nil when it was never published
func (s *PortalService) GetServiceConfiguration(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	return Query(ctx, s.queries, ServiceConfigurationKey(serviceID), s.servicesStale(), func(ctx context.Context) (*models.ServiceConfiguration, error) {
		return s.services.GetServiceConfiguration(ctx, serviceID)
	})
}

// SaveServiceConfiguration publishes tables and component config for a
// service as given. It returns only after the record system accepted the
// payload.
func (s *PortalService) SaveServiceConfiguration(ctx context.Context, serviceID string, tables []models.ServiceTable, cfg models.ComponentConfig) error {
	err := s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.services.SaveServiceConfiguration(ctx, serviceID, tables, cfg)
	}, ServiceKey(serviceID))
	if err != nil {
		return err
	}

	s.record(ctx, &models.Activity{
		Type:         models.ActivityTypeConfiguration,
		Title:        "Configuration published",
		ResourceType: "service",
		ResourceID:   serviceID,
		Details:      models.JSONMap{"tables": len(tables)},
	})
	return nil
}

// ListTableCatalog returns the tables that can be added to a service
func (s *PortalService) ListTableCatalog(ctx context.Context) ([]models.TableCatalogEntry, error) {
	return Query(ctx, s.queries, QueryKey{"catalog", "tables"}, s.servicesStale(), s.catalog.ListTables)
}

// ListFilterFields returns the filterable fields of a table
func (s *PortalService) ListFilterFields(ctx context.Context, tableName string) ([]models.FilterFieldOption, error) {
	return Query(ctx, s.queries, QueryKey{"catalog", "fields", tableName}, s.servicesStale(), func(ctx context.Context) ([]models.FilterFieldOption, error) {
		return s.catalog.ListFilterFields(ctx, tableName)
	})
}

// PlatformStats summarizes tenants, services and users
func (s *PortalService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	tenants, err := s.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.PlatformStats{
		TotalTenants:  len(tenants),
		TotalServices: len(services),
		Tenants:       make([]models.TenantUsage, 0, len(tenants)),
	}
	for _, svc := range services {
		if svc.Status == models.ServiceStatusActive {
			stats.ActiveServices++
		}
	}
	for _, t := range tenants {
		users := 0
		if t.ActiveUsers != nil {
			users = *t.ActiveUsers
		}
		stats.TotalUsers += users
		stats.Tenants = append(stats.Tenants, models.TenantUsage{
			TenantID:           t.ID,
			Name:               t.Name,
			Domain:             t.Domain,
			ConfiguredServices: len(t.Services),
			AvailableServices:  len(services),
			ActiveUsers:        users,
			FeatureCount:       len(t.Settings.Features),
		})
	}
	return stats, nil
}

// ServicesByCategory groups the catalog by category name
func (s *PortalService) ServicesByCategory(ctx context.Context) ([]models.CategorySummary, error) {
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*models.CategorySummary)
	for _, svc := range services {
		summary, ok := byCategory[svc.Category]
		if !ok {
			summary = &models.CategorySummary{Category: svc.Category}
			byCategory[svc.Category] = summary
		}
		summary.Services = append(summary.Services, svc)
		if svc.Status == models.ServiceStatusActive {
			summary.ActiveCount++
		}
	}

	summaries := make([]models.CategorySummary, 0, len(byCategory))
	for _, summary := range byCategory {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Category < summaries[j].Category
	})
	return summaries, nil
}

// TenantServiceAccess splits the catalog into the tenant's services and
// the ones it could still be granted
func (s *PortalService) TenantServiceAccess(ctx context.Context, tenantID string) (*models.TenantServiceAccess, error) {
	tenant, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, repositories.ErrTenantNotFound
	}
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	access := &models.TenantServiceAccess{
		TenantID:  tenantID,
		Active:    []models.Service{},
		Available: []models.Service{},
	}
	for _, svc := range services {
		if tenant.HasService(svc.ID) {
			access.Active = append(access.Active, svc)
		} else {
			access.Available = append(access.Available, svc)
		}
	}
	return access, nil
}

// RecentActivity returns the newest activity entries. limit <= 0 uses the
// configured default.
func (s *PortalService) RecentActivity(ctx context.Context, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = s.config.API.ActivityLimit
	}
	activities, err := s.activities.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	return activities, nil
}

// record stores an activity entry. Failures are logged and never returned;
// the mutation has already succeeded.
func (s *PortalService) record(ctx context.Context, activity *models.Activity) {
	if err := s.activities.Create(context.WithoutCancel(ctx), activity); err != nil {
		s.logger.WithError(err).
			WithField("resource_type", activity.ResourceType).
			WithField("resource_id", activity.ResourceID).
			Warn("Failed to record activity")
	}
}
