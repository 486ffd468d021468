package repositories

import (
	"context"
	"errors"

	"bloom-portal/internal/builder"
	"bloom-portal/internal/models"
)

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrDraftNotFound   = errors.New("draft not found")
)

var identifiers = models.NewValidationService()

// checkRecordID rejects identifiers that would change the meaning of an
// encoded record-system query.
func checkRecordID(id string) error {
	return identifiers.ValidateVar("id", id, "required,record_id")
}

// TenantRepository defines tenant and domain data operations. Single-record
// reads return (nil, nil) when the tenant does not exist.
type TenantRepository interface {
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	ListDomains(ctx context.Context) ([]models.Domain, error)
	GrantService(ctx context.Context, tenantID, serviceID string) error
	RevokeService(ctx context.Context, tenantID, serviceID string) error
	CreateTenant(ctx context.Context, input models.TenantCreate) (*models.Tenant, error)
	UpdateTenantSettings(ctx context.Context, tenantID string, settings models.TenantSettings) error
}

// ServiceRepository defines service catalog and configuration operations
type ServiceRepository interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, input models.ServiceCreate) (*models.Service, error)
	UpdateService(ctx context.Context, id string, update models.ServiceUpdate) (*models.Service, error)
	DeleteService(ctx context.Context, id string) error
	GetServiceTables(ctx context.Context, serviceID string) ([]models.ServiceTable, error)
	GetServiceConfiguration(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error)
	SaveServiceConfiguration(ctx context.Context, serviceID string, tables []models.ServiceTable, config models.ComponentConfig) error
}

// CatalogRepository lists the record-system tables and fields available to
// the configuration builder
type CatalogRepository interface {
	ListTables(ctx context.Context) ([]models.TableCatalogEntry, error)
	ListFilterFields(ctx context.Context, tableName string) ([]models.FilterFieldOption, error)
}

// ActivityRepository stores the portal activity feed
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListRecent(ctx context.Context, limit int) ([]*models.Activity, error)
}

// DraftRepository stores in-progress service configurations
type DraftRepository interface {
	Get(ctx context.Context, serviceID string) (*builder.Draft, error)
	Save(ctx context.Context, draft *builder.Draft) error
	Delete(ctx context.Context, serviceID string) error
}
