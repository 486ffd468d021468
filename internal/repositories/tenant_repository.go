package repositories

import (
	"context"
	"encoding/json"
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
	"github.com/spf13/cast"
)

const tenantListQuery = "active=true^ORDERBYname"

// tenantRepository serves tenants from fixtures or the record system,
// depending on cfg.UseMockData at call time
type tenantRepository struct {
	cfg    *config.RecordSystemConfig
	client recordsystem.Client
	clock  clock.Clock
	logger *logger.Logger

	// serializes read-modify-write of a tenant's service list within this process
	locks keyedMutex

	mu      sync.RWMutex
	tenants map[string]models.Tenant
}

// NewTenantRepository creates a tenant repository seeded with the mock tenant set
func NewTenantRepository(cfg *config.RecordSystemConfig, client recordsystem.Client, clk clock.Clock, log *logger.Logger) TenantRepository {
	tenants := make(map[string]models.Tenant)
	for _, t := range fixtures.Tenants() {
		tenants[t.ID] = t
	}
	return &tenantRepository{
		cfg:     cfg,
		client:  client,
		clock:   clk,
		logger:  log,
		tenants: tenants,
	}
}

func (r *tenantRepository) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	if r.cfg.UseMockData {
		return r.memoryTenants(), nil
	}

	var resp recordsystem.Response[[]recordsystem.TenantRecord]
	err := r.client.Get(ctx, recordsystem.EndpointTenants, &resp, recordsystem.WithQueryParams(map[string]string{
		"sysparm_limit": "100",
		"sysparm_query": tenantListQuery,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	tenants := make([]models.Tenant, 0, len(resp.Result))
	for _, rec := range resp.Result {
		t, err := tenantFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, nil
}

func (r *tenantRepository) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	if r.cfg.UseMockData {
		r.mu.RLock()
		defer r.mu.RUnlock()
		t, ok := r.tenants[id]
		if !ok {
			return nil, nil
		}
		copied := copyTenant(t)
		return &copied, nil
	}

	var resp recordsystem.Response[recordsystem.TenantRecord]
	if err := r.client.Get(ctx, recordsystem.Record(recordsystem.EndpointTenants, id), &resp); err != nil {
		// Reported as absent; callers cannot tell a fetch failure from a missing tenant.
		r.logger.WithTenant(id).WithError(err).Warn("Failed to fetch tenant")
		return nil, nil
	}
	t, err := tenantFromRecord(resp.Result)
	if err != nil {
		r.logger.WithTenant(id).WithError(err).Warn("Failed to parse tenant record")
		return nil, nil
	}
	return &t, nil
}

func (r *tenantRepository) ListDomains(ctx context.Context) ([]models.Domain, error) {
	if r.cfg.UseMockData {
		domains := fixtures.Domains()
		tenants := r.memoryTenants()
		for i := range domains {
			domains[i].Tenants = tenants
		}
		return domains, nil
	}

	var resp recordsystem.Response[[]recordsystem.DomainRecord]
	if err := r.client.Get(ctx, recordsystem.EndpointDomains, &resp); err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}

	// Every domain carries the full tenant list, so fetch it once.
	tenants, err := r.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list domain tenants: %w", err)
	}

	domains := make([]models.Domain, 0, len(resp.Result))
	for _, rec := range resp.Result {
		if rec.Name == "" {
			r.logger.WithDomain(rec.SysID).Warn("Domain record has no name")
		}
		domains = append(domains, models.Domain{
			ID:          rec.SysID,
			Name:        rec.Name,
			Description: rec.Description,
			Tenants:     tenants,
			CreatedAt:   recordsystem.ParseTime(rec.SysCreatedOn),
			UpdatedAt:   recordsystem.ParseTime(rec.SysUpdatedOn),
		})
	}
	return domains, nil
}

func (r *tenantRepository) GrantService(ctx context.Context, tenantID, serviceID string) error {
	return r.updateServices(ctx, tenantID, func(services []string) []string {
		for _, id := range services {
			if id == serviceID {
				return services
			}
		}
		return append(services, serviceID)
	})
}

func (r *tenantRepository) RevokeService(ctx context.Context, tenantID, serviceID string) error {
	return r.updateServices(ctx, tenantID, func(services []string) []string {
		kept := make([]string, 0, len(services))
		for _, id := range services {
			if id != serviceID {
				kept = append(kept, id)
			}
		}
		return kept
	})
}

// updateServices performs read-modify-write of a tenant's service list.
// Concurrent writers in other processes are last-write-wins.
func (r *tenantRepository) updateServices(ctx context.Context, tenantID string, mutate func([]string) []string) error {
	unlock := r.locks.Lock(tenantID)
	defer unlock()

	tenant, err := r.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return ErrTenantNotFound
	}

	services := mutate(append([]string{}, tenant.Services...))

	if r.cfg.UseMockData {
		r.mu.Lock()
		defer r.mu.Unlock()
		t, ok := r.tenants[tenantID]
		if !ok {
			return ErrTenantNotFound
		}
		t.Services = services
		r.tenants[tenantID] = t
		return nil
	}

	encoded, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("failed to encode services: %w", err)
	}
	body := map[string]string{"services": string(encoded)}
	if err := r.client.Patch(ctx, recordsystem.Record(recordsystem.EndpointTenants, tenantID), body, nil); err != nil {
		return fmt.Errorf("failed to update tenant services: %w", err)
	}
	return nil
}

func (r *tenantRepository) CreateTenant(ctx context.Context, input models.TenantCreate) (*models.Tenant, error) {
	now := r.clock.Now().UTC()
	zero := 0

	if r.cfg.UseMockData {
		t := models.Tenant{
			ID:           "tenant-" + uuid.NewString(),
			Name:         input.Name,
			Domain:       input.Domain,
			Services:     []string{},
			Settings:     models.TenantSettings{Features: []string{}},
			ActiveUsers:  &zero,
			LastActivity: &now,
		}
		r.mu.Lock()
		r.tenants[t.ID] = t
		r.mu.Unlock()
		copied := copyTenant(t)
		return &copied, nil
	}

	settings, err := json.Marshal(models.TenantSettings{Features: []string{}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	body := map[string]string{
		"name":       input.Name,
		"domain_url": input.Domain,
		"services":   "[]",
		"settings":   string(settings),
	}

	var resp recordsystem.Response[recordsystem.TenantRecord]
	if err := r.client.Post(ctx, recordsystem.EndpointTenants, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	t, err := tenantFromRecord(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	if t.ActiveUsers == nil {
		t.ActiveUsers = &zero
	}
	if t.LastActivity == nil {
		t.LastActivity = &now
	}
	return &t, nil
}

func (r *tenantRepository) UpdateTenantSettings(ctx context.Context, tenantID string, settings models.TenantSettings) error {
	if settings.Features == nil {
		settings.Features = []string{}
	}

	if r.cfg.UseMockData {
		r.mu.Lock()
		defer r.mu.Unlock()
		t, ok := r.tenants[tenantID]
		if !ok {
			return ErrTenantNotFound
		}
		t.Settings = settings
		r.tenants[tenantID] = t
		return nil
	}

	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	body := map[string]string{"settings": string(encoded)}
	if err := r.client.Patch(ctx, recordsystem.Record(recordsystem.EndpointTenants, tenantID), body, nil); err != nil {
		return fmt.Errorf("failed to update tenant settings: %w", err)
	}
	return nil
}

func (r *tenantRepository) memoryTenants() []models.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		all = append(all, copyTenant(t))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}

// tenantFromRecord decodes the JSON-encoded services and settings columns.
func tenantFromRecord(rec recordsystem.TenantRecord) (models.Tenant, error) {
	t := models.Tenant{
		ID:       rec.SysID,
		Name:     rec.Name,
		Domain:   rec.DomainURL,
		Services: []string{},
		Settings: models.TenantSettings{Features: []string{}},
	}

	if rec.Services != "" {
		if err := json.Unmarshal([]byte(rec.Services), &t.Services); err != nil {
			return models.Tenant{}, fmt.Errorf("tenant %s has invalid services: %w", rec.SysID, err)
		}
		if t.Services == nil {
			t.Services = []string{}
		}
	}
	if rec.Settings != "" {
		if err := json.Unmarshal([]byte(rec.Settings), &t.Settings); err != nil {
			return models.Tenant{}, fmt.Errorf("tenant %s has invalid settings: %w", rec.SysID, err)
		}
		if t.Settings.Features == nil {
			t.Settings.Features = []string{}
		}
	}

	if rec.ActiveUsers != nil && rec.ActiveUsers != "" {
		if n, err := cast.ToIntE(rec.ActiveUsers); err == nil {
			t.ActiveUsers = &n
		}
	}
	if ts := recordsystem.ParseTime(rec.LastActivity); !ts.IsZero() {
		t.LastActivity = &ts
	}
	return t, nil
}

func copyTenant(t models.Tenant) models.Tenant {
	t.Services = append([]string{}, t.Services...)
	t.Settings.Features = append([]string{}, t.Settings.Features...)
	if t.Settings.Theme != nil {
		theme := *t.Settings.Theme
		t.Settings.Theme = &theme
	}
	if t.Settings.Notifications != nil {
		n := *t.Settings.Notifications
		t.Settings.Notifications = &n
	}
	if t.ActiveUsers != nil {
		n := *t.ActiveUsers
		t.ActiveUsers = &n
	}
	if t.LastActivity != nil {
		ts := *t.LastActivity
		t.LastActivity = &ts
	}
	return t
}

// keyedMutex hands out one mutex per key
type keyedMutex struct {
	locks sync.Map
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	value, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
