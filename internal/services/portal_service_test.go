package services

import (
	"context"
	"errors"
	"testing"

	"bloom-portal/internal/builder"
	"bloom-portal/internal/config"
	"bloom-portal/internal/logger"
	"bloom-portal/internal/models"
	"bloom-portal/internal/repositories"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockServiceRepository struct {
	mock.Mock
}

func (m *mockServiceRepository) ListServices(ctx context.Context) ([]models.Service, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *mockServiceRepository) GetService(ctx context.Context, id string) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockServiceRepository) CreateService(ctx context.Context, input models.ServiceCreate) (*models.Service, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockServiceRepository) UpdateService(ctx context.Context, id string, update models.ServiceUpdate) (*models.Service, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockServiceRepository) DeleteService(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockServiceRepository) GetServiceTables(ctx context.Context, serviceID string) ([]models.ServiceTable, error) {
	args := m.Called(ctx, serviceID)
	return args.Get(0).([]models.ServiceTable), args.Error(1)
}

func (m *mockServiceRepository) GetServiceConfiguration(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceConfiguration), args.Error(1)
}

func (m *mockServiceRepository) SaveServiceConfiguration(ctx context.Context, serviceID string, tables []models.ServiceTable, cfg models.ComponentConfig) error {
	return m.Called(ctx, serviceID, tables, cfg).Error(0)
}

type failingActivityRepository struct{}

func (failingActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return errors.New("activity store unavailable")
}

func (failingActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	return nil, errors.New("activity store unavailable")
}

type testPortal struct {
	portal     *PortalService
	builder    *BuilderService
	queries    *QueryClient
	clock      *clock.Mock
	activities repositories.ActivityRepository
	drafts     repositories.DraftRepository
}

func testConfig() *config.Config {
	return &config.Config{
		RecordSystem: config.RecordSystemConfig{UseMockData: true},
		Cache: config.CacheConfig{
			TenantsStaleTime:  300,
			ServicesStaleTime: 300,
			DomainsStaleTime:  600,
			Retention:         1800,
		},
		Builder: config.BuilderConfig{DraftTTL: 3600},
		API:     config.APIConfig{ActivityLimit: 20},
	}
}

func newTestPortal(t *testing.T, services repositories.ServiceRepository, activities repositories.ActivityRepository) *testPortal {
	t.Helper()
	cfg := testConfig()
	clk := clock.NewMock()
	log := logger.NewNopLogger()

	if services == nil {
		services = repositories.NewServiceRepository(&cfg.RecordSystem, nil, clk, log)
	}
	if activities == nil {
		activities = repositories.NewActivityRepository(nil, clk)
	}
	queries := NewQueryClient(cfg, clk, log, prometheus.NewRegistry())
	validator := models.NewValidationService()
	portal := NewPortalService(
		repositories.NewTenantRepository(&cfg.RecordSystem, nil, clk, log),
		services,
		repositories.NewCatalogRepository(&cfg.RecordSystem, nil),
		activities,
		queries,
		validator,
		cfg,
		log,
	)
	drafts := repositories.NewDraftRepository(nil, cfg, clk)
	return &testPortal{
		portal:     portal,
		builder:    NewBuilderService(portal, drafts, validator, log),
		queries:    queries,
		clock:      clk,
		activities: activities,
		drafts:     drafts,
	}
}

func TestPortalService_GrantInvalidatesTenantQueries(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	before, err := tp.portal.GetTenant(ctx, "tenant-guardian-001")
	require.NoError(t, err)
	assert.False(t, before.HasService("svc-003"))
	_, err = tp.portal.ListDomains(ctx)
	require.NoError(t, err)

	require.NoError(t, tp.portal.GrantService(ctx, "tenant-guardian-001", "svc-003"))

	_, cached := tp.queries.Peek(TenantKey("tenant-guardian-001"))
	assert.False(t, cached)
	_, cached = tp.queries.Peek(DomainsKey)
	assert.False(t, cached)

	after, err := tp.portal.GetTenant(ctx, "tenant-guardian-001")
	require.NoError(t, err)
	assert.True(t, after.HasService("svc-003"))

	activity, err := tp.portal.RecentActivity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, models.ActivityTypeTenant, activity[0].Type)
	assert.Equal(t, "svc-003", activity[0].Details["serviceId"])
}

func TestPortalService_GrantUnknownTenantKeepsCache(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	_, err := tp.portal.ListTenants(ctx)
	require.NoError(t, err)

	err = tp.portal.GrantService(ctx, "nonexistent", "svc-001")
	assert.ErrorIs(t, err, repositories.ErrTenantNotFound)

	_, cached := tp.queries.Peek(TenantsKey)
	assert.True(t, cached)

	activity, err := tp.portal.RecentActivity(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, activity)
}

func TestPortalService_CreateTenantValidation(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	_, err := tp.portal.CreateTenant(ctx, models.TenantCreate{Name: "", Domain: "harbor.example.com"})
	assert.ErrorIs(t, err, models.ErrValidation)

	tenant, err := tp.portal.CreateTenant(ctx, models.TenantCreate{Name: "Harbor Mutual", Domain: "harbor.example.com"})
	require.NoError(t, err)
	assert.Empty(t, tenant.Services)

	tenants, err := tp.portal.ListTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 5)
}

func TestPortalService_UpdateTenantSettingsValidatesTheme(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	err := tp.portal.UpdateTenantSettings(ctx, "tenant-acme-001", models.TenantSettings{
		Theme: &models.TenantTheme{PrimaryColor: "blue"},
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = tp.portal.UpdateTenantSettings(ctx, "tenant-acme-001", models.TenantSettings{
		Theme:    &models.TenantTheme{PrimaryColor: "#112233"},
		Features: []string{"api-access"},
	})
	require.NoError(t, err)

	tenant, err := tp.portal.GetTenant(ctx, "tenant-acme-001")
	require.NoError(t, err)
	assert.Equal(t, "#112233", tenant.Settings.Theme.PrimaryColor)
}

func TestPortalService_ActivityFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, failingActivityRepository{})

	svc, err := tp.portal.CreateService(ctx, models.ServiceCreate{Name: "Fraud Detection"})
	require.NoError(t, err)
	assert.NotEmpty(t, svc.ID)

	_, err = tp.portal.RecentActivity(ctx, 5)
	assert.Error(t, err)
}

func TestPortalService_ServiceMutationsInvalidateCatalog(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	services, err := tp.portal.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 8)

	status := models.ServiceStatusInactive
	updated, err := tp.portal.UpdateService(ctx, "svc-001", models.ServiceUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStatusInactive, updated.Status)

	svc, err := tp.portal.GetService(ctx, "svc-001")
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStatusInactive, svc.Status)

	bad := models.ServiceStatus("retired")
	_, err = tp.portal.UpdateService(ctx, "svc-001", models.ServiceUpdate{Status: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, tp.portal.DeleteService(ctx, "svc-008"))
	services, err = tp.portal.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 7)
}

func TestPortalService_PlatformStats(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	stats, err := tp.portal.PlatformStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalTenants)
	assert.Equal(t, 8, stats.TotalServices)
	assert.Equal(t, 6, stats.ActiveServices)
	assert.Equal(t, 142+58+95+23, stats.TotalUsers)
	require.Len(t, stats.Tenants, 4)
	for _, usage := range stats.Tenants {
		assert.Equal(t, 8, usage.AvailableServices)
		if usage.TenantID == "tenant-bloom-001" {
			assert.Equal(t, 6, usage.ConfiguredServices)
			assert.Equal(t, 3, usage.FeatureCount)
		}
	}
}

func TestPortalService_ServicesByCategory(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	categories, err := tp.portal.ServicesByCategory(ctx)
	require.NoError(t, err)

	total := 0
	for i, c := range categories {
		total += len(c.Services)
		if i > 0 {
			assert.Less(t, categories[i-1].Category, c.Category)
		}
		if c.Category == "Policy Administration" {
			assert.Len(t, c.Services, 2)
			assert.Equal(t, 2, c.ActiveCount)
		}
	}
	assert.Equal(t, 8, total)
}

func TestPortalService_TenantServiceAccess(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	access, err := tp.portal.TenantServiceAccess(ctx, "tenant-guardian-001")
	require.NoError(t, err)
	assert.Len(t, access.Active, 2)
	assert.Len(t, access.Available, 6)

	_, err = tp.portal.TenantServiceAccess(ctx, "nonexistent")
	assert.ErrorIs(t, err, repositories.ErrTenantNotFound)
}

func TestBuilderService_EditAndPublish(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	draft, err := tp.builder.Open(ctx, "svc-001")
	require.NoError(t, err)
	require.Len(t, draft.Tables, 1)

	draft, err = tp.builder.AddTable(ctx, "svc-001", "tbl-claims")
	require.NoError(t, err)
	assert.Len(t, draft.Tables, 2)

	_, err = tp.builder.AddTable(ctx, "svc-001", "tbl-claims")
	assert.ErrorIs(t, err, builder.ErrTableAlreadySelected)
	_, err = tp.builder.AddTable(ctx, "svc-001", "tbl-unknown")
	assert.ErrorIs(t, err, builder.ErrTableNotFound)

	draft, err = tp.builder.AddFilter(ctx, "svc-001", models.TableFilter{Field: "status", Operator: models.OperatorEquals, Value: "Active"})
	require.NoError(t, err)
	require.Len(t, draft.Filters, 1)

	preview, err := tp.builder.Preview(ctx, "svc-001")
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Tables[0].Total)

	payload, err := tp.builder.Publish(ctx, "svc-001")
	require.NoError(t, err)
	require.Len(t, payload.Tables, 2)
	assert.Len(t, payload.Tables[1].Filters, 1)

	_, err = tp.drafts.Get(ctx, "svc-001")
	assert.ErrorIs(t, err, repositories.ErrDraftNotFound)

	tables, err := tp.portal.GetServiceTables(ctx, "svc-001")
	require.NoError(t, err)
	assert.Len(t, tables, 2)

	activity, err := tp.portal.RecentActivity(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, activity)
	assert.Equal(t, models.ActivityTypeConfiguration, activity[0].Type)
}

func TestBuilderService_RepublishKeepsFiltersAndConfig(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	_, err := tp.builder.AddTable(ctx, "svc-001", "tbl-claims")
	require.NoError(t, err)
	_, err = tp.builder.AddFilter(ctx, "svc-001", models.TableFilter{Field: "status", Operator: models.OperatorEquals, Value: "Active"})
	require.NoError(t, err)
	layout := models.LayoutCompact
	_, err = tp.builder.UpdateConfig(ctx, "svc-001", builder.ConfigUpdate{Layout: &layout})
	require.NoError(t, err)
	_, err = tp.builder.Publish(ctx, "svc-001")
	require.NoError(t, err)

	draft, err := tp.builder.Open(ctx, "svc-001")
	require.NoError(t, err)
	require.Len(t, draft.Filters, 1)
	assert.Equal(t, "status", draft.Filters[0].Field)
	assert.Equal(t, models.LayoutCompact, draft.Config.Layout)
	assert.Equal(t, builder.DefaultPrimaryColor, draft.Config.Theme.PrimaryColor)

	preview, err := tp.builder.Preview(ctx, "svc-001")
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Tables[0].Total)

	payload, err := tp.builder.Publish(ctx, "svc-001")
	require.NoError(t, err)
	assert.Equal(t, models.LayoutCompact, payload.Config.Layout)

	tables, err := tp.portal.GetServiceTables(ctx, "svc-001")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	for _, table := range tables {
		require.Len(t, table.Filters, 1, table.ID)
		assert.Equal(t, "Active", table.Filters[0].Value)
	}

	draft, err = tp.builder.Reset(ctx, "svc-001")
	require.NoError(t, err)
	assert.Empty(t, draft.Filters)
	assert.Equal(t, models.LayoutGrid, draft.Config.Layout)
}

func TestBuilderService_PublishKeepsBlankFilters(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	_, err := tp.builder.AddFilter(ctx, "svc-001", models.TableFilter{Value: "pending"})
	require.NoError(t, err)

	payload, err := tp.builder.Publish(ctx, "svc-001")
	require.NoError(t, err)
	require.NotEmpty(t, payload.Tables)
	assert.Len(t, payload.Tables[0].Filters, 1)

	tables, err := tp.portal.GetServiceTables(ctx, "svc-001")
	require.NoError(t, err)
	require.NotEmpty(t, tables)
	require.Len(t, tables[0].Filters, 1)
	assert.Empty(t, tables[0].Filters[0].Field)
	assert.Equal(t, "pending", tables[0].Filters[0].Value)
}

func TestBuilderService_OpenUnknownService(t *testing.T) {
	tp := newTestPortal(t, nil, nil)

	_, err := tp.builder.Open(context.Background(), "svc-999")
	assert.ErrorIs(t, err, repositories.ErrServiceNotFound)
}

func TestBuilderService_UpdateConfigValidation(t *testing.T) {
	ctx := context.Background()
	tp := newTestPortal(t, nil, nil)

	bad := "teal"
	_, err := tp.builder.UpdateConfig(ctx, "svc-002", builder.ConfigUpdate{Theme: &builder.ThemeUpdate{PrimaryColor: &bad}})
	assert.ErrorIs(t, err, models.ErrValidation)

	perPage := 50
	draft, err := tp.builder.UpdateConfig(ctx, "svc-002", builder.ConfigUpdate{DisplayOptions: &builder.DisplayOptionsUpdate{ItemsPerPage: &perPage}})
	require.NoError(t, err)
	assert.Equal(t, 50, draft.Config.DisplayOptions.ItemsPerPage)

	draft, err = tp.builder.Reset(ctx, "svc-002")
	require.NoError(t, err)
	assert.Equal(t, builder.DefaultItemsPerPage, draft.Config.DisplayOptions.ItemsPerPage)
}

func TestBuilderService_FailedPublishKeepsDraft(t *testing.T) {
	ctx := context.Background()
	services := &mockServiceRepository{}
	svc := &models.Service{ID: "svc-001", Name: "Customer Management", Status: models.ServiceStatusActive}
	services.On("GetService", mock.Anything, "svc-001").Return(svc, nil)
	services.On("GetServiceTables", mock.Anything, "svc-001").Return([]models.ServiceTable{}, nil)
	services.On("GetServiceConfiguration", mock.Anything, "svc-001").Return(nil, nil)
	services.On("SaveServiceConfiguration", mock.Anything, "svc-001", mock.Anything, mock.Anything).
		Return(errors.New("record system unavailable"))

	tp := newTestPortal(t, services, nil)

	_, err := tp.builder.AddTable(ctx, "svc-001", "tbl-cust")
	require.NoError(t, err)

	_, err = tp.builder.Publish(ctx, "svc-001")
	assert.Error(t, err)

	draft, err := tp.drafts.Get(ctx, "svc-001")
	require.NoError(t, err)
	assert.Len(t, draft.Tables, 1)

	activity, err := tp.portal.RecentActivity(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, activity)
	services.AssertExpectations(t)
}
