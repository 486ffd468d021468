package models

// PlatformStats summarizes the platform for operators
type PlatformStats struct {
	TotalTenants   int           `json:"totalTenants"`
	ActiveServices int           `json:"activeServices"`
	TotalServices  int           `json:"totalServices"`
	TotalUsers     int           `json:"totalUsers"`
	Tenants        []TenantUsage `json:"tenants"`
}

// TenantUsage is one row of the per-tenant overview
type TenantUsage struct {
	TenantID           string `json:"tenantId"`
	Name               string `json:"name"`
	Domain             string `json:"domain"`
	ConfiguredServices int    `json:"configuredServices"`
	AvailableServices  int    `json:"availableServices"`
	ActiveUsers        int    `json:"activeUsers"`
	FeatureCount       int    `json:"featureCount"`
}

// CategorySummary groups services by category
type CategorySummary struct {
	Category    string    `json:"category"`
	Services    []Service `json:"services"`
	ActiveCount int       `json:"activeCount"`
}

// TenantServiceAccess splits the service catalog into services a tenant has
// and services it could be granted
type TenantServiceAccess struct {
	TenantID  string    `json:"tenantId"`
	Active    []Service `json:"active"`
	Available []Service `json:"available"`
}
