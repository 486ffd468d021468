// Package fixtures holds the sample data served when the portal runs in
// mock mode, plus the static catalogs the configuration builder offers.
package fixtures

import (
	"time"

	"bloom-portal/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func at(layout, value string) time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		panic(err)
	}
	return t
}

// Tenants returns a fresh copy of the mock tenant set.
func Tenants() []models.Tenant {
	return []models.Tenant{
		{
			ID:       "tenant-bloom-001",
			Name:     "Bloom Insurance Corp",
			Domain:   "bloom-insurance.servicenow.com",
			Services: []string{"svc-001", "svc-002", "svc-003", "svc-004", "svc-006", "svc-007"},
			Settings: models.TenantSettings{
				Theme:         &models.TenantTheme{PrimaryColor: "#00ADEE", Logo: "/logos/bloom.png"},
				Features:      []string{"advanced-analytics", "custom-workflows", "api-access"},
				Notifications: &models.NotificationSettings{Email: true, Slack: true},
			},
			ActiveUsers:  intPtr(142),
			LastActivity: timePtr(at(time.RFC3339, "2025-12-21T10:30:00Z")),
		},
		{
			ID:       "tenant-acme-001",
			Name:     "ACME Insurance",
			Domain:   "acme-insurance.servicenow.com",
			Services: []string{"svc-001", "svc-002", "svc-006"},
			Settings: models.TenantSettings{
				Features:      []string{"basic-analytics"},
				Notifications: &models.NotificationSettings{Email: true},
			},
			ActiveUsers:  intPtr(58),
			LastActivity: timePtr(at(time.RFC3339, "2025-12-20T15:45:00Z")),
		},
		{
			ID:       "tenant-shield-001",
			Name:     "Shield Life Insurance",
			Domain:   "shield-life.servicenow.com",
			Services: []string{"svc-001", "svc-002", "svc-003", "svc-007", "svc-008"},
			Settings: models.TenantSettings{
				Theme:         &models.TenantTheme{PrimaryColor: "#1B75BB"},
				Features:      []string{"advanced-analytics", "compliance-tracking"},
				Notifications: &models.NotificationSettings{Email: true, Slack: false},
			},
			ActiveUsers:  intPtr(95),
			LastActivity: timePtr(at(time.RFC3339, "2025-12-21T09:15:00Z")),
		},
		{
			ID:       "tenant-guardian-001",
			Name:     "Guardian Health",
			Domain:   "guardian-health.servicenow.com",
			Services: []string{"svc-001", "svc-006"},
			Settings: models.TenantSettings{
				Features:      []string{"basic-analytics"},
				Notifications: &models.NotificationSettings{Email: true},
			},
			ActiveUsers:  intPtr(23),
			LastActivity: timePtr(at(time.RFC3339, "2025-12-19T14:20:00Z")),
		},
	}
}

// Domains returns the mock domain set. Every domain lists all mock tenants.
func Domains() []models.Domain {
	return []models.Domain{
		{
			ID:          "dom-001",
			Name:        "Insurance Providers",
			Description: "Primary insurance service providers",
			Tenants:     Tenants(),
			CreatedAt:   at(time.RFC3339, "2024-06-15T00:00:00Z"),
			UpdatedAt:   at(time.RFC3339, "2025-12-21T00:00:00Z"),
		},
	}
}
