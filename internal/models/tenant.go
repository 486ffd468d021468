package models

import "time"

// Tenant is a customer organization with its own hosted record-system
// instance and a set of enabled services.
type Tenant struct {
	ID           string         `json:"id" validate:"required"`
	Name         string         `json:"name" validate:"required"`
	Domain       string         `json:"domain" validate:"required"`
	Services     []string       `json:"services"`
	Settings     TenantSettings `json:"settings"`
	ActiveUsers  *int           `json:"activeUsers,omitempty"`
	LastActivity *time.Time     `json:"lastActivity,omitempty"`
}

// HasService reports whether serviceID is enabled for the tenant.
func (t *Tenant) HasService(serviceID string) bool {
	for _, id := range t.Services {
		if id == serviceID {
			return true
		}
	}
	return false
}

// TenantSettings holds per-tenant presentation and notification preferences
type TenantSettings struct {
	Theme         *TenantTheme          `json:"theme,omitempty" validate:"omitempty"`
	Features      []string              `json:"features"`
	Notifications *NotificationSettings `json:"notifications,omitempty"`
}

// TenantTheme is the tenant's branding
type TenantTheme struct {
	PrimaryColor string `json:"primaryColor" validate:"required,hexcolor"`
	Logo         string `json:"logo,omitempty"`
}

// NotificationSettings toggles notification channels
type NotificationSettings struct {
	Email bool `json:"email"`
	Slack bool `json:"slack,omitempty"`
}

// TenantCreate is the input for registering a new tenant
type TenantCreate struct {
	Name   string `json:"name" validate:"required,max=255"`
	Domain string `json:"domain" validate:"required,hostname_rfc1123|url"`
}

// Domain groups tenants under a named business domain
type Domain struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tenants     []Tenant  `json:"tenants"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
