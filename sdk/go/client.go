// Package portal provides a Go client SDK for the Bloom portal API
package portal

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client represents the portal API client
type Client struct {
	rest    *resty.Client
	baseURL string
	version string
}

// ClientOption represents a client configuration option
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.rest = resty.NewWithClient(client).SetBaseURL(c.baseURL)
	}
}

// WithToken sets the authentication token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.rest.SetAuthToken(token)
	}
}

// WithVersion sets the API version
func WithVersion(version string) ClientOption {
	return func(c *Client) {
		c.version = version
	}
}

// NewClient creates a new portal API client
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second),
		baseURL: baseURL,
		version: "v1",
	}

	for _, option := range options {
		option(client)
	}

	client.rest.
		SetHeader("Accept", "application/json").
		SetError(&Error{})

	return client
}

// Tenant is a customer organization and its enabled services
type Tenant struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Domain      string                 `json:"domain"`
	Services    []string               `json:"services"`
	Settings    map[string]interface{} `json:"settings"`
	ActiveUsers *int                   `json:"activeUsers,omitempty"`
}

// TenantCreate is the data needed to register a tenant
type TenantCreate struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// Domain groups tenants
type Domain struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tenants     []Tenant `json:"tenants"`
}

// Service is a portal service offering
type Service struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	LastModified time.Time `json:"lastModified"`
	TenantID     string    `json:"tenantId,omitempty"`
	Icon         string    `json:"icon,omitempty"`
}

// ServiceCreate is the data needed to create a service
type ServiceCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	TenantID    string `json:"tenantId,omitempty"`
}

// ServiceUpdate is a partial service update; nil fields are left unchanged
type ServiceUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ServiceConfiguration is a published service configuration
type ServiceConfiguration struct {
	ServiceID string                   `json:"serviceId"`
	Tables    []map[string]interface{} `json:"tables"`
	Config    map[string]interface{}   `json:"config"`
}

// PlatformStats summarizes tenants, services and users
type PlatformStats struct {
	TotalTenants   int `json:"totalTenants"`
	ActiveServices int `json:"activeServices"`
	TotalServices  int `json:"totalServices"`
	TotalUsers     int `json:"totalUsers"`
}

// Activity is an entry in the portal activity feed
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Error represents an API error response
type Error struct {
	Message string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("API error %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// Tenants

// GetTenants lists tenants
func (c *Client) GetTenants(ctx context.Context) ([]*Tenant, error) {
	var result []*Tenant
	err := c.makeRequest(ctx, http.MethodGet, "/tenants", nil, &result)
	return result, err
}

// GetTenant returns a tenant by ID
func (c *Client) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var result Tenant
	err := c.makeRequest(ctx, http.MethodGet, "/tenants/"+id, nil, &result)
	return &result, err
}

// CreateTenant registers a tenant
func (c *Client) CreateTenant(ctx context.Context, tenant *TenantCreate) (*Tenant, error) {
	var result Tenant
	err := c.makeRequest(ctx, http.MethodPost, "/tenants", tenant, &result)
	return &result, err
}

// GrantService enables a service for a tenant
func (c *Client) GrantService(ctx context.Context, tenantID, serviceID string) error {
	return c.makeRequest(ctx, http.MethodPut, fmt.Sprintf("/tenants/%s/services/%s", tenantID, serviceID), nil, nil)
}

// RevokeService disables a service for a tenant
func (c *Client) RevokeService(ctx context.Context, tenantID, serviceID string) error {
	return c.makeRequest(ctx, http.MethodDelete, fmt.Sprintf("/tenants/%s/services/%s", tenantID, serviceID), nil, nil)
}

// GetDomains lists domains with their tenants
func (c *Client) GetDomains(ctx context.Context) ([]*Domain, error) {
	var result []*Domain
	err := c.makeRequest(ctx, http.MethodGet, "/domains", nil, &result)
	return result, err
}

// Services

// GetServices lists services
func (c *Client) GetServices(ctx context.Context) ([]*Service, error) {
	var result []*Service
	err := c.makeRequest(ctx, http.MethodGet, "/services", nil, &result)
	return result, err
}

// GetService returns a service by ID
func (c *Client) GetService(ctx context.Context, id string) (*Service, error) {
	var result Service
	err := c.makeRequest(ctx, http.MethodGet, "/services/"+id, nil, &result)
	return &result, err
}

// CreateService creates a service
func (c *Client) CreateService(ctx context.Context, service *ServiceCreate) (*Service, error) {
	var result Service
	err := c.makeRequest(ctx, http.MethodPost, "/services", service, &result)
	return &result, err
}

// UpdateService applies a partial update to a service
func (c *Client) UpdateService(ctx context.Context, id string, update *ServiceUpdate) (*Service, error) {
	var result Service
	err := c.makeRequest(ctx, http.MethodPatch, "/services/"+id, update, &result)
	return &result, err
}

// DeleteService deletes a service
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.makeRequest(ctx, http.MethodDelete, "/services/"+id, nil, nil)
}

// PublishConfiguration publishes the builder draft of a service
func (c *Client) PublishConfiguration(ctx context.Context, serviceID string) (*ServiceConfiguration, error) {
	var result ServiceConfiguration
	err := c.makeRequest(ctx, http.MethodPost, fmt.Sprintf("/services/%s/builder/publish", serviceID), nil, &result)
	return &result, err
}

// Platform

// GetPlatformStats returns platform-wide counts
func (c *Client) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	var result PlatformStats
	err := c.makeRequest(ctx, http.MethodGet, "/platform/stats", nil, &result)
	return &result, err
}

// GetActivity returns the most recent activity, newest first. limit <= 0
// uses the server default.
func (c *Client) GetActivity(ctx context.Context, limit int) ([]*Activity, error) {
	var result []*Activity
	path := "/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.makeRequest(ctx, http.MethodGet, path, nil, &result)
	return result, err
}

// SetRecordSystemToken sets the bearer token the portal uses upstream
func (c *Client) SetRecordSystemToken(ctx context.Context, token string) error {
	return c.makeRequest(ctx, http.MethodPut, "/record-system/token", map[string]string{"token": token}, nil)
}

// Helper methods

func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, fmt.Sprintf("/api/%s%s", c.version, path))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		if apiErr, ok := resp.Error().(*Error); ok && apiErr.Message != "" {
			if apiErr.Status == 0 {
				apiErr.Status = resp.StatusCode()
			}
			return apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}
