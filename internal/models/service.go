package models

import "time"

// ServiceStatus is the operational state of a service
type ServiceStatus string

const (
	ServiceStatusActive      ServiceStatus = "active"
	ServiceStatusInactive    ServiceStatus = "inactive"
	ServiceStatusMaintenance ServiceStatus = "maintenance"
)

// FieldType is the data type of a table field
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeNumber    FieldType = "number"
	FieldTypeDate      FieldType = "date"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeReference FieldType = "reference"
)

// FilterOperator is a comparison applied by a TableFilter
type FilterOperator string

const (
	OperatorEquals      FilterOperator = "equals"
	OperatorContains    FilterOperator = "contains"
	OperatorStartsWith  FilterOperator = "starts_with"
	OperatorEndsWith    FilterOperator = "ends_with"
	OperatorGreaterThan FilterOperator = "greater_than"
	OperatorLessThan    FilterOperator = "less_than"
)

// ComponentType is the kind of embedded UI component
type ComponentType string

const (
	ComponentTypeForm   ComponentType = "form"
	ComponentTypeTable  ComponentType = "table"
	ComponentTypeChart  ComponentType = "chart"
	ComponentTypeCustom ComponentType = "custom"
)

// Layout is the arrangement used by a component
type Layout string

const (
	LayoutGrid    Layout = "grid"
	LayoutList    Layout = "list"
	LayoutCompact Layout = "compact"
)

// Service is a business capability offered to tenants
type Service struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Status       ServiceStatus      `json:"status"`
	LastModified time.Time          `json:"lastModified"`
	TenantID     string             `json:"tenantId,omitempty"`
	Icon         string             `json:"icon,omitempty"`
	Tables       []ServiceTable     `json:"tables,omitempty"`
	Components   []ServiceComponent `json:"components,omitempty"`
}

// ServiceTable is a record-system table selected for a service
type ServiceTable struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	TableName   string        `json:"tableName"`
	Description string        `json:"description,omitempty"`
	Fields      []TableField  `json:"fields"`
	Filters     []TableFilter `json:"filters,omitempty"`
}

// TableField describes one column of a ServiceTable
type TableField struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Visible  bool      `json:"visible"`
	Order    int       `json:"order"`
}

// TableFilter is a single row predicate; filters on a table AND-combine
type TableFilter struct {
	ID       string         `json:"id"`
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator" validate:"oneof=equals contains starts_with ends_with greater_than less_than"`
	Value    interface{}    `json:"value"`
}

// ServiceComponent is an embeddable UI element bound to a data source
type ServiceComponent struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       ComponentType   `json:"type"`
	DataSource string          `json:"dataSource"`
	Config     ComponentConfig `json:"config"`
}

// ComponentConfig is the presentation configuration of a component
type ComponentConfig struct {
	Theme          *ComponentTheme `json:"theme,omitempty" validate:"omitempty"`
	Layout         Layout          `json:"layout,omitempty" validate:"omitempty,oneof=grid list compact"`
	DisplayOptions *DisplayOptions `json:"displayOptions,omitempty" validate:"omitempty"`
	Fields         []string        `json:"fields,omitempty"`
}

// ComponentTheme holds component colors
type ComponentTheme struct {
	PrimaryColor   string `json:"primaryColor,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondaryColor,omitempty" validate:"omitempty,hexcolor"`
}

// DisplayOptions controls data display behavior
type DisplayOptions struct {
	InlineEdit   bool `json:"inlineEdit"`
	BulkActions  bool `json:"bulkActions"`
	ItemsPerPage int  `json:"itemsPerPage" validate:"min=1,max=500"`
}

// ServiceCreate is the input for creating a service
type ServiceCreate struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Category    string `json:"category"`
	TenantID    string `json:"tenantId,omitempty"`
}

// ServiceUpdate is a partial update; nil fields are left unchanged
type ServiceUpdate struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Status      *ServiceStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive maintenance"`
}

// Apply merges the supplied fields of u onto a copy of s.
func (u ServiceUpdate) Apply(s Service) Service {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	return s
}

// ServiceConfiguration is a published configuration payload for a service
type ServiceConfiguration struct {
	ServiceID string          `json:"serviceId"`
	Tables    []ServiceTable  `json:"tables"`
	Config    ComponentConfig `json:"config"`
}

// TableCatalogEntry is a record-system table that can be added to a service
type TableCatalogEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TableName string `json:"tableName"`
}

// FilterFieldOption is a field offered in the filter builder
type FilterFieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
