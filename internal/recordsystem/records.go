package recordsystem

import (
	"encoding/json"
	"strings"
	"time"
)

// Table API endpoints, relative to the configured base URL
const (
	EndpointServices       = "/now/table/cmdb_ci_service"
	EndpointTables         = "/now/table/sys_db_object"
	EndpointFields         = "/now/table/sys_dictionary"
	EndpointConfigurations = "/now/table/x_bloom_config"
	EndpointDomains        = "/now/table/x_bloom_domain"
	EndpointTenants        = "/now/table/x_bloom_tenant"
)

// Record returns the endpoint of a single record in a table.
func Record(endpoint, sysID string) string {
	return strings.TrimRight(endpoint, "/") + "/" + sysID
}

// Response is the Table API envelope
type Response[T any] struct {
	Result T `json:"result"`
}

// Reference is a reference field. With exclude_reference_link set the
// record system returns either a bare display string or a value object,
// and both forms are accepted.
type Reference struct {
	Value        string `json:"value"`
	DisplayValue string `json:"display_value,omitempty"`
}

// UnmarshalJSON accepts "abc", {"value":"abc"} and null.
func (r *Reference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reference{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Reference{Value: s, DisplayValue: s}
		return nil
	}
	type plain Reference
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Reference(p)
	return nil
}

// TenantRecord is a row of the tenant table. Services and Settings hold
// JSON-encoded text.
type TenantRecord struct {
	SysID        string      `json:"sys_id"`
	Name         string      `json:"name"`
	DomainURL    string      `json:"domain_url"`
	Services     string      `json:"services"`
	Settings     string      `json:"settings"`
	ActiveUsers  interface{} `json:"active_users,omitempty"`
	LastActivity string      `json:"last_activity,omitempty"`
	Active       string      `json:"active,omitempty"`
}

// DomainRecord is a row of the domain table
type DomainRecord struct {
	SysID        string `json:"sys_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SysCreatedOn string `json:"sys_created_on"`
	SysUpdatedOn string `json:"sys_updated_on"`
}

// ServiceRecord is a row of the service CI table
type ServiceRecord struct {
	SysID             string    `json:"sys_id,omitempty"`
	Name              string    `json:"name,omitempty"`
	ShortDescription  string    `json:"short_description,omitempty"`
	Description       string    `json:"description,omitempty"`
	Category          string    `json:"category,omitempty"`
	OperationalStatus string    `json:"operational_status,omitempty"`
	SysUpdatedOn      string    `json:"sys_updated_on,omitempty"`
	Company           Reference `json:"company"`
	Icon              string    `json:"icon,omitempty"`
}

// ConfigurationRecord is a row of the published configuration table. Tables
// and Config hold JSON-encoded text.
type ConfigurationRecord struct {
	SysID        string    `json:"sys_id,omitempty"`
	Service      Reference `json:"service"`
	Tables       string    `json:"tables"`
	Config       string    `json:"config"`
	SysCreatedOn string    `json:"sys_created_on,omitempty"`
}

// TableRecord is a row of the table catalog
type TableRecord struct {
	SysID string `json:"sys_id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// FieldRecord is a row of the field dictionary
type FieldRecord struct {
	SysID        string `json:"sys_id"`
	Element      string `json:"element"`
	ColumnLabel  string `json:"column_label"`
	InternalType string `json:"internal_type"`
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats the record system emits. The zero
// time is returned for empty or unrecognized input.
func ParseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
