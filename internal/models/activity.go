package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType classifies entries in the activity feed
type ActivityType string

const (
	ActivityTypeService       ActivityType = "service"
	ActivityTypeConfiguration ActivityType = "configuration"
	ActivityTypeDeployment    ActivityType = "deployment"
	ActivityTypeTenant        ActivityType = "tenant"
)

// Activity is an append-only record of a successful portal mutation
type Activity struct {
	ID           string       `json:"id" gorm:"primaryKey;type:uuid"`
	Type         ActivityType `json:"type" gorm:"not null;index" validate:"required,oneof=service configuration deployment tenant"`
	Title        string       `json:"title" gorm:"not null" validate:"required"`
	Description  string       `json:"description"`
	ResourceType string       `json:"resourceType" gorm:"not null" validate:"required"`
	ResourceID   string       `json:"resourceId" gorm:"not null;index" validate:"required"`
	TenantID     string       `json:"tenantId,omitempty" gorm:"index"`
	Details      JSONMap      `json:"details,omitempty" gorm:"type:jsonb"`
	Timestamp    time.Time    `json:"timestamp" gorm:"not null;index"`
}

// TableName returns the table name for Activity
func (Activity) TableName() string {
	return "portal_activities"
}

// JSONMap is a custom type for map[string]interface{} that implements GORM interfaces
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface for GORM
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface for GORM
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}

	return json.Unmarshal(bytes, m)
}
