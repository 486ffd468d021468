package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationService(t *testing.T) {
	validator := NewValidationService()

	t.Run("TenantCreate validation", func(t *testing.T) {
		tc := &TenantCreate{Name: "Harbor Mutual", Domain: "harbor-mutual.servicenow.com"}
		assert.NoError(t, validator.ValidateStruct(tc))

		tc.Name = ""
		err := validator.ValidateStruct(tc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "name")

		tc.Name = strings.Repeat("a", 256)
		err = validator.ValidateStruct(tc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")

		tc.Name = "Harbor Mutual"
		tc.Domain = ""
		err = validator.ValidateStruct(tc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "domain")
	})

	t.Run("ServiceUpdate validation", func(t *testing.T) {
		status := ServiceStatusMaintenance
		assert.NoError(t, validator.ValidateStruct(&ServiceUpdate{Status: &status}))

		bogus := ServiceStatus("retired")
		err := validator.ValidateStruct(&ServiceUpdate{Status: &bogus})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status")

		assert.NoError(t, validator.ValidateStruct(&ServiceUpdate{}))
	})

	t.Run("ComponentConfig validation", func(t *testing.T) {
		cfg := &ComponentConfig{
			Theme:          &ComponentTheme{PrimaryColor: "#00ADEE", SecondaryColor: "#1B75BB"},
			Layout:         LayoutGrid,
			DisplayOptions: &DisplayOptions{BulkActions: true, ItemsPerPage: 25},
		}
		assert.NoError(t, validator.ValidateStruct(cfg))

		cfg.Layout = "carousel"
		err := validator.ValidateStruct(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "layout")

		cfg.Layout = LayoutList
		cfg.Theme.PrimaryColor = "blue"
		err = validator.ValidateStruct(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "primaryColor")

		cfg.Theme.PrimaryColor = "#00ADEE"
		cfg.DisplayOptions.ItemsPerPage = 0
		err = validator.ValidateStruct(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "itemsPerPage")
	})
}

func TestServiceUpdateApply(t *testing.T) {
	base := Service{ID: "svc-001", Name: "Customer Management", Category: "Customer Service", Status: ServiceStatusActive}

	name := "Customer 360"
	updated := ServiceUpdate{Name: &name}.Apply(base)

	assert.Equal(t, "Customer 360", updated.Name)
	assert.Equal(t, "Customer Service", updated.Category)
	assert.Equal(t, ServiceStatusActive, updated.Status)
	assert.Equal(t, "Customer Management", base.Name, "base must not be modified")
}

func TestTenantHasService(t *testing.T) {
	tenant := &Tenant{Services: []string{"svc-001", "svc-006"}}
	assert.True(t, tenant.HasService("svc-006"))
	assert.False(t, tenant.HasService("svc-002"))
}

func TestJSONMap(t *testing.T) {
	t.Run("Value and Scan", func(t *testing.T) {
		original := JSONMap{"serviceId": "svc-003", "tables": float64(2)}

		value, err := original.Value()
		require.NoError(t, err)

		var scanned JSONMap
		require.NoError(t, scanned.Scan(value))
		assert.Equal(t, original, scanned)

		var fromString JSONMap
		require.NoError(t, fromString.Scan(`{"a":"b"}`))
		assert.Equal(t, "b", fromString["a"])
	})

	t.Run("nil values", func(t *testing.T) {
		var m JSONMap
		value, err := m.Value()
		require.NoError(t, err)
		assert.Nil(t, value)

		require.NoError(t, m.Scan(nil))
		assert.Nil(t, m)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var m JSONMap
		assert.Error(t, m.Scan(42))
	})
}

func TestTenantJSONShape(t *testing.T) {
	users := 3
	tenant := Tenant{
		ID:          "tenant-1",
		Name:        "Harbor Mutual",
		Domain:      "harbor.servicenow.com",
		Services:    []string{},
		Settings:    TenantSettings{Features: []string{}},
		ActiveUsers: &users,
	}

	data, err := json.Marshal(tenant)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(3), raw["activeUsers"])
	assert.Contains(t, raw, "settings")
	assert.NotContains(t, raw, "lastActivity")
	settings := raw["settings"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, settings["features"])
}
