package fixtures

import (
	"strconv"
	"time"

	"bloom-portal/internal/models"
)

func field(tableID string, n int, name string, typ models.FieldType, label string, required bool) models.TableField {
	return models.TableField{
		ID:       tableID + "-fld-" + strconv.Itoa(n),
		Name:     name,
		Type:     typ,
		Label:    label,
		Required: required,
		Visible:  true,
		Order:    n,
	}
}

func customersTable() models.ServiceTable {
	return models.ServiceTable{
		ID:          "tbl-cust",
		Name:        "Customers",
		TableName:   "x_bloom_customers",
		Description: "Policyholders and prospects",
		Fields: []models.TableField{
			field("tbl-cust", 1, "name", models.FieldTypeString, "Name", true),
			field("tbl-cust", 2, "status", models.FieldTypeString, "Status", false),
			field("tbl-cust", 3, "created_at", models.FieldTypeDate, "Created Date", false),
		},
	}
}

func policiesTable() models.ServiceTable {
	return models.ServiceTable{
		ID:          "tbl-policy",
		Name:        "Policies",
		TableName:   "x_bloom_policies",
		Description: "Issued and pending policies",
		Fields: []models.TableField{
			field("tbl-policy", 1, "name", models.FieldTypeString, "Policy Name", true),
			field("tbl-policy", 2, "status", models.FieldTypeString, "Status", false),
			field("tbl-policy", 3, "amount", models.FieldTypeNumber, "Premium", false),
			field("tbl-policy", 4, "holder", models.FieldTypeReference, "Policyholder", false),
		},
	}
}

func claimsTable() models.ServiceTable {
	return models.ServiceTable{
		ID:          "tbl-claims",
		Name:        "Claims",
		TableName:   "x_bloom_claims",
		Description: "Claims filed against policies",
		Fields: []models.TableField{
			field("tbl-claims", 1, "name", models.FieldTypeString, "Claimant", true),
			field("tbl-claims", 2, "status", models.FieldTypeString, "Status", false),
			field("tbl-claims", 3, "amount", models.FieldTypeNumber, "Amount", false),
			field("tbl-claims", 4, "created_at", models.FieldTypeDate, "Filed", false),
		},
	}
}

func agentsTable() models.ServiceTable {
	return models.ServiceTable{
		ID:        "tbl-agents",
		Name:      "Agents",
		TableName: "x_bloom_agents",
		Fields: []models.TableField{
			field("tbl-agents", 1, "name", models.FieldTypeString, "Name", true),
			field("tbl-agents", 2, "licensed", models.FieldTypeBoolean, "Licensed", false),
		},
	}
}

// Services returns a fresh copy of the mock service catalog.
func Services() []models.Service {
	modified := func(v string) time.Time { return at(time.RFC3339, v) }

	return []models.Service{
		{
			ID:           "svc-001",
			Name:         "Customer Management",
			Description:  "Maintain customer profiles, contacts and household relationships",
			Category:     "Customer Service",
			Status:       models.ServiceStatusActive,
			LastModified: modified("2025-12-18T09:00:00Z"),
			Icon:         "users",
			Tables:       []models.ServiceTable{customersTable()},
		},
		{
			ID:           "svc-002",
			Name:         "Policy Management",
			Description:  "Issue, endorse and renew insurance policies",
			Category:     "Policy Administration",
			Status:       models.ServiceStatusActive,
			LastModified: modified("2025-12-20T11:30:00Z"),
			Icon:         "file-text",
			Tables:       []models.ServiceTable{policiesTable(), customersTable()},
		},
		{
			ID:           "svc-003",
			Name:         "Claims Processing",
			Description:  "First notice of loss through settlement",
			Category:     "Claims",
			Status:       models.ServiceStatusActive,
			LastModified: modified("2025-12-19T16:10:00Z"),
			Icon:         "clipboard",
			Tables:       []models.ServiceTable{claimsTable()},
		},
		{
			ID:           "svc-004",
			Name:         "Underwriting Workflow",
			Description:  "Risk assessment and approval routing",
			Category:     "Policy Administration",
			Status:       models.ServiceStatusActive,
			LastModified: modified("2025-12-15T08:45:00Z"),
			Icon:         "shield",
			Tables:       []models.ServiceTable{policiesTable()},
		},
		{
			ID:           "svc-005",
			Name:         "Billing & Payments",
			Description:  "Premium invoicing and payment collection",
			Category:     "Finance",
			Status:       models.ServiceStatusMaintenance,
			LastModified: modified("2025-12-21T07:00:00Z"),
			Icon:         "credit-card",
		},
		{
			ID:           "svc-006",
			Name:         "Agent Portal",
			Description:  "Producer onboarding, licensing and commissions",
			Category:     "Distribution",
			Status:       models.ServiceStatusActive,
			LastModified: modified("2025-12-10T13:20:00Z"),
			Icon:         "briefcase",
			Tables:       []models.ServiceTable{agentsTable()},
		},
		{
			ID:           "svc-007",
			Name:         "Compliance Reporting",
			Description:  "Regulatory filings and audit trails",
			Category:     "Compliance",
			Status:       models.ServiceStatusActive,
			LastModified: modified("2025-12-12T10:05:00Z"),
			Icon:         "check-circle",
		},
		{
			ID:           "svc-008",
			Name:         "Document Management",
			Description:  "Policy documents, correspondence and e-signature",
			Category:     "Operations",
			Status:       models.ServiceStatusInactive,
			LastModified: modified("2025-11-28T15:00:00Z"),
			Icon:         "folder",
		},
	}
}

// TableCatalog returns the tables that can be added in the configuration builder.
func TableCatalog() []models.TableCatalogEntry {
	return []models.TableCatalogEntry{
		{ID: "tbl-cust", Name: "Customers", TableName: "x_bloom_customers"},
		{ID: "tbl-policy", Name: "Policies", TableName: "x_bloom_policies"},
		{ID: "tbl-claims", Name: "Claims", TableName: "x_bloom_claims"},
		{ID: "tbl-agents", Name: "Agents", TableName: "x_bloom_agents"},
	}
}

// FilterFields returns the fields offered by the filter builder.
func FilterFields() []models.FilterFieldOption {
	return []models.FilterFieldOption{
		{Value: "name", Label: "Name"},
		{Value: "status", Label: "Status"},
		{Value: "created_at", Label: "Created Date"},
		{Value: "updated_at", Label: "Updated Date"},
		{Value: "amount", Label: "Amount"},
	}
}

// SampleRows returns the rows rendered by the configuration preview.
func SampleRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": 1, "name": "John Doe", "status": "Active", "created_at": "2025-01-15", "amount": "$1,250"},
		{"id": 2, "name": "Jane Smith", "status": "Pending", "created_at": "2025-01-18", "amount": "$2,400"},
		{"id": 3, "name": "Bob Johnson", "status": "Active", "created_at": "2025-01-20", "amount": "$890"},
		{"id": 4, "name": "Alice Williams", "status": "Active", "created_at": "2025-01-21", "amount": "$3,150"},
	}
}
