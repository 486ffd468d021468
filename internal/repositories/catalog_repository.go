package repositories

import (
	"context"
	"fmt"

	"bloom-portal/internal/config"
	"bloom-portal/internal/fixtures"
	"bloom-portal/internal/models"
	"bloom-portal/internal/recordsystem"
)

const catalogTablePrefix = "x_bloom"

type catalogRepository struct {
	cfg    *config.RecordSystemConfig
	client recordsystem.Client
}

// NewCatalogRepository creates a repository over the record system's table
// and field dictionaries
func NewCatalogRepository(cfg *config.RecordSystemConfig, client recordsystem.Client) CatalogRepository {
	return &catalogRepository{cfg: cfg, client: client}
}

func (r *catalogRepository) ListTables(ctx context.Context) ([]models.TableCatalogEntry, error) {
	if r.cfg.UseMockData {
		return fixtures.TableCatalog(), nil
	}

	var resp recordsystem.Response[[]recordsystem.TableRecord]
	err := r.client.Get(ctx, recordsystem.EndpointTables, &resp, recordsystem.WithQueryParams(map[string]string{
		"sysparm_query":  fmt.Sprintf("nameSTARTSWITH%s^ORDERBYlabel", catalogTablePrefix),
		"sysparm_limit":  "100",
		"sysparm_fields": "sys_id,name,label",
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	entries := make([]models.TableCatalogEntry, 0, len(resp.Result))
	for _, rec := range resp.Result {
		name := rec.Label
		if name == "" {
			name = rec.Name
		}
		entries = append(entries, models.TableCatalogEntry{ID: rec.SysID, Name: name, TableName: rec.Name})
	}
	return entries, nil
}

func (r *catalogRepository) ListFilterFields(ctx context.Context, tableName string) ([]models.FilterFieldOption, error) {
	if err := checkRecordID(tableName); err != nil {
		return nil, err
	}
	if r.cfg.UseMockData {
		return fixtures.FilterFields(), nil
	}

	var resp recordsystem.Response[[]recordsystem.FieldRecord]
	err := r.client.Get(ctx, recordsystem.EndpointFields, &resp, recordsystem.WithQueryParams(map[string]string{
		"sysparm_query":  fmt.Sprintf("name=%s^elementISNOTEMPTY^ORDERBYelement", tableName),
		"sysparm_fields": "sys_id,element,column_label,internal_type",
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list fields for %s: %w", tableName, err)
	}

	options := make([]models.FilterFieldOption, 0, len(resp.Result))
	for _, rec := range resp.Result {
		label := rec.ColumnLabel
		if label == "" {
			label = rec.Element
		}
		options = append(options, models.FilterFieldOption{Value: rec.Element, Label: label})
	}
	return options, nil
}
