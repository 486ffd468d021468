// Package builder holds the editable draft of a service's display
// configuration. Drafts are plain values with no persistence of their own.
package builder

import (
	"errors"
	"fmt"
	"time"

	"bloom-portal/internal/models"

	"github.com/google/uuid"
)

var (
	ErrTableAlreadySelected = errors.New("table already selected")
	ErrTableNotFound        = errors.New("table not found in draft")
	ErrFieldNotFound        = errors.New("field not found in table")
	ErrFilterNotFound       = errors.New("filter not found in draft")
)

// Default component settings applied to new and reset drafts
const (
	DefaultPrimaryColor   = "#00ADEE"
	DefaultSecondaryColor = "#1B75BB"
	DefaultItemsPerPage   = 25
)

// DefaultConfig returns the component configuration of a fresh draft.
func DefaultConfig() models.ComponentConfig {
	return models.ComponentConfig{
		Theme: &models.ComponentTheme{
			PrimaryColor:   DefaultPrimaryColor,
			SecondaryColor: DefaultSecondaryColor,
		},
		Layout: models.LayoutGrid,
		DisplayOptions: &models.DisplayOptions{
			InlineEdit:   false,
			BulkActions:  true,
			ItemsPerPage: DefaultItemsPerPage,
		},
	}
}

// Draft is the in-progress configuration of one service
type Draft struct {
	ServiceID      string                 `json:"serviceId"`
	OriginalTables []models.ServiceTable  `json:"originalTables"`
	Tables         []models.ServiceTable  `json:"tables"`
	Filters        []models.TableFilter   `json:"filters"`
	Config         models.ComponentConfig `json:"config"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// NewDraft starts a draft from the service's persisted tables. Filters
// already published on those tables are carried into the draft so that
// publishing again keeps them.
func NewDraft(serviceID string, original []models.ServiceTable) *Draft {
	d := &Draft{
		ServiceID:      serviceID,
		OriginalTables: cloneTables(original),
	}
	d.Tables = cloneTables(d.OriginalTables)
	d.Filters = publishedFilters(d.OriginalTables)
	d.Config = DefaultConfig()
	return d
}

// publishedFilters collects the filters of tables, first occurrence of each
// ID wins.
func publishedFilters(tables []models.ServiceTable) []models.TableFilter {
	filters := []models.TableFilter{}
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, f := range t.Filters {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			filters = append(filters, f)
		}
	}
	return filters
}

// RestoreConfig replaces the draft config with a published one. Parts the
// published config leaves unset keep their defaults.
func (d *Draft) RestoreConfig(published models.ComponentConfig) {
	cfg := DefaultConfig()
	if published.Theme != nil {
		if published.Theme.PrimaryColor != "" {
			cfg.Theme.PrimaryColor = published.Theme.PrimaryColor
		}
		if published.Theme.SecondaryColor != "" {
			cfg.Theme.SecondaryColor = published.Theme.SecondaryColor
		}
	}
	if published.Layout != "" {
		cfg.Layout = published.Layout
	}
	if published.DisplayOptions != nil {
		opts := *published.DisplayOptions
		if opts.ItemsPerPage <= 0 {
			opts.ItemsPerPage = DefaultItemsPerPage
		}
		cfg.DisplayOptions = &opts
	}
	if published.Fields != nil {
		cfg.Fields = append([]string{}, published.Fields...)
	}
	d.Config = cfg
}

// Reset restores the original tables and discards filters and config overrides.
func (d *Draft) Reset() {
	d.Tables = cloneTables(d.OriginalTables)
	d.Filters = []models.TableFilter{}
	d.Config = DefaultConfig()
}

// AddTable selects a catalog table with the default name and created-date
// fields.
func (d *Draft) AddTable(entry models.TableCatalogEntry) (models.ServiceTable, error) {
	if _, idx := d.table(entry.ID); idx >= 0 {
		return models.ServiceTable{}, fmt.Errorf("%w: %s", ErrTableAlreadySelected, entry.ID)
	}

	table := models.ServiceTable{
		ID:        entry.ID,
		Name:      entry.Name,
		TableName: entry.TableName,
		Fields: []models.TableField{
			{
				ID:       entry.ID + "-fld-1",
				Name:     "name",
				Type:     models.FieldTypeString,
				Label:    "Name",
				Required: true,
				Visible:  true,
				Order:    1,
			},
			{
				ID:       entry.ID + "-fld-2",
				Name:     "created_at",
				Type:     models.FieldTypeDate,
				Label:    "Created Date",
				Required: false,
				Visible:  true,
				Order:    2,
			},
		},
		Filters: []models.TableFilter{},
	}
	d.Tables = append(d.Tables, table)
	return table, nil
}

// RemoveTable drops a selected table. Filters that mention its fields stay.
func (d *Draft) RemoveTable(tableID string) error {
	_, idx := d.table(tableID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	d.Tables = append(d.Tables[:idx], d.Tables[idx+1:]...)
	return nil
}

// ToggleFieldVisibility flips one field's visible flag. A table may end up
// with no visible fields.
func (d *Draft) ToggleFieldVisibility(tableID, fieldID string) (models.TableField, error) {
	table, idx := d.table(tableID)
	if idx < 0 {
		return models.TableField{}, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	for i := range table.Fields {
		if table.Fields[i].ID == fieldID {
			table.Fields[i].Visible = !table.Fields[i].Visible
			return table.Fields[i], nil
		}
	}
	return models.TableField{}, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldID)
}

// AddFilter appends a filter, assigning an id and the equals operator when
// they are missing.
func (d *Draft) AddFilter(filter models.TableFilter) models.TableFilter {
	if filter.ID == "" {
		filter.ID = "filter-" + uuid.NewString()
	}
	if filter.Operator == "" {
		filter.Operator = models.OperatorEquals
	}
	if filter.Value == nil {
		filter.Value = ""
	}
	d.Filters = append(d.Filters, filter)
	return filter
}

// FilterUpdate changes some attributes of a filter; nil fields are kept
type FilterUpdate struct {
	Field    *string                `json:"field,omitempty"`
	Operator *models.FilterOperator `json:"operator,omitempty" validate:"omitempty,oneof=equals contains starts_with ends_with greater_than less_than"`
	Value    interface{}            `json:"value,omitempty"`
}

// UpdateFilter applies u to the filter with the given id.
func (d *Draft) UpdateFilter(filterID string, u FilterUpdate) (models.TableFilter, error) {
	for i := range d.Filters {
		if d.Filters[i].ID != filterID {
			continue
		}
		if u.Field != nil {
			d.Filters[i].Field = *u.Field
		}
		if u.Operator != nil {
			d.Filters[i].Operator = *u.Operator
		}
		if u.Value != nil {
			d.Filters[i].Value = u.Value
		}
		return d.Filters[i], nil
	}
	return models.TableFilter{}, fmt.Errorf("%w: %s", ErrFilterNotFound, filterID)
}

// RemoveFilter discards a filter.
func (d *Draft) RemoveFilter(filterID string) error {
	for i := range d.Filters {
		if d.Filters[i].ID == filterID {
			d.Filters = append(d.Filters[:i], d.Filters[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFilterNotFound, filterID)
}

// ThemeUpdate is a partial theme change
type ThemeUpdate struct {
	PrimaryColor   *string `json:"primaryColor,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondaryColor,omitempty" validate:"omitempty,hexcolor"`
}

// DisplayOptionsUpdate is a partial display options change
type DisplayOptionsUpdate struct {
	InlineEdit   *bool `json:"inlineEdit,omitempty"`
	BulkActions  *bool `json:"bulkActions,omitempty"`
	ItemsPerPage *int  `json:"itemsPerPage,omitempty" validate:"omitempty,min=1,max=500"`
}

// ConfigUpdate is a partial component configuration change
type ConfigUpdate struct {
	Theme          *ThemeUpdate          `json:"theme,omitempty"`
	Layout         *models.Layout        `json:"layout,omitempty" validate:"omitempty,oneof=grid list compact"`
	DisplayOptions *DisplayOptionsUpdate `json:"displayOptions,omitempty"`
	Fields         []string              `json:"fields,omitempty"`
}

// UpdateConfig merges u into the draft config. Theme and display options
// merge key by key.
func (d *Draft) UpdateConfig(u ConfigUpdate) models.ComponentConfig {
	cfg := &d.Config
	if u.Theme != nil {
		if cfg.Theme == nil {
			cfg.Theme = &models.ComponentTheme{}
		}
		if u.Theme.PrimaryColor != nil {
			cfg.Theme.PrimaryColor = *u.Theme.PrimaryColor
		}
		if u.Theme.SecondaryColor != nil {
			cfg.Theme.SecondaryColor = *u.Theme.SecondaryColor
		}
	}
	if u.Layout != nil {
		cfg.Layout = *u.Layout
	}
	if u.DisplayOptions != nil {
		if cfg.DisplayOptions == nil {
			cfg.DisplayOptions = &models.DisplayOptions{ItemsPerPage: DefaultItemsPerPage}
		}
		if u.DisplayOptions.InlineEdit != nil {
			cfg.DisplayOptions.InlineEdit = *u.DisplayOptions.InlineEdit
		}
		if u.DisplayOptions.BulkActions != nil {
			cfg.DisplayOptions.BulkActions = *u.DisplayOptions.BulkActions
		}
		if u.DisplayOptions.ItemsPerPage != nil {
			cfg.DisplayOptions.ItemsPerPage = *u.DisplayOptions.ItemsPerPage
		}
	}
	if u.Fields != nil {
		cfg.Fields = append([]string{}, u.Fields...)
	}
	return *cfg
}

// Payload returns the configuration to publish. Draft filters are attached
// to every selected table.
func (d *Draft) Payload() models.ServiceConfiguration {
	tables := cloneTables(d.Tables)
	for i := range tables {
		tables[i].Filters = append([]models.TableFilter{}, d.Filters...)
	}
	return models.ServiceConfiguration{
		ServiceID: d.ServiceID,
		Tables:    tables,
		Config:    d.Config,
	}
}

func (d *Draft) table(tableID string) (*models.ServiceTable, int) {
	for i := range d.Tables {
		if d.Tables[i].ID == tableID {
			return &d.Tables[i], i
		}
	}
	return nil, -1
}

func cloneTables(tables []models.ServiceTable) []models.ServiceTable {
	out := make([]models.ServiceTable, len(tables))
	for i, t := range tables {
		t.Fields = append([]models.TableField{}, t.Fields...)
		if t.Filters != nil {
			t.Filters = append([]models.TableFilter{}, t.Filters...)
		}
		out[i] = t
	}
	return out
}
