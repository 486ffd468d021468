package builder

import (
	"testing"

	"bloom-portal/internal/fixtures"
	"bloom-portal/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customersEntry() models.TableCatalogEntry {
	return models.TableCatalogEntry{ID: "tbl-cust", Name: "Customers", TableName: "x_bloom_customer"}
}

func TestNewDraftDefaults(t *testing.T) {
	original := fixtures.Services()[0].Tables
	d := NewDraft("svc-001", original)

	assert.Equal(t, "svc-001", d.ServiceID)
	assert.Equal(t, original, d.Tables)
	assert.Empty(t, d.Filters)
	assert.Equal(t, DefaultConfig(), d.Config)

	d.Tables[0].Fields[0].Visible = !d.Tables[0].Fields[0].Visible
	assert.NotEqual(t, d.Tables[0].Fields[0].Visible, d.OriginalTables[0].Fields[0].Visible)
}

func TestNewDraftCarriesPublishedFilters(t *testing.T) {
	active := models.TableFilter{ID: "f1", Field: "status", Operator: models.OperatorEquals, Value: "Active"}
	recent := models.TableFilter{ID: "f2", Field: "name", Operator: models.OperatorContains, Value: "a"}
	original := []models.ServiceTable{
		{ID: "tbl-claims", Name: "Claims", Filters: []models.TableFilter{active}},
		{ID: "tbl-cust", Name: "Customers", Filters: []models.TableFilter{active, recent}},
	}

	d := NewDraft("svc-001", original)
	assert.Equal(t, []models.TableFilter{active, recent}, d.Filters)

	payload := d.Payload()
	for _, table := range payload.Tables {
		assert.Equal(t, []models.TableFilter{active, recent}, table.Filters)
	}

	d.Reset()
	assert.Empty(t, d.Filters)
	assert.Len(t, d.Tables[1].Filters, 2)
}

func TestAddTable(t *testing.T) {
	d := NewDraft("svc-new", nil)

	table, err := d.AddTable(customersEntry())
	require.NoError(t, err)
	require.Len(t, table.Fields, 2)
	assert.Equal(t, "name", table.Fields[0].Name)
	assert.True(t, table.Fields[0].Required)
	assert.Equal(t, models.FieldTypeDate, table.Fields[1].Type)
	assert.Equal(t, "Created Date", table.Fields[1].Label)
	assert.False(t, table.Fields[1].Required)

	_, err = d.AddTable(customersEntry())
	assert.ErrorIs(t, err, ErrTableAlreadySelected)
	assert.Len(t, d.Tables, 1)
}

func TestRemoveTableKeepsFilters(t *testing.T) {
	d := NewDraft("svc-new", nil)
	_, err := d.AddTable(customersEntry())
	require.NoError(t, err)
	d.AddFilter(models.TableFilter{Field: "name", Value: "John"})

	require.NoError(t, d.RemoveTable("tbl-cust"))
	assert.Empty(t, d.Tables)
	assert.Len(t, d.Filters, 1)

	assert.ErrorIs(t, d.RemoveTable("tbl-cust"), ErrTableNotFound)
}

func TestToggleFieldVisibility(t *testing.T) {
	d := NewDraft("svc-new", nil)
	_, err := d.AddTable(customersEntry())
	require.NoError(t, err)

	field, err := d.ToggleFieldVisibility("tbl-cust", "tbl-cust-fld-1")
	require.NoError(t, err)
	assert.False(t, field.Visible)

	field, err = d.ToggleFieldVisibility("tbl-cust", "tbl-cust-fld-2")
	require.NoError(t, err)
	assert.False(t, field.Visible)

	_, err = d.ToggleFieldVisibility("tbl-cust", "missing")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = d.ToggleFieldVisibility("missing", "tbl-cust-fld-1")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestFilterLifecycle(t *testing.T) {
	d := NewDraft("svc-new", nil)

	f := d.AddFilter(models.TableFilter{})
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, models.OperatorEquals, f.Operator)
	assert.Equal(t, "", f.Value)

	field := "status"
	op := models.OperatorContains
	updated, err := d.UpdateFilter(f.ID, FilterUpdate{Field: &field, Operator: &op, Value: "act"})
	require.NoError(t, err)
	assert.Equal(t, "status", updated.Field)
	assert.Equal(t, models.OperatorContains, updated.Operator)
	assert.Equal(t, "act", updated.Value)

	updated, err = d.UpdateFilter(f.ID, FilterUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "act", updated.Value)

	require.NoError(t, d.RemoveFilter(f.ID))
	assert.Empty(t, d.Filters)
	assert.ErrorIs(t, d.RemoveFilter(f.ID), ErrFilterNotFound)
	_, err = d.UpdateFilter(f.ID, FilterUpdate{})
	assert.ErrorIs(t, err, ErrFilterNotFound)
}

func TestUpdateConfigMergesKeys(t *testing.T) {
	d := NewDraft("svc-new", nil)

	color := "#FF0000"
	layout := models.LayoutCompact
	perPage := 10
	cfg := d.UpdateConfig(ConfigUpdate{
		Theme:          &ThemeUpdate{PrimaryColor: &color},
		Layout:         &layout,
		DisplayOptions: &DisplayOptionsUpdate{ItemsPerPage: &perPage},
	})

	assert.Equal(t, "#FF0000", cfg.Theme.PrimaryColor)
	assert.Equal(t, DefaultSecondaryColor, cfg.Theme.SecondaryColor)
	assert.Equal(t, models.LayoutCompact, cfg.Layout)
	assert.Equal(t, 10, cfg.DisplayOptions.ItemsPerPage)
	assert.True(t, cfg.DisplayOptions.BulkActions)
	assert.False(t, cfg.DisplayOptions.InlineEdit)
}

func TestResetRestoresDefaults(t *testing.T) {
	original := fixtures.Services()[0].Tables
	d := NewDraft("svc-001", original)

	_, err := d.AddTable(models.TableCatalogEntry{ID: "tbl-agents", Name: "Agents"})
	require.NoError(t, err)
	d.AddFilter(models.TableFilter{Field: "status", Value: "Active"})
	layout := models.LayoutList
	d.UpdateConfig(ConfigUpdate{Layout: &layout})

	d.Reset()

	assert.Equal(t, original, d.Tables)
	assert.Empty(t, d.Filters)
	assert.Equal(t, DefaultPrimaryColor, d.Config.Theme.PrimaryColor)
	assert.Equal(t, DefaultSecondaryColor, d.Config.Theme.SecondaryColor)
	assert.Equal(t, models.LayoutGrid, d.Config.Layout)
	assert.Equal(t, 25, d.Config.DisplayOptions.ItemsPerPage)
	assert.False(t, d.Config.DisplayOptions.InlineEdit)
	assert.True(t, d.Config.DisplayOptions.BulkActions)
}

func TestPayloadAttachesFilters(t *testing.T) {
	d := NewDraft("svc-new", nil)
	_, err := d.AddTable(customersEntry())
	require.NoError(t, err)
	_, err = d.AddTable(models.TableCatalogEntry{ID: "tbl-claims", Name: "Claims"})
	require.NoError(t, err)
	d.AddFilter(models.TableFilter{ID: "f1", Field: "status", Value: "Active"})

	payload := d.Payload()
	assert.Equal(t, "svc-new", payload.ServiceID)
	require.Len(t, payload.Tables, 2)
	for _, table := range payload.Tables {
		require.Len(t, table.Filters, 1)
		assert.Equal(t, "f1", table.Filters[0].ID)
	}
	assert.Empty(t, d.Tables[0].Filters)
}

func TestPreviewStatusFilter(t *testing.T) {
	d := NewDraft("svc-new", nil)
	_, err := d.AddTable(customersEntry())
	require.NoError(t, err)
	d.AddFilter(models.TableFilter{Field: "status", Operator: models.OperatorEquals, Value: "Active"})

	p := d.Preview(fixtures.SampleRows())

	require.Len(t, p.Tables, 1)
	table := p.Tables[0]
	assert.Equal(t, 3, table.Total)
	assert.Equal(t, 3, table.Shown)
	assert.Equal(t, []Column{{Field: "name", Label: "Name"}, {Field: "created_at", Label: "Created Date"}}, table.Columns)
	assert.Equal(t, []string{"John Doe", "2025-01-15"}, table.Rows[0])
	assert.Equal(t, []string{"Bob Johnson", "2025-01-20"}, table.Rows[1])
	assert.Equal(t, []string{"Alice Williams", "2025-01-21"}, table.Rows[2])
}

func TestPreviewPagingAndMissingCells(t *testing.T) {
	d := NewDraft("svc-new", []models.ServiceTable{{
		ID:   "tbl-x",
		Name: "X",
		Fields: []models.TableField{
			{ID: "a", Name: "amount", Label: "Amount", Visible: true, Order: 2},
			{ID: "b", Name: "region", Label: "Region", Visible: true, Order: 1},
			{ID: "c", Name: "name", Label: "Name", Visible: false, Order: 0},
		},
	}})
	perPage := 2
	d.UpdateConfig(ConfigUpdate{DisplayOptions: &DisplayOptionsUpdate{ItemsPerPage: &perPage}})

	p := d.Preview(fixtures.SampleRows())

	table := p.Tables[0]
	assert.Equal(t, 4, table.Total)
	assert.Equal(t, 2, table.Shown)
	assert.Equal(t, []Column{{Field: "region", Label: "Region"}, {Field: "amount", Label: "Amount"}}, table.Columns)
	assert.Equal(t, []string{"-", "$1,250"}, table.Rows[0])
	assert.Equal(t, 2, p.ItemsPerPage)
}

func TestMatchesOperators(t *testing.T) {
	row := map[string]interface{}{"id": 3, "name": "Bob Johnson", "created_at": "2025-01-20", "amount": "$890"}

	cases := []struct {
		filter models.TableFilter
		want   bool
	}{
		{models.TableFilter{Field: "name", Operator: models.OperatorContains, Value: "john"}, true},
		{models.TableFilter{Field: "name", Operator: models.OperatorStartsWith, Value: "Bob"}, true},
		{models.TableFilter{Field: "name", Operator: models.OperatorEndsWith, Value: "smith"}, false},
		{models.TableFilter{Field: "amount", Operator: models.OperatorGreaterThan, Value: "500"}, true},
		{models.TableFilter{Field: "amount", Operator: models.OperatorLessThan, Value: "$1,000"}, true},
		{models.TableFilter{Field: "amount", Operator: models.OperatorEquals, Value: 890}, true},
		{models.TableFilter{Field: "created_at", Operator: models.OperatorGreaterThan, Value: "2025-01-18"}, true},
		{models.TableFilter{Field: "created_at", Operator: models.OperatorLessThan, Value: "2025-01-18"}, false},
		{models.TableFilter{Field: "id", Operator: models.OperatorEquals, Value: "3"}, true},
		{models.TableFilter{Field: "missing", Operator: models.OperatorEquals, Value: ""}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Matches(row, tc.filter), "%s %s %v", tc.filter.Field, tc.filter.Operator, tc.filter.Value)
	}

	assert.True(t, MatchesAll(row, []models.TableFilter{{Operator: models.OperatorEquals, Value: "ignored"}}))
}

func TestDraftProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("toggling a field twice restores the draft", prop.ForAll(
		func(fieldIdx int) bool {
			d := NewDraft("svc-001", fixtures.Services()[0].Tables)
			table := d.Tables[0]
			field := table.Fields[fieldIdx%len(table.Fields)]
			before := field.Visible

			if _, err := d.ToggleFieldVisibility(table.ID, field.ID); err != nil {
				return false
			}
			after, err := d.ToggleFieldVisibility(table.ID, field.ID)
			return err == nil && after.Visible == before
		},
		gen.IntRange(0, 100),
	))

	properties.Property("adding then removing filters leaves the rest", prop.ForAll(
		func(kept, added int) bool {
			d := NewDraft("svc-new", nil)
			for i := 0; i < kept; i++ {
				d.AddFilter(models.TableFilter{Field: "name"})
			}
			var ids []string
			for i := 0; i < added; i++ {
				ids = append(ids, d.AddFilter(models.TableFilter{Field: "status"}).ID)
			}
			for _, id := range ids {
				if err := d.RemoveFilter(id); err != nil {
					return false
				}
			}
			if len(d.Filters) != kept {
				return false
			}
			for _, f := range d.Filters {
				if f.Field != "name" {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.Property("preview never shows more than a page", prop.ForAll(
		func(perPage int) bool {
			d := NewDraft("svc-new", nil)
			if _, err := d.AddTable(customersEntry()); err != nil {
				return false
			}
			d.UpdateConfig(ConfigUpdate{DisplayOptions: &DisplayOptionsUpdate{ItemsPerPage: &perPage}})
			table := d.Preview(fixtures.SampleRows()).Tables[0]
			return table.Shown <= perPage && table.Shown == len(table.Rows) && table.Total == 4
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
