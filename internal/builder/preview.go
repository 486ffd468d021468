package builder

import (
	"sort"
	"strings"
	"time"

	"bloom-portal/internal/models"

	"github.com/spf13/cast"
)

const (
	missingCell    = "-"
	previewDateFmt = "2006-01-02"
)

// Column is one visible field of a previewed table
type Column struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

// TablePreview is the rendered sample of one selected table
type TablePreview struct {
	TableID string     `json:"tableId"`
	Name    string     `json:"name"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Shown   int        `json:"shown"`
	Total   int        `json:"total"`
}

// Preview is the draft rendered against sample rows
type Preview struct {
	Layout       models.Layout  `json:"layout"`
	PrimaryColor string         `json:"primaryColor"`
	ItemsPerPage int            `json:"itemsPerPage"`
	Tables       []TablePreview `json:"tables"`
}

// Preview renders every selected table against rows. Rows must satisfy all
// draft filters; at most ItemsPerPage of them are shown per table.
func (d *Draft) Preview(rows []map[string]interface{}) Preview {
	p := Preview{
		Layout:       d.Config.Layout,
		ItemsPerPage: DefaultItemsPerPage,
		Tables:       make([]TablePreview, 0, len(d.Tables)),
	}
	if p.Layout == "" {
		p.Layout = models.LayoutGrid
	}
	if d.Config.Theme != nil {
		p.PrimaryColor = d.Config.Theme.PrimaryColor
	}
	if d.Config.DisplayOptions != nil && d.Config.DisplayOptions.ItemsPerPage > 0 {
		p.ItemsPerPage = d.Config.DisplayOptions.ItemsPerPage
	}

	matched := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if MatchesAll(row, d.Filters) {
			matched = append(matched, row)
		}
	}

	for _, table := range d.Tables {
		columns := visibleColumns(table.Fields)
		tp := TablePreview{
			TableID: table.ID,
			Name:    table.Name,
			Columns: columns,
			Rows:    [][]string{},
			Total:   len(matched),
		}
		for _, row := range matched {
			if len(tp.Rows) == p.ItemsPerPage {
				break
			}
			cells := make([]string, len(columns))
			for i, c := range columns {
				cells[i] = cellText(row, c.Field)
			}
			tp.Rows = append(tp.Rows, cells)
		}
		tp.Shown = len(tp.Rows)
		p.Tables = append(p.Tables, tp)
	}
	return p
}

// MatchesAll reports whether row satisfies every filter. Filters without a
// field are ignored.
func MatchesAll(row map[string]interface{}, filters []models.TableFilter) bool {
	for _, f := range filters {
		if f.Field == "" {
			continue
		}
		if !Matches(row, f) {
			return false
		}
	}
	return true
}

// Matches evaluates a single filter against row. A missing column never
// matches.
func Matches(row map[string]interface{}, f models.TableFilter) bool {
	raw, ok := row[f.Field]
	if !ok || raw == nil {
		return false
	}
	actual := cast.ToString(raw)
	expected := cast.ToString(f.Value)

	switch f.Operator {
	case models.OperatorEquals, "":
		if actual == expected {
			return true
		}
		a, aok := toNumber(actual)
		b, bok := toNumber(expected)
		return aok && bok && a == b
	case models.OperatorContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case models.OperatorStartsWith:
		return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(expected))
	case models.OperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(actual), strings.ToLower(expected))
	case models.OperatorGreaterThan:
		return compare(actual, expected) > 0
	case models.OperatorLessThan:
		return compare(actual, expected) < 0
	default:
		return false
	}
}

// compare orders numbers numerically and dates chronologically, falling back
// to string order.
func compare(a, b string) int {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	if x, err := time.Parse(previewDateFmt, a); err == nil {
		if y, err := time.Parse(previewDateFmt, b); err == nil {
			return x.Compare(y)
		}
	}
	return strings.Compare(a, b)
}

// toNumber accepts plain and currency-formatted numbers such as "$1,250".
func toNumber(s string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	n, err := cast.ToFloat64E(cleaned)
	if err != nil {
		return 0, false
	}
	return n, true
}

func visibleColumns(fields []models.TableField) []Column {
	visible := make([]models.TableField, 0, len(fields))
	for _, f := range fields {
		if f.Visible {
			visible = append(visible, f)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Order < visible[j].Order })

	columns := make([]Column, len(visible))
	for i, f := range visible {
		columns[i] = Column{Field: f.Name, Label: f.Label}
	}
	return columns
}

func cellText(row map[string]interface{}, field string) string {
	v, ok := row[field]
	if !ok || v == nil {
		return missingCell
	}
	s := cast.ToString(v)
	if s == "" {
		return missingCell
	}
	return s
}
